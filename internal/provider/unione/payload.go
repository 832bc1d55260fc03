package unione

import (
	"encoding/base64"
	"regexp"
	"strings"

	"github.com/fiCeVitka/unione-mailer/internal/email"
)

// bypassHeaders are header names that must never appear in the payload's
// headers array; their content travels in dedicated payload fields or is
// owned by the API. Matched case-insensitively.
var bypassHeaders = map[string]struct{}{
	"from":         {},
	"to":           {},
	"cc":           {},
	"bcc":          {},
	"subject":      {},
	"content-type": {},
}

// attachmentNamePattern extracts the "name" parameter from a raw Content-Type
// parameter block, accepting quoted and unquoted values. It is deliberately
// tolerant rather than a full RFC 2045 parser to stay wire-compatible with
// what the API has historically been sent; it is order-sensitive for
// multi-parameter blocks.
var attachmentNamePattern = regexp.MustCompile(`name="?([^";]+)"?`)

// buildSendMessage converts a message and envelope into the email/send.json
// wire shape. It is pure: it never fails and never mutates its inputs.
// Malformed attachment metadata degrades to a null filename, not an error.
func buildSendMessage(msg *email.Message, env *email.Envelope, skipUnsubscribe bool) *sendMessage {
	out := &sendMessage{
		Body: messageBody{
			HTML: msg.HtmlBody,
			Text: msg.TextBody,
		},
		Subject:   msg.Subject,
		FromEmail: env.FromAddress,
	}
	if skipUnsubscribe {
		out.SkipUnsubscribe = 1
	}

	// The API accepts a single reply-to address. Additional Reply-To
	// addresses are dropped; this is a known limitation of the wire format.
	if len(msg.ReplyTo) > 0 {
		out.ReplyTo = msg.ReplyTo[0]
	}

	if env.FromName != "" {
		out.FromName = env.FromName
	}

	out.Recipients = make([]recipient, 0, len(env.Recipients))
	for _, addr := range env.Recipients {
		out.Recipients = append(out.Recipients, recipient{Email: addr})
	}

	for _, att := range msg.Attachments {
		inline := att.Disposition == email.DispositionInline
		wire := wireAttachment{
			Content: base64.StdEncoding.EncodeToString(att.Content),
			Type:    att.ContentType,
			Name:    attachmentName(att, inline),
		}
		if inline {
			out.InlineAttachments = append(out.InlineAttachments, wire)
		} else {
			out.Attachments = append(out.Attachments, wire)
		}
	}

	for _, h := range msg.Headers {
		if _, skip := bypassHeaders[strings.ToLower(h.Name)]; skip {
			continue
		}
		out.Headers = append(out.Headers, h.Name+": "+h.Value)
	}

	return out
}

// attachmentName derives the wire filename from the attachment's Content-Type
// parameter block. Inline attachments use the matched value as is; regular
// attachments get the media subtype appended. A missing name parameter yields
// nil, serialized as null.
func attachmentName(att email.Attachment, inline bool) *string {
	m := attachmentNamePattern.FindStringSubmatch(att.Params)
	if m == nil {
		return nil
	}
	name := m[1]
	if !inline {
		name += "." + att.Subtype
	}
	return &name
}
