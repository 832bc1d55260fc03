// Package email defines the message, envelope, and delivery-receipt data model
// shared by the SMTP front end and the delivery providers.
package email

import (
	"mime"
	"strings"
)

// Attachment dispositions. Routing of an attachment into a provider payload is
// determined solely by this value.
const (
	DispositionInline     = "inline"
	DispositionAttachment = "attachment"
)

// Message is a parsed email message. It carries the content handed to a
// delivery provider; the transport addresses live in the Envelope.
type Message struct {
	Subject  string
	TextBody string
	HtmlBody string

	// ReplyTo holds the addresses from the Reply-To header, in header order.
	ReplyTo []string

	// Headers preserves the original header order of the raw message.
	Headers []Header

	Attachments []Attachment

	MessageID string
}

// Header is a single name/value header pair.
type Header struct {
	Name  string
	Value string
}

// Header returns the value of the first header with the given name,
// matched case-insensitively, or "" if the message has no such header.
func (m *Message) Header(name string) string {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value
		}
	}
	return ""
}

// Attachment represents a single MIME attachment or inline part.
type Attachment struct {
	// Content is the decoded attachment body.
	Content []byte

	// ContentType is the declared media type, e.g. "image/png".
	ContentType string

	// Subtype is the media subtype, e.g. "png".
	Subtype string

	// Params is the raw parameter block of the Content-Type header, i.e.
	// everything after the media type, e.g. `name="logo.png"; charset=utf-8`.
	Params string

	// Disposition is DispositionInline or DispositionAttachment.
	Disposition string
}

// Filename returns the attachment filename from the Content-Type "name"
// parameter, or "" if none is declared. Parsing follows RFC 2045 parameter
// rules; providers that need a wire-specific derivation do their own.
func (a Attachment) Filename() string {
	_, params, err := mime.ParseMediaType(a.ContentType + "; " + a.Params)
	if err != nil {
		return ""
	}
	return params["name"]
}

// Envelope holds the resolved transport addresses for a delivery, which may
// differ from the message's displayed From/To headers.
type Envelope struct {
	// FromAddress is the sender address used for transport.
	FromAddress string

	// FromName is an optional display name for the sender.
	FromName string

	// Recipients are the transport recipient addresses. Deduplication and
	// validity are the caller's responsibility.
	Recipients []string
}

// Receipt is the result of a successful delivery.
type Receipt struct {
	// MessageID is the provider-assigned job or message id.
	MessageID string

	// Raw is the raw provider response body, kept for diagnostics. Providers
	// without a wire response leave it nil.
	Raw []byte
}
