// Package parser provides RFC 5322 email message parsing with MIME multipart support.
package parser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"net/textproto"
	"strings"

	"github.com/fiCeVitka/unione-mailer/internal/email"
)

// Parse parses a raw RFC 5322 email message into a Message. It handles plain
// text messages, multipart messages with text/html bodies, and attachments.
// Unrecognized MIME parts are logged as warnings.
func Parse(raw []byte) (*email.Message, error) {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse message: %w", err)
	}

	result := &email.Message{
		Headers: scanHeaders(raw),
	}

	result.Subject = msg.Header.Get("Subject")
	result.MessageID = msg.Header.Get("Message-Id")
	result.ReplyTo = parseAddressList(msg.Header.Get("Reply-To"))

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// If content type is unparseable, treat as plain text
		slog.Warn("failed to parse content type, treating as plain text",
			"content_type", contentType,
			"error", err,
		)
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return nil, fmt.Errorf("failed to read message body: %w", readErr)
		}
		result.TextBody = string(body)
		return result, nil
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" {
			return nil, fmt.Errorf("multipart message missing boundary")
		}
		if err := parseMultipart(msg.Body, boundary, result); err != nil {
			return nil, fmt.Errorf("failed to parse multipart message: %w", err)
		}
	} else {
		body, err := io.ReadAll(msg.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read message body: %w", err)
		}
		switch mediaType {
		case "text/plain":
			result.TextBody = string(body)
		case "text/html":
			result.HtmlBody = string(body)
		default:
			slog.Warn("unrecognized top-level content type",
				"content_type", mediaType,
			)
			result.TextBody = string(body)
		}
	}

	return result, nil
}

// parseMultipart processes a multipart MIME message body, extracting
// text/plain and text/html parts, attachments, and inline parts.
func parseMultipart(body io.Reader, boundary string, result *email.Message) error {
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		partContentType := part.Header.Get("Content-Type")
		if partContentType == "" {
			partContentType = "text/plain"
		}

		mediaType, params, err := mime.ParseMediaType(partContentType)
		if err != nil {
			slog.Warn("failed to parse part content type, skipping",
				"content_type", partContentType,
				"error", err,
			)
			continue
		}

		// Check for nested multipart
		if strings.HasPrefix(mediaType, "multipart/") {
			nestedBoundary := params["boundary"]
			if nestedBoundary == "" {
				slog.Warn("nested multipart missing boundary, skipping")
				continue
			}
			if err := parseMultipart(part, nestedBoundary, result); err != nil {
				slog.Warn("failed to parse nested multipart",
					"error", err,
				)
			}
			continue
		}

		content, err := readPartContent(part)
		if err != nil {
			slog.Warn("failed to read part content",
				"content_type", mediaType,
				"error", err,
			)
			continue
		}

		if isBodyPart(part, mediaType) {
			switch mediaType {
			case "text/plain":
				if result.TextBody == "" {
					result.TextBody = string(content)
				}
			case "text/html":
				if result.HtmlBody == "" {
					result.HtmlBody = string(content)
				}
			}
			continue
		}

		result.Attachments = append(result.Attachments, buildAttachment(part, mediaType, content))
	}

	return nil
}

// isBodyPart reports whether a part is a message body rather than an
// attachment. Only undisposed text parts without a Content-Id count as bodies.
func isBodyPart(part *multipart.Part, mediaType string) bool {
	if mediaType != "text/plain" && mediaType != "text/html" {
		return false
	}
	if part.Header.Get("Content-Id") != "" {
		return false
	}
	disposition := strings.ToLower(part.Header.Get("Content-Disposition"))
	return disposition == "" || strings.HasPrefix(disposition, "inline")
}

// buildAttachment converts a MIME part into the attachment model, capturing
// the raw Content-Type parameter block for providers that derive filenames
// from it.
func buildAttachment(part *multipart.Part, mediaType string, content []byte) email.Attachment {
	disposition := email.DispositionAttachment
	cd := strings.ToLower(part.Header.Get("Content-Disposition"))
	if strings.HasPrefix(cd, "inline") || part.Header.Get("Content-Id") != "" {
		disposition = email.DispositionInline
	}

	subtype := ""
	if idx := strings.Index(mediaType, "/"); idx >= 0 {
		subtype = mediaType[idx+1:]
	}

	return email.Attachment{
		Content:     content,
		ContentType: mediaType,
		Subtype:     subtype,
		Params:      contentTypeParams(part.Header),
		Disposition: disposition,
	}
}

// contentTypeParams returns the raw parameter block of a part's Content-Type
// header: everything after the first semicolon, trimmed.
func contentTypeParams(header textproto.MIMEHeader) string {
	value := header.Get("Content-Type")
	idx := strings.Index(value, ";")
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(value[idx+1:])
}

// readPartContent reads the full content of a MIME part, handling
// Content-Transfer-Encoding (base64, quoted-printable).
func readPartContent(part *multipart.Part) ([]byte, error) {
	encoding := part.Header.Get("Content-Transfer-Encoding")
	encoding = strings.ToLower(strings.TrimSpace(encoding))

	raw, err := io.ReadAll(part)
	if err != nil {
		return nil, err
	}

	switch encoding {
	case "base64":
		cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))
		decoded, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			// Try with RawStdEncoding for unpadded base64
			decoded, err = base64.RawStdEncoding.DecodeString(cleaned)
			if err != nil {
				return nil, fmt.Errorf("failed to decode base64 content: %w", err)
			}
		}
		return decoded, nil
	default:
		// For "7bit", "8bit", "binary", "quoted-printable", or empty,
		// return raw content. Go's multipart reader handles QP internally.
		return raw, nil
	}
}

// scanHeaders extracts the header block of a raw message as an ordered list,
// unfolding continuation lines. net/mail exposes headers only as a map, which
// loses the original order that delivery payloads preserve.
func scanHeaders(raw []byte) []email.Header {
	var headers []email.Header

	for _, sep := range []string{"\r\n\r\n", "\n\n"} {
		if idx := bytes.Index(raw, []byte(sep)); idx >= 0 {
			raw = raw[:idx]
			break
		}
	}

	for _, line := range strings.Split(string(raw), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			// Folded continuation of the previous header
			if len(headers) > 0 {
				headers[len(headers)-1].Value += " " + strings.TrimSpace(line)
			}
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		headers = append(headers, email.Header{
			Name:  strings.TrimSpace(name),
			Value: strings.TrimSpace(value),
		})
	}

	return headers
}

// parseAddressList splits a comma-separated address list into individual addresses.
func parseAddressList(raw string) []string {
	if raw == "" {
		return nil
	}

	addresses, err := mail.ParseAddressList(raw)
	if err != nil {
		// Fall back to simple comma split if RFC 5322 parsing fails
		parts := strings.Split(raw, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				result = append(result, trimmed)
			}
		}
		return result
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		result = append(result, addr.Address)
	}
	return result
}
