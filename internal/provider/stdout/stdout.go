// Package stdout implements a Provider that prints emails to standard output.
package stdout

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/fiCeVitka/unione-mailer/internal/email"
)

// Provider prints email messages to stdout in a human-readable format.
type Provider struct {
	// writer is the output destination, defaulting to os.Stdout.
	writer io.Writer
}

// New creates a new stdout Provider that writes to os.Stdout.
func New() *Provider {
	return &Provider{writer: os.Stdout}
}

// NewWithWriter creates a new stdout Provider that writes to the given writer.
// This is useful for testing.
func NewWithWriter(w io.Writer) *Provider {
	return &Provider{writer: w}
}

// Send prints the message and envelope to stdout in a readable format and
// returns a locally generated receipt id. It always succeeds.
func (p *Provider) Send(_ context.Context, msg *email.Message, env *email.Envelope) (*email.Receipt, error) {
	var b strings.Builder

	b.WriteString("========================================\n")
	sender := env.FromAddress
	if env.FromName != "" {
		sender = fmt.Sprintf("%s <%s>", env.FromName, env.FromAddress)
	}
	b.WriteString(fmt.Sprintf("From: %s\n", sender))
	b.WriteString(fmt.Sprintf("To: %s\n", strings.Join(env.Recipients, ", ")))

	if len(msg.ReplyTo) > 0 {
		b.WriteString(fmt.Sprintf("Reply-To: %s\n", strings.Join(msg.ReplyTo, ", ")))
	}

	b.WriteString(fmt.Sprintf("Subject: %s\n", msg.Subject))
	b.WriteString("Body:\n")

	body := msg.TextBody
	if body == "" {
		body = msg.HtmlBody
	}
	b.WriteString(body + "\n")

	if len(msg.Attachments) > 0 {
		attachments := make([]string, 0, len(msg.Attachments))
		for _, att := range msg.Attachments {
			name := att.Filename()
			if name == "" {
				name = "(unnamed)"
			}
			attachments = append(attachments, fmt.Sprintf("%s [%s, %s, %s]",
				name, att.ContentType, att.Disposition, formatSize(len(att.Content))))
		}
		b.WriteString(fmt.Sprintf("Attachments: %s\n", strings.Join(attachments, ", ")))
	}

	b.WriteString("========================================\n")

	// A write error is not a delivery failure for a debug sink.
	fmt.Fprint(p.writer, b.String())

	return &email.Receipt{MessageID: uuid.NewString()}, nil
}

// Name returns the provider name.
func (p *Provider) Name() string {
	return "stdout"
}

// formatSize formats a byte count into a human-readable string.
func formatSize(bytes int) string {
	const (
		kb = 1024
		mb = kb * 1024
	)

	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
