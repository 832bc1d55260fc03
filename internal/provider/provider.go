// Package provider defines the interface for email delivery backends.
package provider

import (
	"context"

	"github.com/fiCeVitka/unione-mailer/internal/email"
)

// Provider is the interface that email delivery backends must implement.
// Each provider translates the message and envelope into its own wire format
// and performs the actual delivery (e.g., UniOne API, AWS SES, stdout).
type Provider interface {
	// Send delivers a message to the envelope recipients through this
	// provider. On success it returns a receipt carrying the provider's
	// message id.
	Send(ctx context.Context, msg *email.Message, env *email.Envelope) (*email.Receipt, error)

	// Name returns the human-readable name of this provider.
	Name() string
}
