package unione

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/fiCeVitka/unione-mailer/internal/email"
)

// Config holds the configuration for creating a UniOneProvider.
type Config struct {
	// APIKey is the UniOne API key. Required.
	APIKey string

	// Locale is the URL locale path segment. Defaults to "en".
	Locale string

	// Host and Port override the default API endpoint.
	Host string
	Port int

	// SkipUnsubscribe asks the API not to append its unsubscribe footer.
	SkipUnsubscribe bool

	// CheckDeletableSuppressions enables the best-effort pre-send cleanup of
	// deletable suppression records for the envelope recipients.
	CheckDeletableSuppressions bool
}

// UniOneProvider sends emails via the UniOne transactional API.
type UniOneProvider struct {
	client            *Client
	skipUnsubscribe   bool
	checkSuppressions bool
}

// New creates a new UniOneProvider with the given configuration.
func New(cfg Config) *UniOneProvider {
	return &UniOneProvider{
		client:            newClient(cfg.APIKey, cfg.Host, cfg.Locale, cfg.Port),
		skipUnsubscribe:   cfg.SkipUnsubscribe,
		checkSuppressions: cfg.CheckDeletableSuppressions,
	}
}

// newWithBaseURL creates a UniOneProvider against an explicit base URL and
// HTTP client, used for testing.
func newWithBaseURL(cfg Config, baseURL string, httpClient *http.Client) *UniOneProvider {
	return &UniOneProvider{
		client:            newClientWithBaseURL(cfg.APIKey, baseURL, httpClient),
		skipUnsubscribe:   cfg.SkipUnsubscribe,
		checkSuppressions: cfg.CheckDeletableSuppressions,
	}
}

// Send delivers a message through the UniOne API. When suppression cleanup is
// enabled it runs first and is strictly best-effort: no failure in it ever
// blocks the send. A success response without a job_id is a delivery error,
// never an empty-id receipt.
func (p *UniOneProvider) Send(ctx context.Context, msg *email.Message, env *email.Envelope) (*email.Receipt, error) {
	if p.checkSuppressions {
		p.cleanupSuppressions(ctx, env.Recipients)
	}

	payload := buildSendMessage(msg, env, p.skipUnsubscribe)

	raw, err := p.client.Call(ctx, sendPath, map[string]any{"message": payload})
	if err != nil {
		return nil, err
	}

	var resp sendResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode send response: %w", err)
	}
	if resp.JobID == "" {
		return nil, &DeliveryError{Reason: "send response missing job_id"}
	}

	return &email.Receipt{MessageID: resp.JobID, Raw: raw}, nil
}

// Name returns the provider name.
func (p *UniOneProvider) Name() string {
	return "unione"
}

// cleanupSuppressions deletes deletable suppression records for the given
// recipients. Suppression cleanup is an optimization, not a correctness
// requirement, so every error here is logged and discarded.
func (p *UniOneProvider) cleanupSuppressions(ctx context.Context, recipients []string) {
	found, err := p.client.FetchSuppressions(ctx, recipients, true)
	if err != nil {
		slog.Warn("suppression lookup failed, sending anyway", "error", err)
		return
	}
	if len(found) == 0 {
		return
	}

	addrs := make([]string, 0, len(found))
	for addr := range found {
		addrs = append(addrs, addr)
	}

	slog.Debug("deleting suppressions before send", "count", len(addrs))
	if err := p.client.DeleteSuppressions(ctx, addrs); err != nil {
		slog.Warn("suppression cleanup incomplete, sending anyway", "error", err)
	}
}
