package unione

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
)

// FetchSuppressions looks up the suppression list for every distinct
// recipient address, one API call per address (the API has no batch lookup).
// An address counts as deletable when any of its entries is deletable. With
// deletableOnly set, addresses without a deletable entry are omitted from the
// result entirely.
func (c *Client) FetchSuppressions(ctx context.Context, recipients []string, deletableOnly bool) (map[string][]Suppression, error) {
	result := make(map[string][]Suppression)
	seen := make(map[string]struct{}, len(recipients))

	for _, addr := range recipients {
		if _, dup := seen[addr]; dup {
			continue
		}
		seen[addr] = struct{}{}

		raw, err := c.Call(ctx, suppressionGetPath, map[string]any{"email": addr})
		if err != nil {
			return nil, err
		}

		var resp suppressionGetResponse
		if err := json.Unmarshal(raw, &resp); err != nil {
			return nil, fmt.Errorf("failed to decode suppression response for %s: %w", addr, err)
		}
		if len(resp.Suppressions) == 0 {
			continue
		}

		if deletableOnly && !anyDeletable(resp.Suppressions) {
			continue
		}
		result[addr] = resp.Suppressions
	}

	return result, nil
}

// DeleteSuppressions deletes the suppression records for the given addresses,
// one call per address. A failed address never aborts the remaining
// deletions; the per-address errors are joined and returned for the caller to
// judge.
func (c *Client) DeleteSuppressions(ctx context.Context, addrs []string) error {
	var errs []error
	for _, addr := range addrs {
		if _, err := c.Call(ctx, suppressionDeletePath, map[string]any{"email": addr}); err != nil {
			slog.Warn("failed to delete suppression",
				"email", addr,
				"error", err,
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// anyDeletable reports whether at least one entry is deletable.
func anyDeletable(entries []Suppression) bool {
	for _, s := range entries {
		if s.IsDeletable {
			return true
		}
	}
	return false
}
