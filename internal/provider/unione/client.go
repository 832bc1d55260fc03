package unione

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

// Default API endpoint. The locale becomes a URL path segment, so overrides
// must be safe path tokens.
const (
	defaultHost   = "eu1.unione.io"
	defaultLocale = "en"
)

// requestTimeout is the per-request HTTP timeout for API calls.
const requestTimeout = 30 * time.Second

// Client issues signed calls to UniOne API methods. It never retries; retry
// policy and cancellation belong to the caller, carried through the context.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// newClient creates a Client for the given credentials and endpoint
// overrides. Empty host and locale fall back to the provider defaults; a zero
// port leaves the default HTTPS port.
func newClient(apiKey, host, locale string, port int) *Client {
	if host == "" {
		host = defaultHost
	}
	if locale == "" {
		locale = defaultLocale
	}
	authority := host
	if port != 0 {
		authority = fmt.Sprintf("%s:%d", host, port)
	}

	return &Client{
		apiKey:     apiKey,
		baseURL:    fmt.Sprintf("https://%s/%s", authority, locale),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// newClientWithBaseURL creates a Client against an explicit base URL and HTTP
// client, used for testing.
func newClientWithBaseURL(apiKey, baseURL string, httpClient *http.Client) *Client {
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// Call POSTs a JSON body to the given API method path and returns the raw
// response body on HTTP 200. The configured api_key is merged into a copy of
// the body; no caller-supplied field other than api_key is ever overwritten.
// Non-200 responses are returned as *APIError; transport failures are
// returned wrapped.
func (c *Client) Call(ctx context.Context, path string, body map[string]any) ([]byte, error) {
	payload := make(map[string]any, len(body)+1)
	for k, v := range body {
		payload[k] = v
	}
	payload["api_key"] = c.apiKey

	bodyJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(bodyJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return respBody, nil
	}

	// The error envelope's message field cannot be assumed present; only a
	// body that declares status "error" is trusted to carry one.
	var errBody apiErrorBody
	if jsonErr := json.Unmarshal(respBody, &errBody); jsonErr == nil && errBody.Status == "error" {
		code := string(errBody.Code)
		if code == "" {
			code = strconv.Itoa(resp.StatusCode)
		}
		return nil, &APIError{Code: code, Message: errBody.Message}
	}

	return nil, &APIError{Code: strconv.Itoa(resp.StatusCode)}
}
