package unione

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(server *httptest.Server, apiKey string) *Client {
	return newClientWithBaseURL(apiKey, server.URL+"/en", server.Client())
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := newClient("key-1", "", "", 0)
	if c.baseURL != "https://eu1.unione.io/en" {
		t.Errorf("baseURL: got %q, want %q", c.baseURL, "https://eu1.unione.io/en")
	}
}

func TestNewClient_HostPortLocaleOverrides(t *testing.T) {
	t.Parallel()

	c := newClient("key-1", "api.example.com", "ru", 8443)
	if c.baseURL != "https://api.example.com:8443/ru" {
		t.Errorf("baseURL: got %q, want %q", c.baseURL, "https://api.example.com:8443/ru")
	}
}

func TestCall_InjectsAPIKeyAndKeepsCallerFields(t *testing.T) {
	t.Parallel()

	var gotPath string
	var gotBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		w.Write([]byte(`{"status":"success"}`))
	}))
	defer server.Close()

	c := newTestClient(server, "secret-key")

	_, err := c.Call(context.Background(), sendPath, map[string]any{
		"message": map[string]any{"subject": "hi"},
		"api_key": "caller-must-lose",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotPath != "/en/"+sendPath {
		t.Errorf("path: got %q, want %q", gotPath, "/en/"+sendPath)
	}
	if gotBody["api_key"] != "secret-key" {
		t.Errorf("api_key: got %v, want %q", gotBody["api_key"], "secret-key")
	}
	msg, ok := gotBody["message"].(map[string]any)
	if !ok || msg["subject"] != "hi" {
		t.Errorf("caller field overwritten: %v", gotBody["message"])
	}
}

func TestCall_SuccessReturnsRawBody(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","job_id":"1a2b"}`))
	}))
	defer server.Close()

	c := newTestClient(server, "k")

	raw, err := c.Call(context.Background(), sendPath, map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"status":"success","job_id":"1a2b"}` {
		t.Errorf("raw body: got %s", raw)
	}
}

func TestCall_ErrorEnvelope(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		status      int
		body        string
		wantCode    string
		wantMessage string
	}{
		{
			name:        "numeric code",
			status:      http.StatusUnauthorized,
			body:        `{"status":"error","message":"bad key","code":401}`,
			wantCode:    "401",
			wantMessage: "bad key",
		},
		{
			name:        "string code",
			status:      http.StatusForbidden,
			body:        `{"status":"error","message":"denied","code":"forbidden"}`,
			wantCode:    "forbidden",
			wantMessage: "denied",
		},
		{
			name:     "no error envelope",
			status:   http.StatusBadGateway,
			body:     `<html>gateway</html>`,
			wantCode: "502",
		},
		{
			name:     "json without status field",
			status:   http.StatusInternalServerError,
			body:     `{"message":"ignored"}`,
			wantCode: "500",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			c := newTestClient(server, "k")

			_, err := c.Call(context.Background(), sendPath, map[string]any{})
			if err == nil {
				t.Fatal("expected error, got nil")
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %T: %v", err, err)
			}
			if apiErr.Code != tt.wantCode {
				t.Errorf("Code: got %q, want %q", apiErr.Code, tt.wantCode)
			}
			if apiErr.Message != tt.wantMessage {
				t.Errorf("Message: got %q, want %q", apiErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestCall_TransportErrorIsNotAPIError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	c := newClientWithBaseURL("k", server.URL+"/en", &http.Client{})

	_, err := c.Call(context.Background(), sendPath, map[string]any{})
	if err == nil {
		t.Fatal("expected error, got nil")
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		t.Errorf("transport failure classified as *APIError: %v", err)
	}
}

func TestFlexCode_Decoding(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  string
	}{
		{`{"code":401}`, "401"},
		{`{"code":"invalid_key"}`, "invalid_key"},
		{`{"code":1.5}`, "1.5"},
	}

	for _, tt := range tests {
		var body apiErrorBody
		if err := json.Unmarshal([]byte(tt.input), &body); err != nil {
			t.Errorf("unmarshal %s: %v", tt.input, err)
			continue
		}
		if string(body.Code) != tt.want {
			t.Errorf("code for %s: got %q, want %q", tt.input, body.Code, tt.want)
		}
	}
}
