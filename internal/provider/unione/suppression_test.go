package unione

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// suppressionServer fakes the suppression endpoints, serving canned
// suppression lists per address and recording delete calls.
type suppressionServer struct {
	mu          sync.Mutex
	lists       map[string][]Suppression
	getCalls    []string
	deleteCalls []string
	failDelete  map[string]bool
}

func (f *suppressionServer) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		addr, _ := body["email"].(string)

		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case strings.HasSuffix(r.URL.Path, "suppression/get.json"):
			f.getCalls = append(f.getCalls, addr)
			json.NewEncoder(w).Encode(suppressionGetResponse{Suppressions: f.lists[addr]})
		case strings.HasSuffix(r.URL.Path, "suppression/delete.json"):
			f.deleteCalls = append(f.deleteCalls, addr)
			if f.failDelete[addr] {
				w.WriteHeader(http.StatusBadRequest)
				w.Write([]byte(`{"status":"error","message":"not deletable","code":400}`))
				return
			}
			w.Write([]byte(`{"status":"success"}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestFetchSuppressions_DeletableOnlyFiltering(t *testing.T) {
	t.Parallel()

	fake := &suppressionServer{
		lists: map[string][]Suppression{
			"blocked@x.com": {
				{Email: "blocked@x.com", Cause: "unsubscribed", IsDeletable: false},
				{Email: "blocked@x.com", Cause: "temporary_unavailable", IsDeletable: true},
			},
			"stuck@x.com": {
				{Email: "stuck@x.com", Cause: "complained", IsDeletable: false},
			},
		},
	}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	c := newTestClient(server, "k")

	got, err := c.FetchSuppressions(context.Background(),
		[]string{"blocked@x.com", "stuck@x.com", "clean@x.com"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("result size: got %d, want 1", len(got))
	}
	entries, ok := got["blocked@x.com"]
	if !ok {
		t.Fatal("blocked@x.com missing from result")
	}
	if len(entries) != 2 {
		t.Errorf("entries for blocked@x.com: got %d, want 2", len(entries))
	}
	// Addresses without a deletable entry are omitted, never mapped to an
	// empty list.
	if _, found := got["stuck@x.com"]; found {
		t.Error("stuck@x.com should be excluded entirely")
	}
}

func TestFetchSuppressions_NoDeletableEntriesYieldsEmptyMap(t *testing.T) {
	t.Parallel()

	fake := &suppressionServer{
		lists: map[string][]Suppression{
			"a@x.com": {{Email: "a@x.com", Cause: "complained", IsDeletable: false}},
		},
	}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	c := newTestClient(server, "k")

	got, err := c.FetchSuppressions(context.Background(), []string{"a@x.com"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("result: got %v, want empty map", got)
	}
}

func TestFetchSuppressions_WithoutDeletableOnlyKeepsAll(t *testing.T) {
	t.Parallel()

	fake := &suppressionServer{
		lists: map[string][]Suppression{
			"a@x.com": {{Email: "a@x.com", Cause: "complained", IsDeletable: false}},
		},
	}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	c := newTestClient(server, "k")

	got, err := c.FetchSuppressions(context.Background(), []string{"a@x.com"}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got["a@x.com"]) != 1 {
		t.Errorf("entries for a@x.com: got %d, want 1", len(got["a@x.com"]))
	}
}

func TestFetchSuppressions_OneLookupPerDistinctAddress(t *testing.T) {
	t.Parallel()

	fake := &suppressionServer{lists: map[string][]Suppression{}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	c := newTestClient(server, "k")

	_, err := c.FetchSuppressions(context.Background(),
		[]string{"dup@x.com", "dup@x.com", "other@x.com"}, true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(fake.getCalls) != 2 {
		t.Errorf("lookup calls: got %d (%v), want 2", len(fake.getCalls), fake.getCalls)
	}
}

func TestFetchSuppressions_LookupFailurePropagates(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(server, "k")

	if _, err := c.FetchSuppressions(context.Background(), []string{"a@x.com"}, true); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestDeleteSuppressions_ContinuesAfterFailure(t *testing.T) {
	t.Parallel()

	fake := &suppressionServer{
		lists:      map[string][]Suppression{},
		failDelete: map[string]bool{"bad@x.com": true},
	}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	c := newTestClient(server, "k")

	err := c.DeleteSuppressions(context.Background(),
		[]string{"ok1@x.com", "bad@x.com", "ok2@x.com"})
	if err == nil {
		t.Fatal("expected joined error for the failed address")
	}

	if len(fake.deleteCalls) != 3 {
		t.Errorf("delete calls: got %d (%v), want 3", len(fake.deleteCalls), fake.deleteCalls)
	}
}

func TestDeleteSuppressions_AllSucceed(t *testing.T) {
	t.Parallel()

	fake := &suppressionServer{lists: map[string][]Suppression{}}
	server := httptest.NewServer(fake.handler(t))
	defer server.Close()

	c := newTestClient(server, "k")

	if err := c.DeleteSuppressions(context.Background(), []string{"a@x.com", "b@x.com"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(fake.deleteCalls) != 2 {
		t.Errorf("delete calls: got %d, want 2", len(fake.deleteCalls))
	}
}
