package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"crewbox/models"
	"crewbox/utils"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, "test-key", &http.Client{Timeout: 2 * time.Second}, utils.NewLogger(utils.ERROR))
}

func envelopeOf(t *testing.T, data interface{}) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]interface{}{"success": true, "data": data})
	if err != nil {
		t.Fatal(err)
	}
	return raw
}

func TestListEmailsDecodesEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/emails" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing bearer token, got %q", got)
		}
		if got := r.URL.Query().Get("page_size"); got != "50" {
			t.Errorf("page_size not forwarded, got %q", got)
		}
		w.Write(envelopeOf(t, map[string]interface{}{
			"records":     []models.EmailRecord{{ID: "e1", Subject: "hi"}},
			"next_cursor": "c1",
			"has_more":    true,
		}))
	})

	result, err := client.ListEmails(context.Background(), "u1", models.Filters{}, PageRequest{Page: 1}, 50)
	if err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
	if len(result.Records) != 1 || result.Records[0].ID != "e1" {
		t.Fatalf("records not decoded: %+v", result.Records)
	}
	if result.NextCursor != "c1" || result.HasMore == nil || !*result.HasMore {
		t.Fatalf("pagination signals not decoded: %+v", result)
	}
}

func TestListEmailsForwardsFilterAndCursor(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != models.ThreadStatusResolved {
			t.Errorf("status filter not forwarded: %q", q.Get("status"))
		}
		if q.Get("cursor") != "c9" {
			t.Errorf("cursor not forwarded: %q", q.Get("cursor"))
		}
		if q.Get("page") != "" {
			t.Error("cursor must take precedence over page index")
		}
		w.Write(envelopeOf(t, map[string]interface{}{"records": []models.EmailRecord{}}))
	})

	filters := models.Filters{Status: models.ThreadStatusResolved}
	if _, err := client.ListEmails(context.Background(), "u1", filters, PageRequest{Cursor: "c9", Page: 3}, 50); err != nil {
		t.Fatalf("ListEmails: %v", err)
	}
}

func TestErrorTaxonomy(t *testing.T) {
	cases := []struct {
		name   string
		status int
		check  func(error) bool
	}{
		{"not found", http.StatusNotFound, IsNotFound},
		{"bad request", http.StatusBadRequest, IsValidation},
		{"server error", http.StatusInternalServerError, IsRetryable},
		{"rate limited", http.StatusTooManyRequests, IsRetryable},
		{"request timeout", http.StatusRequestTimeout, IsRetryable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "nope"})
			})
			err := client.SetStarred(context.Background(), "e1", true)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !tc.check(err) {
				t.Fatalf("status %d classified wrong: %v", tc.status, err)
			}
		})
	}
}

func TestRejectedEnvelopeIsRetryable(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"success": false, "error": "backend busy"})
	})

	err := client.SetReadState(context.Background(), "e1", true, "u1")
	if !IsRetryable(err) {
		t.Fatalf("success=false envelope must be retryable, got %v", err)
	}
}

func TestConnectionFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(url, "k", &http.Client{Timeout: time.Second}, utils.NewLogger(utils.ERROR))
	err := client.SetStarred(context.Background(), "e1", true)
	if !IsRetryable(err) {
		t.Fatalf("connection failure must be retryable, got %v", err)
	}
}
