package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// TestFetchActiveSession verifies the snapshot decodes from the platform's
// response and the API key header is sent.
func TestFetchActiveSession(t *testing.T) {
	customer := uuid.New()
	session := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-API-Key") != "k" {
			t.Errorf("missing API key header")
		}
		wantPath := "/api/v1/customers/" + customer.String() + "/active-session"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		json.NewEncoder(w).Encode(models.ActiveSessionSnapshot{ //nolint:errcheck
			Present: true,
			Session: &models.ActiveSession{
				ID:         session,
				CustomerID: customer,
				Status:     models.SessionStatusInProgress,
				StartedAt:  time.Now().UTC(),
			},
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	snap, err := client.FetchActiveSession(context.Background(), customer)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !snap.Present {
		t.Fatal("present = false, want true")
	}
	if snap.Session.ID != session {
		t.Errorf("session id = %v, want %v", snap.Session.ID, session)
	}
}

// TestFetchActiveSessionServerError verifies non-200 responses surface as
// errors rather than empty snapshots.
func TestFetchActiveSessionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	if _, err := client.FetchActiveSession(context.Background(), uuid.New()); err == nil {
		t.Fatal("expected error on 500")
	}
}

// TestSubmitCompletion verifies the payload is posted once, with no retry,
// and the summary decodes.
func TestSubmitCompletion(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var payload models.SessionCompletionPayload
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		if payload.DurationMinutes != 42 {
			t.Errorf("duration = %d, want 42", payload.DurationMinutes)
		}
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(models.CompletedSessionSummary{ //nolint:errcheck
			SessionID:       uuid.New(),
			DurationMinutes: 42,
		})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	summary, err := client.SubmitCompletion(context.Background(), models.SessionCompletionPayload{DurationMinutes: 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.DurationMinutes != 42 {
		t.Errorf("summary duration = %d, want 42", summary.DurationMinutes)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want exactly 1 (no silent retry)", calls)
	}
}

// TestSubmitCompletionFailureNoRetry verifies a server rejection is returned
// after a single attempt.
func TestSubmitCompletionFailureNoRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"validation failed"}`, http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	if _, err := client.SubmitCompletion(context.Background(), models.SessionCompletionPayload{}); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

// TestNotifyCancel verifies the cancel notification hits the session's
// cancel endpoint and accepts 204.
func TestNotifyCancel(t *testing.T) {
	session := uuid.New()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		wantPath := "/api/v1/sessions/" + session.String() + "/cancel"
		if r.URL.Path != wantPath {
			t.Errorf("path = %q, want %q", r.URL.Path, wantPath)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "k")
	if err := client.NotifyCancel(context.Background(), session); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
