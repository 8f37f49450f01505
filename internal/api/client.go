// Package api is the HTTP client for the coaching platform. LiftLog consumes
// exactly three server operations: the active-session query, the completion
// command, and a best-effort cancel notification.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// Client sends requests to the coaching platform over HTTP.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a new HTTP client for the coaching platform.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchActiveSession asks the platform whether the customer has an active
// session. This is the only authoritative source for the query cache.
func (c *Client) FetchActiveSession(ctx context.Context, customerID uuid.UUID) (models.ActiveSessionSnapshot, error) {
	url := fmt.Sprintf("%s/api/v1/customers/%s/active-session", c.baseURL, customerID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return models.ActiveSessionSnapshot{}, fmt.Errorf("building active-session request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.ActiveSessionSnapshot{}, fmt.Errorf("fetching active session: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return models.ActiveSessionSnapshot{}, fmt.Errorf("active-session request failed (status %d): %s", resp.StatusCode, body)
	}

	var snap models.ActiveSessionSnapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return models.ActiveSessionSnapshot{}, fmt.Errorf("decoding active session: %w", err)
	}
	return snap, nil
}

// SubmitCompletion POSTs a completed session payload. There is no silent
// retry here: the completion endpoint has no idempotency keys, so a retry is
// the caller's explicit decision.
func (c *Client) SubmitCompletion(ctx context.Context, payload models.SessionCompletionPayload) (*models.CompletedSessionSummary, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling completion payload: %w", err)
	}

	url := c.baseURL + "/api/v1/sessions/complete"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("building completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("submitting completion: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("completion request failed (status %d): %s", resp.StatusCode, body)
	}

	var summary models.CompletedSessionSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, fmt.Errorf("decoding completion summary: %w", err)
	}
	return &summary, nil
}

// NotifyCancel tells the platform a session was abandoned. Callers treat
// this as fire-and-forget: a failure must never block local state
// transitions.
func (c *Client) NotifyCancel(ctx context.Context, sessionID uuid.UUID) error {
	url := fmt.Sprintf("%s/api/v1/sessions/%s/cancel", c.baseURL, sessionID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
	if err != nil {
		return fmt.Errorf("building cancel request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("notifying cancel: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("cancel request failed (status %d): %s", resp.StatusCode, body)
	}
	return nil
}
