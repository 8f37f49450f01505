package mcp

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/claude/liftlog/internal/models"
)

// sessionView mirrors the HTTP API's session payload so both surfaces report
// the same shape.
type sessionView struct {
	Session   models.ActiveSessionSnapshot `json:"session"`
	Freshness string                       `json:"freshness"`
	State     string                       `json:"state"`
}

// draftSummary condenses an in-progress draft for assistant consumption.
type draftSummary struct {
	TemplateID    string  `json:"template_id"`
	TemplateTitle string  `json:"template_title"`
	StartedAt     string  `json:"started_at"`
	ExerciseCount int     `json:"exercise_count"`
	CompletedSets int     `json:"completed_sets"`
	TotalVolume   float64 `json:"total_volume"`
}

func summarizeDraft(d *models.LocalSessionDraft) draftSummary {
	s := draftSummary{
		TemplateID:    d.TemplateID.String(),
		TemplateTitle: d.TemplateTitle,
		StartedAt:     d.StartedAt.Format(time.RFC3339),
		ExerciseCount: len(d.Exercises),
	}
	for _, ex := range d.Exercises {
		for _, set := range ex.Sets {
			if set.Completed {
				s.CompletedSets++
				s.TotalVolume += set.Volume()
			}
		}
	}
	return s
}

// --- Tool definitions ---

var toolGetActiveSession = mcp.NewTool("get_active_session",
	mcp.WithDescription("Get the customer's active workout session, if any. The freshness field tells you whether the value is server truth ('authoritative'), a local action awaiting confirmation ('optimistic'), due for a refresh ('stale'), or held during a cancellation window ('suppressed')."),
)

var toolGetSessionDraft = mcp.NewTool("get_session_draft",
	mcp.WithDescription("Get the in-progress workout draft: exercises, recorded sets, and volume so far. Use 'detail' for the full set-by-set draft."),
	mcp.WithString("detail", mcp.Description("'summary' (default) or 'full'"), mcp.Enum("summary", "full")),
)

var toolGetSessionState = mcp.NewTool("get_session_state",
	mcp.WithDescription("Get the session lifecycle state: no-session, active, cancelling, or completing."),
)

// --- Tool handlers ---

func (h *handlers) getActiveSession(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	snap, fresh := h.src.ReadSnapshot(ctx)
	view := sessionView{Session: snap, Freshness: fresh.String(), State: string(h.src.State())}
	result, err := mcp.NewToolResultJSON(view)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionDraft(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	draft := h.src.CurrentDraft()
	if draft == nil {
		return mcp.NewToolResultText("no workout in progress"), nil
	}

	var payload any = summarizeDraft(draft)
	if req.GetString("detail", "summary") == "full" {
		payload = draft
	}

	result, err := mcp.NewToolResultJSON(payload)
	if err != nil {
		h.log.Error("mcp get_session_draft", "error", err)
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func (h *handlers) getSessionState(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, fresh := h.src.ReadSnapshot(ctx)
	result, err := mcp.NewToolResultJSON(map[string]string{
		"state":     string(h.src.State()),
		"freshness": fresh.String(),
	})
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
