package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/liftlog/internal/models"
)

// CompletionSubmitter is the platform command the reconciler submits to.
type CompletionSubmitter interface {
	SubmitCompletion(ctx context.Context, payload models.SessionCompletionPayload) (*models.CompletedSessionSummary, error)
}

// Ratings are the optional 1–5 post-workout ratings; zero means not given.
type Ratings struct {
	Difficulty int `json:"difficulty,omitempty"`
	Energy     int `json:"energy,omitempty"`
}

func (r Ratings) validate() error {
	if r.Difficulty < 0 || r.Difficulty > 5 {
		return fmt.Errorf("difficulty rating %d out of range 1-5", r.Difficulty)
	}
	if r.Energy < 0 || r.Energy > 5 {
		return fmt.Errorf("energy rating %d out of range 1-5", r.Energy)
	}
	return nil
}

// Reconciler turns an accumulated draft into the single completion payload
// the platform receives. The transformation is pure; the only side effect is
// one POST.
type Reconciler struct {
	api CompletionSubmitter
	log *slog.Logger
}

// NewReconciler creates a reconciler over the given submitter.
func NewReconciler(api CompletionSubmitter, log *slog.Logger) *Reconciler {
	return &Reconciler{api: api, log: log}
}

// BuildCompletionPayload flattens a draft into the server-bound shape.
// Duration is derived here, at submission time, from the recorded start and
// the completion instant; there is no live timer to drift.
func BuildCompletionPayload(draft *models.LocalSessionDraft, completedAt time.Time, ratings Ratings, notes string) models.SessionCompletionPayload {
	payload := models.SessionCompletionPayload{
		TemplateID:      draft.TemplateID,
		CustomerID:      draft.CustomerID,
		StartedAt:       draft.StartedAt,
		CompletedAt:     completedAt,
		DurationMinutes: int(completedAt.Sub(draft.StartedAt) / time.Minute),
		Difficulty:      ratings.Difficulty,
		Energy:          ratings.Energy,
		Notes:           notes,
		Exercises:       make([]models.ExerciseSessionPayload, 0, len(draft.Exercises)),
	}
	if payload.Notes == "" {
		payload.Notes = draft.Notes
	}

	for _, ex := range draft.Exercises {
		exPayload := models.ExerciseSessionPayload{
			TemplateExerciseID: ex.TemplateExerciseID,
			ExerciseID:         ex.ExerciseID,
			OrderIndex:         ex.OrderIndex,
			Status:             ex.Status,
			Notes:              ex.Notes,
			StartedAt:          ex.StartedAt,
			CompletedAt:        ex.CompletedAt,
			Sets:               make([]models.SetPayload, 0, len(ex.Sets)),
		}
		for _, set := range ex.Sets {
			exPayload.Sets = append(exPayload.Sets, models.SetPayload{
				Number:      set.Number,
				Load:        set.Load,
				Reps:        set.Reps,
				RestSeconds: set.RestSeconds,
				Completed:   set.Completed,
				Notes:       set.Notes,
			})
		}
		payload.Exercises = append(payload.Exercises, exPayload)
	}
	return payload
}

// Submit builds the payload and sends it. Any transport or server error
// comes back wrapped in ErrSubmissionFailed; the caller must not discard
// the draft on that path.
func (r *Reconciler) Submit(ctx context.Context, draft *models.LocalSessionDraft, completedAt time.Time, ratings Ratings, notes string) (*models.CompletedSessionSummary, error) {
	if err := ratings.validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSubmissionFailed, err)
	}

	payload := BuildCompletionPayload(draft, completedAt, ratings, notes)
	summary, err := r.api.SubmitCompletion(ctx, payload)
	if err != nil {
		r.log.Warn("completion submission failed",
			"template_id", draft.TemplateID,
			"error", err)
		return nil, fmt.Errorf("%w: %s", ErrSubmissionFailed, err)
	}

	r.log.Info("session completion accepted",
		"session_id", summary.SessionID,
		"duration_minutes", summary.DurationMinutes)
	return summary, nil
}
