package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionCompletionPayload is the flattened, server-bound shape built from a
// LocalSessionDraft at completion time. It is derived once at submission and
// never persisted on the device.
type SessionCompletionPayload struct {
	TemplateID      uuid.UUID                `json:"template_id"`
	CustomerID      uuid.UUID                `json:"customer_id"`
	StartedAt       time.Time                `json:"started_at"`
	CompletedAt     time.Time                `json:"completed_at"`
	DurationMinutes int                      `json:"duration_minutes"`
	Difficulty      int                      `json:"difficulty,omitempty"`
	Energy          int                      `json:"energy,omitempty"`
	Notes           string                   `json:"notes,omitempty"`
	Exercises       []ExerciseSessionPayload `json:"exercises"`
}

// ExerciseSessionPayload is one exercise of the completion payload.
type ExerciseSessionPayload struct {
	TemplateExerciseID uuid.UUID    `json:"template_exercise_id"`
	ExerciseID         uuid.UUID    `json:"exercise_id"`
	OrderIndex         int          `json:"order_index"`
	Status             string       `json:"status"`
	Notes              string       `json:"notes,omitempty"`
	StartedAt          *time.Time   `json:"started_at,omitempty"`
	CompletedAt        *time.Time   `json:"completed_at,omitempty"`
	Sets               []SetPayload `json:"sets"`
}

// SetPayload is one set of the completion payload.
type SetPayload struct {
	Number      int      `json:"number"`
	Load        *float64 `json:"load,omitempty"`
	Reps        *int     `json:"reps,omitempty"`
	RestSeconds *int     `json:"rest_seconds,omitempty"`
	Completed   bool     `json:"completed"`
	Notes       string   `json:"notes,omitempty"`
}

// CompletedSessionSummary is what the platform returns after accepting a
// completion payload.
type CompletedSessionSummary struct {
	SessionID       uuid.UUID `json:"session_id"`
	TemplateID      uuid.UUID `json:"template_id"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationMinutes int       `json:"duration_minutes"`
	TotalVolume     float64   `json:"total_volume"`
}
