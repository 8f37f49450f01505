package models

import (
	"time"

	"github.com/google/uuid"
)

// Exercise status values within a session draft.
const (
	ExerciseStatusPending    = "pending"
	ExerciseStatusInProgress = "in-progress"
	ExerciseStatusCompleted  = "completed"
	ExerciseStatusSkipped    = "skipped"
)

// LocalSessionDraft is the device's working copy of an in-progress workout
// session. At most one draft exists per customer at any time; it is created
// on session start, mutated as sets are recorded, and destroyed on completion
// or cancellation.
type LocalSessionDraft struct {
	TemplateID    uuid.UUID       `json:"template_id"`
	TemplateTitle string          `json:"template_title"`
	RoutineID     uuid.UUID       `json:"routine_id"`
	RoutineTitle  string          `json:"routine_title"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	StartedAt     time.Time       `json:"started_at"`
	Notes         string          `json:"notes,omitempty"`
	Exercises     []ExerciseDraft `json:"exercises"`
}

// ExerciseDraft tracks one exercise of the active session.
type ExerciseDraft struct {
	TemplateExerciseID uuid.UUID  `json:"template_exercise_id"`
	ExerciseID         uuid.UUID  `json:"exercise_id"`
	Name               string     `json:"name"`
	MediaURL           string     `json:"media_url,omitempty"`
	OrderIndex         int        `json:"order_index"`
	Status             string     `json:"status"`
	Notes              string     `json:"notes,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty"`
	Sets               []SetDraft `json:"sets"`
}

// SetDraft is one recorded (or started-and-abandoned) set. Set numbers are
// 1-based, unique within their exercise, and never renumbered: an abandoned
// set keeps its slot.
type SetDraft struct {
	Number      int        `json:"number"`
	Load        *float64   `json:"load,omitempty"`
	Reps        *int       `json:"reps,omitempty"`
	RestSeconds *int       `json:"rest_seconds,omitempty"`
	Completed   bool       `json:"completed"`
	Notes       string     `json:"notes,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// NewSessionDraft seeds a draft from a workout template. Exercises start in
// the pending state with no sets recorded.
func NewSessionDraft(tpl WorkoutTemplate, customerID uuid.UUID, startedAt time.Time) *LocalSessionDraft {
	draft := &LocalSessionDraft{
		TemplateID:    tpl.ID,
		TemplateTitle: tpl.Title,
		RoutineID:     tpl.RoutineID,
		RoutineTitle:  tpl.RoutineTitle,
		CustomerID:    customerID,
		StartedAt:     startedAt,
		Exercises:     make([]ExerciseDraft, 0, len(tpl.Exercises)),
	}
	for _, ex := range tpl.Exercises {
		draft.Exercises = append(draft.Exercises, ExerciseDraft{
			TemplateExerciseID: ex.ID,
			ExerciseID:         ex.ExerciseID,
			Name:               ex.Name,
			MediaURL:           ex.MediaURL,
			OrderIndex:         ex.OrderIndex,
			Status:             ExerciseStatusPending,
		})
	}
	return draft
}

// Exercise returns the draft entry for the given exercise ID, or nil.
func (d *LocalSessionDraft) Exercise(exerciseID uuid.UUID) *ExerciseDraft {
	for i := range d.Exercises {
		if d.Exercises[i].ExerciseID == exerciseID {
			return &d.Exercises[i]
		}
	}
	return nil
}

// Set returns the set with the given 1-based number, or nil.
func (e *ExerciseDraft) Set(number int) *SetDraft {
	for i := range e.Sets {
		if e.Sets[i].Number == number {
			return &e.Sets[i]
		}
	}
	return nil
}

// Volume returns load × reps for the set. Bodyweight or time-based sets may
// record neither; their volume is zero, not an error.
func (s SetDraft) Volume() float64 {
	if s.Load == nil || s.Reps == nil {
		return 0
	}
	return *s.Load * float64(*s.Reps)
}
