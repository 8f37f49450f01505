package models

import "github.com/google/uuid"

// WorkoutTemplate is the coach-authored workout a customer performs.
// Templates are owned by the coaching platform; LiftLog only reads them to
// seed a session draft.
type WorkoutTemplate struct {
	ID           uuid.UUID          `json:"id"`
	Title        string             `json:"title"`
	RoutineID    uuid.UUID          `json:"routine_id"`
	RoutineTitle string             `json:"routine_title"`
	Exercises    []ExerciseTemplate `json:"exercises"`
}

// ExerciseTemplate is one ordered exercise within a workout template.
type ExerciseTemplate struct {
	ID         uuid.UUID `json:"id"`
	ExerciseID uuid.UUID `json:"exercise_id"`
	Name       string    `json:"name"`
	MediaURL   string    `json:"media_url,omitempty"`
	OrderIndex int       `json:"order_index"`
	TargetSets int       `json:"target_sets"`
	TargetReps int       `json:"target_reps"`
	TargetLoad float64   `json:"target_load,omitempty"`
}
