package models

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatusInProgress is the only status an *active* session can carry;
// completed and cancelled sessions are never active.
const SessionStatusInProgress = "in-progress"

// ActiveSessionSnapshot is the coaching platform's answer to "does this
// customer have an active session." The server owns it; the device holds a
// read-only cached copy.
type ActiveSessionSnapshot struct {
	Present bool           `json:"present"`
	Session *ActiveSession `json:"session,omitempty"`
}

// ActiveSession describes the one in-progress session, when present.
type ActiveSession struct {
	ID            uuid.UUID `json:"id"`
	TemplateID    uuid.UUID `json:"template_id"`
	TemplateTitle string    `json:"template_title"`
	RoutineID     uuid.UUID `json:"routine_id"`
	RoutineTitle  string    `json:"routine_title"`
	CustomerID    uuid.UUID `json:"customer_id"`
	StartedAt     time.Time `json:"started_at"`
	Status        string    `json:"status"`
}

// NoActiveSession is the snapshot for a customer with nothing in progress.
func NoActiveSession() ActiveSessionSnapshot {
	return ActiveSessionSnapshot{Present: false}
}

// SnapshotFromDraft builds the optimistic "active" snapshot a local start
// forces into the cache before the server has confirmed anything.
func SnapshotFromDraft(d *LocalSessionDraft, sessionID uuid.UUID) ActiveSessionSnapshot {
	return ActiveSessionSnapshot{
		Present: true,
		Session: &ActiveSession{
			ID:            sessionID,
			TemplateID:    d.TemplateID,
			TemplateTitle: d.TemplateTitle,
			RoutineID:     d.RoutineID,
			RoutineTitle:  d.RoutineTitle,
			CustomerID:    d.CustomerID,
			StartedAt:     d.StartedAt,
			Status:        SessionStatusInProgress,
		},
	}
}
