// Package events carries session lifecycle notifications between the
// components that trigger cancellation and every cache consumer, replacing
// cross-context polling of durable flags. Suppression still survives a full
// process restart because the arbiter re-checks the stored flag at startup.
package events

import "time"

// Event is a lifecycle notification. Types follow the "category.action"
// convention, e.g. "session.cancelled".
type Event interface {
	EventType() string
	Timestamp() time.Time
}

type base struct {
	kind string
	at   time.Time
}

func (b base) EventType() string    { return b.kind }
func (b base) Timestamp() time.Time { return b.at }

func newBase(kind string) base {
	return base{kind: kind, at: time.Now()}
}

// Event type identifiers.
const (
	TypeSessionStarted     = "session.started"
	TypeSessionCancelled   = "session.cancelled"
	TypeCancelConfirmed    = "session.cancel_confirmed"
	TypeSessionCompleted   = "session.completed"
	TypeSuppressionEngaged = "suppression.engaged"
	TypeSuppressionCleared = "suppression.cleared"
)

// SessionStarted is published when a local session start succeeds.
type SessionStarted struct {
	base
	TemplateID string
}

func NewSessionStarted(templateID string) SessionStarted {
	return SessionStarted{base: newBase(TypeSessionStarted), TemplateID: templateID}
}

// SessionCancelled is published when the user cancels the active session.
type SessionCancelled struct {
	base
	TemplateID string
	SessionID  string
}

func NewSessionCancelled(templateID, sessionID string) SessionCancelled {
	return SessionCancelled{base: newBase(TypeSessionCancelled), TemplateID: templateID, SessionID: sessionID}
}

// CancelConfirmed reports that the platform acknowledged a cancellation,
// allowing the suppression window to clear early.
type CancelConfirmed struct {
	base
	SessionID string
}

func NewCancelConfirmed(sessionID string) CancelConfirmed {
	return CancelConfirmed{base: newBase(TypeCancelConfirmed), SessionID: sessionID}
}

// SessionCompleted is published after the platform accepts a completion
// payload.
type SessionCompleted struct {
	base
	TemplateID string
	SessionID  string
}

func NewSessionCompleted(templateID, sessionID string) SessionCompleted {
	return SessionCompleted{base: newBase(TypeSessionCompleted), TemplateID: templateID, SessionID: sessionID}
}

// SuppressionEngaged is published when the cancellation arbiter disables
// cache refresh.
type SuppressionEngaged struct {
	base
	Until time.Time
}

func NewSuppressionEngaged(until time.Time) SuppressionEngaged {
	return SuppressionEngaged{base: newBase(TypeSuppressionEngaged), Until: until}
}

// SuppressionCleared is published when normal refresh policy resumes.
type SuppressionCleared struct {
	base
}

func NewSuppressionCleared() SuppressionCleared {
	return SuppressionCleared{base: newBase(TypeSuppressionCleared)}
}
