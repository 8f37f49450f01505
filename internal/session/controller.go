package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/events"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// State of the session lifecycle machine.
type State string

const (
	StateNoSession  State = "no-session"
	StateActive     State = "active"
	StateCancelling State = "cancelling"
	StateCompleting State = "completing"
)

// DraftStore is the durable slot for the in-progress session draft.
type DraftStore interface {
	SaveDraft(draft *models.LocalSessionDraft) error
	LoadDraft(customerID, templateID uuid.UUID) (*models.LocalSessionDraft, error)
	LoadCurrent(customerID uuid.UUID) (*models.LocalSessionDraft, error)
	ClearDraft(customerID, templateID uuid.UUID) error
}

// CancelNotifier delivers the best-effort abandoned-session notification.
type CancelNotifier interface {
	NotifyCancel(ctx context.Context, sessionID uuid.UUID) error
}

// SetUpdate carries the recorded data for one set.
type SetUpdate struct {
	Load        *float64 `json:"load,omitempty"`
	Reps        *int     `json:"reps,omitempty"`
	RestSeconds *int     `json:"rest_seconds,omitempty"`
	Completed   bool     `json:"completed"`
	Notes       string   `json:"notes,omitempty"`
}

// Controller is the session lifecycle state machine and the single source of
// truth the UI consumes. All mutations of the draft store and cache flow
// through it.
type Controller struct {
	drafts     DraftStore
	cache      *Cache
	arbiter    *Arbiter
	reconciler *Reconciler
	notifier   CancelNotifier
	bus        *events.Bus
	customerID uuid.UUID
	log        *slog.Logger
	now        func() time.Time

	mu         sync.Mutex
	state      State
	draft      *models.LocalSessionDraft
	sessionID  uuid.UUID
	submitting bool
}

// NewController derives the initial state: a stored draft means an active
// session to resume; otherwise the cache's current read decides. Resumption
// always re-reads storage rather than trusting anything in memory.
func NewController(ctx context.Context, drafts DraftStore, cache *Cache, arbiter *Arbiter, reconciler *Reconciler, notifier CancelNotifier, bus *events.Bus, customerID uuid.UUID, log *slog.Logger) *Controller {
	c := &Controller{
		drafts:     drafts,
		cache:      cache,
		arbiter:    arbiter,
		reconciler: reconciler,
		notifier:   notifier,
		bus:        bus,
		customerID: customerID,
		log:        log,
		now:        time.Now,
		state:      StateNoSession,
	}

	draft, err := drafts.LoadCurrent(customerID)
	if err != nil {
		log.Warn("cold-start draft load failed, starting without a session", "error", err)
		return c
	}
	if draft != nil {
		c.draft = draft
		c.sessionID = uuid.New()
		c.state = StateActive
		log.Info("resuming active session from stored draft",
			"template_id", draft.TemplateID, "started_at", draft.StartedAt)
		return c
	}

	if snap, _ := cache.Read(ctx); snap.Present {
		c.sessionID = snap.Session.ID
		c.state = StateActive
		log.Info("platform reports an active session with no local draft",
			"session_id", snap.Session.ID)
	}
	return c
}

// State returns the current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// CurrentDraft returns the in-progress draft, or nil.
func (c *Controller) CurrentDraft() *models.LocalSessionDraft {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// ReadSnapshot exposes the cache's non-blocking read for UI consumers.
func (c *Controller) ReadSnapshot(ctx context.Context) (models.ActiveSessionSnapshot, Freshness) {
	return c.cache.Read(ctx)
}

// Start begins a session from a workout template. It is allowed only with no
// session anywhere: no lifecycle state, no stored draft, no server-reported
// active session. The cache is optimistically forced to "active" before the
// server knows anything.
func (c *Controller) Start(ctx context.Context, tpl models.WorkoutTemplate) (*models.LocalSessionDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateNoSession {
		return nil, fmt.Errorf("%w: lifecycle state is %s", ErrStartRejected, c.state)
	}
	if existing, err := c.drafts.LoadCurrent(c.customerID); err != nil {
		return nil, fmt.Errorf("checking for existing draft: %w", err)
	} else if existing != nil {
		return nil, fmt.Errorf("%w: a draft for template %s exists", ErrStartRejected, existing.TemplateID)
	}
	if snap, _ := c.cache.Read(ctx); snap.Present {
		return nil, fmt.Errorf("%w: platform reports session %s in progress", ErrStartRejected, snap.Session.ID)
	}

	draft := models.NewSessionDraft(tpl, c.customerID, c.now())
	if err := c.drafts.SaveDraft(draft); err != nil {
		return nil, fmt.Errorf("persisting new draft: %w", err)
	}

	c.sessionID = uuid.New()
	c.cache.ForceValue(models.SnapshotFromDraft(draft, c.sessionID), DefaultOptimisticHold)
	c.draft = draft
	c.state = StateActive

	c.log.Info("session started", "template_id", tpl.ID, "title", tpl.Title)
	c.bus.Publish(events.NewSessionStarted(tpl.ID.String()))
	return draft, nil
}

// RecordSet records data for one set of one exercise, keyed by exercise id
// and 1-based set number. A set that was started and abandoned keeps its
// slot; numbers are never reassigned. The draft is persisted before this
// returns.
func (c *Controller) RecordSet(exerciseID uuid.UUID, setNumber int, update SetUpdate) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return fmt.Errorf("%w: lifecycle state is %s", ErrNoActiveSession, c.state)
	}
	if c.draft == nil {
		return fmt.Errorf("%w: session has no local draft to record into", ErrNoActiveSession)
	}
	if setNumber < 1 {
		return fmt.Errorf("set number %d must be 1-based", setNumber)
	}

	ex := c.draft.Exercise(exerciseID)
	if ex == nil {
		return fmt.Errorf("exercise %s is not part of this session", exerciseID)
	}

	now := c.now()
	if ex.Status == models.ExerciseStatusPending {
		ex.Status = models.ExerciseStatusInProgress
		ex.StartedAt = &now
	}

	set := ex.Set(setNumber)
	if set == nil {
		ex.Sets = append(ex.Sets, models.SetDraft{Number: setNumber, StartedAt: &now})
		sort.Slice(ex.Sets, func(i, j int) bool { return ex.Sets[i].Number < ex.Sets[j].Number })
		set = ex.Set(setNumber)
	}

	set.Load = update.Load
	set.Reps = update.Reps
	set.RestSeconds = update.RestSeconds
	set.Notes = update.Notes
	set.Completed = update.Completed
	if update.Completed && set.CompletedAt == nil {
		set.CompletedAt = &now
	}

	if err := c.drafts.SaveDraft(c.draft); err != nil {
		return fmt.Errorf("persisting recorded set: %w", err)
	}
	return nil
}

// Cancel abandons the active session. The local clear runs first; only a
// cancellation that actually happened engages the suppression window, and it
// is engaged before the state becomes no-session so no refresh lands in
// between. The server is notified best-effort, never awaited.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateActive {
		return fmt.Errorf("%w: lifecycle state is %s", ErrNoActiveSession, c.state)
	}

	c.state = StateCancelling
	templateID := uuid.Nil
	if c.draft != nil {
		templateID = c.draft.TemplateID
	}

	if c.draft != nil {
		if err := c.drafts.ClearDraft(c.customerID, templateID); err != nil {
			c.state = StateActive
			return fmt.Errorf("clearing cancelled draft: %w", err)
		}
	}

	c.arbiter.Engage()

	sessionID := c.sessionID
	go func() {
		if err := c.notifier.NotifyCancel(context.WithoutCancel(ctx), sessionID); err != nil {
			c.log.Warn("best-effort cancel notification failed", "session_id", sessionID, "error", err)
		}
	}()

	c.draft = nil
	c.state = StateNoSession
	c.log.Info("session cancelled", "template_id", templateID)
	c.bus.Publish(events.NewSessionCancelled(templateID.String(), sessionID.String()))
	return nil
}

// Complete submits the accumulated draft as one completion payload. On
// failure the controller stays in Completing with the draft intact and the
// caller may call Complete again; nothing is cleared until the platform
// acknowledges. At most one submission is ever in flight: the endpoint has
// no idempotency keys, so concurrent calls are rejected rather than racing
// to a duplicate POST.
func (c *Controller) Complete(ctx context.Context, ratings Ratings, notes string) (*models.CompletedSessionSummary, error) {
	c.mu.Lock()
	if c.state != StateActive && c.state != StateCompleting {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: lifecycle state is %s", ErrNoActiveSession, c.state)
	}
	if c.submitting {
		c.mu.Unlock()
		return nil, ErrCompletionInFlight
	}
	if c.draft == nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("%w: session has no local draft to submit", ErrNoActiveSession)
	}
	c.state = StateCompleting
	c.submitting = true
	draft := c.draft
	completedAt := c.now()
	c.mu.Unlock()

	summary, err := c.reconciler.Submit(ctx, draft, completedAt, ratings, notes)

	c.mu.Lock()
	c.submitting = false
	if err != nil {
		// Draft retained; state remains Completing for a caller-driven retry.
		c.mu.Unlock()
		return nil, err
	}
	defer c.mu.Unlock()

	if err := c.drafts.ClearDraft(c.customerID, draft.TemplateID); err != nil {
		c.log.Warn("failed to clear draft after accepted completion", "error", err)
	}
	c.draft = nil
	c.state = StateNoSession
	// Zero hold: the forced no-session value is immediately outranked by the
	// authoritative refresh the invalidation schedules.
	c.cache.ForceValue(models.NoActiveSession(), 0)
	c.cache.Invalidate()

	c.log.Info("session completed", "template_id", draft.TemplateID, "session_id", summary.SessionID)
	c.bus.Publish(events.NewSessionCompleted(draft.TemplateID.String(), summary.SessionID.String()))
	return summary, nil
}
