package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/events"
	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// FlagStore is the durable slot for the suppression flag.
type FlagStore interface {
	SaveSuppression(customerID uuid.UUID, expiresAt time.Time) error
	LoadSuppression(customerID uuid.UUID) (time.Time, bool, error)
	ClearSuppression(customerID uuid.UUID) error
}

// Arbiter owns the cancellation suppression window. Cancelling a session
// races against background refreshes that may still carry the stale "still
// active" server view; the arbiter suspends the cache's refresh policy
// before any further refresh can be scheduled, forces the no-session value,
// and persists the window so a restart inside it stays suppressed.
//
// The window always expires on schedule, online or not; a cancel-confirmed
// event from the platform clears it early.
type Arbiter struct {
	flags      FlagStore
	cache      *Cache
	bus        *events.Bus
	customerID uuid.UUID
	window     time.Duration
	log        *slog.Logger
	now        func() time.Time

	mu     sync.Mutex
	active bool
	timer  *time.Timer
}

// NewArbiter wires the arbiter to its cache and bus. It listens for
// cancel-confirmed events to end suppression early.
func NewArbiter(flags FlagStore, cache *Cache, bus *events.Bus, customerID uuid.UUID, window time.Duration, log *slog.Logger) *Arbiter {
	a := &Arbiter{
		flags:      flags,
		cache:      cache,
		bus:        bus,
		customerID: customerID,
		window:     window,
		log:        log,
		now:        time.Now,
	}
	bus.Subscribe(events.TypeCancelConfirmed, func(events.Event) {
		a.clear("cancel confirmed")
	})
	return a
}

// Engage starts a suppression window. The flag is persisted before the cache
// is touched so a restart mid-window finds it; a persistence failure is
// logged but does not weaken in-memory suppression.
func (a *Arbiter) Engage() {
	a.mu.Lock()

	until := a.now().Add(a.window)
	if err := a.flags.SaveSuppression(a.customerID, until); err != nil {
		a.log.Warn("failed to persist suppression flag", "error", err)
	}

	a.engageLocked(until)
	a.mu.Unlock()

	// Published unlocked: handlers run synchronously and may call back in.
	a.bus.Publish(events.NewSuppressionEngaged(until))
}

// Restore re-arms suppression from the durable flag at process startup. An
// expired leftover flag is cleaned up instead.
func (a *Arbiter) Restore() {
	a.mu.Lock()

	until, ok, err := a.flags.LoadSuppression(a.customerID)
	if err != nil {
		a.log.Warn("failed to load suppression flag", "error", err)
		a.mu.Unlock()
		return
	}
	if !ok {
		a.mu.Unlock()
		return
	}
	if !until.After(a.now()) {
		if err := a.flags.ClearSuppression(a.customerID); err != nil {
			a.log.Warn("failed to clear expired suppression flag", "error", err)
		}
		a.mu.Unlock()
		return
	}

	a.log.Info("restoring cancellation suppression from durable flag", "until", until)
	a.engageLocked(until)
	a.mu.Unlock()

	a.bus.Publish(events.NewSuppressionEngaged(until))
}

// engageLocked arms the window. Callers publish the engaged event after
// releasing the mutex.
func (a *Arbiter) engageLocked(until time.Time) {
	if a.timer != nil {
		a.timer.Stop()
	}

	a.cache.Suspend()
	a.cache.ForceValue(models.NoActiveSession(), until.Sub(a.now()))
	a.active = true
	a.timer = time.AfterFunc(until.Sub(a.now()), func() {
		a.clear("window elapsed")
	})
}

// Suppressed reports whether a window is currently active.
func (a *Arbiter) Suppressed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.active
}

// clear ends the window: durable flag removed, refresh policy resumed, cache
// invalidated so the next read fetches true server state.
func (a *Arbiter) clear(reason string) {
	a.mu.Lock()

	if !a.active {
		a.mu.Unlock()
		return
	}
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.active = false

	if err := a.flags.ClearSuppression(a.customerID); err != nil {
		a.log.Warn("failed to clear suppression flag", "error", err)
	}

	a.cache.Resume()
	a.log.Info("cancellation suppression cleared", "reason", reason)
	a.mu.Unlock()

	a.bus.Publish(events.NewSuppressionCleared())
}
