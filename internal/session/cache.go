package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

// DefaultOptimisticHold is how long a locally forced snapshot outranks
// authoritative refresh results before server truth wins again.
const DefaultOptimisticHold = 30 * time.Second

// Freshness describes what a cache read is backed by.
type Freshness int

const (
	// FreshnessAuthoritative: the value came from the platform and nothing
	// has invalidated it since.
	FreshnessAuthoritative Freshness = iota
	// FreshnessOptimistic: the value was forced by a local action and has not
	// yet been reconciled against server truth.
	FreshnessOptimistic
	// FreshnessStale: the value is the best known one but a refresh is due.
	FreshnessStale
	// FreshnessSuppressed: the cancellation arbiter is holding refresh off
	// and the read returned the forced no-session value. Not a fetch failure.
	FreshnessSuppressed
)

func (f Freshness) String() string {
	switch f {
	case FreshnessAuthoritative:
		return "authoritative"
	case FreshnessOptimistic:
		return "optimistic"
	case FreshnessStale:
		return "stale"
	case FreshnessSuppressed:
		return "suppressed"
	}
	return "unknown"
}

// SnapshotSource is the platform query the cache refreshes from.
type SnapshotSource interface {
	FetchActiveSession(ctx context.Context, customerID uuid.UUID) (models.ActiveSessionSnapshot, error)
}

// heldValue is the cache's tagged two-phase value: authoritative server
// truth, or an optimistic local override that wins until its expiry.
type heldValue struct {
	snap       models.ActiveSessionSnapshot
	optimistic bool
	until      time.Time
}

// resolve decides which value the cache holds after an authoritative
// snapshot arrives: an unexpired optimistic value wins, anything else loses
// to server truth.
func resolve(cur heldValue, incoming models.ActiveSessionSnapshot, now time.Time) heldValue {
	if cur.optimistic && now.Before(cur.until) {
		return cur
	}
	return heldValue{snap: incoming}
}

// Cache is the shared active-session query cache. Reads never block on the
// network; every update is a single atomic assignment under the mutex, so
// readers never observe a half-applied value. A generation counter discards
// in-flight refresh responses that were superseded by a forced value or by
// suppression, even when the originating request started earlier.
type Cache struct {
	source     SnapshotSource
	customerID uuid.UUID
	log        *slog.Logger
	now        func() time.Time

	mu         sync.Mutex
	val        heldValue
	hasValue   bool
	stale      bool
	suspended  bool
	gen        uint64
	refreshing bool
}

// NewCache creates a cache with no held value; the first read kicks off a
// refresh.
func NewCache(source SnapshotSource, customerID uuid.UUID, log *slog.Logger) *Cache {
	return &Cache{
		source:     source,
		customerID: customerID,
		log:        log,
		now:        time.Now,
		stale:      true,
	}
}

// Read returns the best known snapshot immediately. A stale or missing value
// triggers an asynchronous refresh whose result lands later; during a
// suppression window the forced no-session value is returned and nothing is
// scheduled.
func (c *Cache) Read(ctx context.Context) (models.ActiveSessionSnapshot, Freshness) {
	c.mu.Lock()

	if c.suspended {
		snap := c.val.snap
		c.mu.Unlock()
		return snap, FreshnessSuppressed
	}

	now := c.now()
	if c.val.optimistic && !now.Before(c.val.until) {
		// Optimistic hold expired without an authoritative overwrite.
		c.stale = true
	}

	snap := c.val.snap
	fresh := FreshnessAuthoritative
	switch {
	case c.stale || !c.hasValue:
		fresh = FreshnessStale
	case c.val.optimistic:
		fresh = FreshnessOptimistic
	}

	needsRefresh := (c.stale || !c.hasValue) && !c.refreshing
	if needsRefresh {
		c.refreshing = true
	}
	c.mu.Unlock()

	if needsRefresh {
		go func() {
			if _, err := c.refresh(ctx); err != nil {
				c.log.Warn("background active-session refresh failed", "error", err)
			}
			c.mu.Lock()
			c.refreshing = false
			c.mu.Unlock()
		}()
	}

	return snap, fresh
}

// Refresh forces a server round-trip and applies the result, unless the
// result has been superseded in flight. During suppression no request is
// made and the forced value is returned.
func (c *Cache) Refresh(ctx context.Context) (models.ActiveSessionSnapshot, error) {
	return c.refresh(ctx)
}

func (c *Cache) refresh(ctx context.Context) (models.ActiveSessionSnapshot, error) {
	c.mu.Lock()
	if c.suspended {
		snap := c.val.snap
		c.mu.Unlock()
		return snap, nil
	}
	startGen := c.gen
	c.mu.Unlock()

	incoming, err := c.source.FetchActiveSession(ctx, c.customerID)

	c.mu.Lock()
	defer c.mu.Unlock()

	if err != nil {
		// Keep the last known value; it stays stale so the next read retries.
		return c.val.snap, err
	}

	if c.suspended || c.gen != startGen {
		c.log.Debug("discarding superseded active-session refresh",
			"started_gen", startGen, "gen", c.gen, "suspended", c.suspended)
		return c.val.snap, nil
	}

	c.val = resolve(c.val, incoming, c.now())
	c.hasValue = true
	c.stale = false
	return c.val.snap, nil
}

// ForceValue overwrites the cache without a round-trip. The value is tagged
// optimistic and outranks authoritative refreshes for holdFor; any refresh
// already in flight is discarded.
func (c *Cache) ForceValue(snap models.ActiveSessionSnapshot, holdFor time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.gen++
	c.val = heldValue{snap: snap, optimistic: true, until: c.now().Add(holdFor)}
	c.hasValue = true
	c.stale = false
}

// Invalidate marks the held value stale so the next read schedules a
// refresh. In-flight refreshes are still applied; invalidation only affects
// staleness, not correctness of arriving data.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stale = true
}

// Suspend disables the cache's refresh policy entirely: automatic triggers
// stop scheduling, explicit refreshes short-circuit, and in-flight responses
// are discarded on arrival. Used by the cancellation arbiter.
func (c *Cache) Suspend() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = true
	c.gen++
}

// Resume re-enables refresh policy and invalidates so the next read picks up
// true server state.
func (c *Cache) Resume() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspended = false
	c.stale = true
}

// Suspended reports whether the refresh policy is currently suspended.
func (c *Cache) Suspended() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.suspended
}

// Poke is the passive refresh trigger for view-visibility and similar UI
// events. It schedules an asynchronous refresh unless one is already running
// or the policy is suspended.
func (c *Cache) Poke(ctx context.Context) {
	c.mu.Lock()
	if c.suspended || c.refreshing {
		c.mu.Unlock()
		return
	}
	c.refreshing = true
	c.mu.Unlock()

	go func() {
		if _, err := c.refresh(ctx); err != nil {
			c.log.Warn("triggered active-session refresh failed", "error", err)
		}
		c.mu.Lock()
		c.refreshing = false
		c.mu.Unlock()
	}()
}

// AutoRefresh runs the periodic background refresh until ctx is cancelled.
func (c *Cache) AutoRefresh(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Poke(ctx)
			case <-ctx.Done():
				return
			}
		}
	}()
}
