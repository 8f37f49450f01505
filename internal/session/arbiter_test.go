package session

import (
	"context"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/events"
	"github.com/google/uuid"
)

type arbiterRig struct {
	customerID uuid.UUID
	src        *fakeSource
	flags      *memFlags
	bus        *events.Bus
	cache      *Cache
	arbiter    *Arbiter
}

func newArbiterRig(t *testing.T, window time.Duration) *arbiterRig {
	t.Helper()
	log := discardLog()
	r := &arbiterRig{
		customerID: uuid.New(),
		flags:      newMemFlags(),
		bus:        events.NewBus(log),
	}
	r.src = &fakeSource{snap: activeSnapshot(r.customerID, uuid.New())}
	r.cache = NewCache(r.src, r.customerID, log)
	r.arbiter = NewArbiter(r.flags, r.cache, r.bus, r.customerID, window, log)
	return r
}

// TestEngageForcesNoSession verifies that inside the window every read and
// refresh yields "no active session" even though the server still reports
// the session as active, and that no server call is made.
func TestEngageForcesNoSession(t *testing.T) {
	r := newArbiterRig(t, time.Minute)
	ctx := context.Background()

	if _, err := r.cache.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	before := r.src.callCount()

	r.arbiter.Engage()

	if !r.arbiter.Suppressed() {
		t.Fatal("arbiter not suppressed after engage")
	}
	snap, fresh := r.cache.Read(ctx)
	if snap.Present {
		t.Error("read inside window reported an active session")
	}
	if fresh != FreshnessSuppressed {
		t.Errorf("freshness = %v, want suppressed", fresh)
	}
	if snap, _ := r.cache.Refresh(ctx); snap.Present {
		t.Error("refresh inside window reported an active session")
	}
	if r.src.callCount() != before {
		t.Error("server was contacted during suppression")
	}

	// The flag is durable, not just in-memory.
	if _, ok, _ := r.flags.LoadSuppression(r.customerID); !ok {
		t.Error("suppression flag not persisted")
	}
}

// TestWindowElapsesOnSchedule verifies suppression clears by itself after
// the window, after which refresh reflects true server state.
func TestWindowElapsesOnSchedule(t *testing.T) {
	r := newArbiterRig(t, 60*time.Millisecond)
	ctx := context.Background()

	r.arbiter.Engage()
	waitFor(t, time.Second, func() bool { return !r.arbiter.Suppressed() })

	if _, ok, _ := r.flags.LoadSuppression(r.customerID); ok {
		t.Error("durable flag not cleared after window elapsed")
	}

	snap, err := r.cache.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh after window: %v", err)
	}
	if !snap.Present {
		t.Error("refresh after window should reflect true server state")
	}
}

// TestCancelConfirmedClearsEarly verifies a platform acknowledgment ends a
// long window immediately.
func TestCancelConfirmedClearsEarly(t *testing.T) {
	r := newArbiterRig(t, time.Hour)

	r.arbiter.Engage()
	r.bus.Publish(events.NewCancelConfirmed(uuid.NewString()))

	if r.arbiter.Suppressed() {
		t.Error("suppression survived a cancel-confirmed event")
	}
	if _, ok, _ := r.flags.LoadSuppression(r.customerID); ok {
		t.Error("durable flag survived a cancel-confirmed event")
	}
	if r.cache.Suspended() {
		t.Error("cache still suspended after early clear")
	}
}

// TestSuppressionClearedEventPublished verifies consumers hear about both
// edges of the window.
func TestSuppressionClearedEventPublished(t *testing.T) {
	r := newArbiterRig(t, 40*time.Millisecond)

	var engaged, cleared int
	r.bus.Subscribe(events.TypeSuppressionEngaged, func(events.Event) { engaged++ })
	r.bus.Subscribe(events.TypeSuppressionCleared, func(events.Event) { cleared++ })

	r.arbiter.Engage()
	if engaged != 1 {
		t.Errorf("engaged events = %d, want 1", engaged)
	}
	waitFor(t, time.Second, func() bool { return cleared == 1 })
}

// TestSuppressionEventHandlersMayReadBack verifies handlers of the window's
// edge events can query the arbiter during dispatch. Events are published
// outside the arbiter's lock; a handler calling back in must not deadlock.
func TestSuppressionEventHandlersMayReadBack(t *testing.T) {
	r := newArbiterRig(t, 40*time.Millisecond)

	engagedSeen := make(chan bool, 1)
	clearedSeen := make(chan bool, 1)
	r.bus.Subscribe(events.TypeSuppressionEngaged, func(events.Event) {
		engagedSeen <- r.arbiter.Suppressed()
	})
	r.bus.Subscribe(events.TypeSuppressionCleared, func(events.Event) {
		clearedSeen <- !r.arbiter.Suppressed()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.arbiter.Engage()
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Engage blocked dispatching its own event")
	}
	if !<-engagedSeen {
		t.Error("engaged handler did not observe an active window")
	}

	select {
	case ok := <-clearedSeen:
		if !ok {
			t.Error("cleared handler did not observe the window gone")
		}
	case <-time.After(time.Second):
		t.Fatal("window did not clear")
	}
}

// TestRestoreReArmsFromDurableFlag verifies a restart inside the window
// resumes suppression for the remainder, then clears on schedule.
func TestRestoreReArmsFromDurableFlag(t *testing.T) {
	r := newArbiterRig(t, time.Hour)
	ctx := context.Background()

	// A previous process persisted the flag and died.
	if err := r.flags.SaveSuppression(r.customerID, time.Now().Add(80*time.Millisecond)); err != nil {
		t.Fatal(err)
	}

	r.arbiter.Restore()
	if !r.arbiter.Suppressed() {
		t.Fatal("restore did not re-arm suppression")
	}
	if snap, _ := r.cache.Read(ctx); snap.Present {
		t.Error("read after restore reported an active session")
	}

	waitFor(t, time.Second, func() bool { return !r.arbiter.Suppressed() })
	if _, ok, _ := r.flags.LoadSuppression(r.customerID); ok {
		t.Error("durable flag not cleared after restored window elapsed")
	}
}

// TestRestoreCleansExpiredFlag verifies a leftover flag whose window already
// passed is removed without engaging suppression.
func TestRestoreCleansExpiredFlag(t *testing.T) {
	r := newArbiterRig(t, time.Hour)

	if err := r.flags.SaveSuppression(r.customerID, time.Now().Add(-time.Minute)); err != nil {
		t.Fatal(err)
	}

	r.arbiter.Restore()
	if r.arbiter.Suppressed() {
		t.Error("expired flag engaged suppression")
	}
	if _, ok, _ := r.flags.LoadSuppression(r.customerID); ok {
		t.Error("expired flag not cleaned up")
	}
}

// TestInflightResponseDiscarded verifies a refresh whose request departed
// before suppression began is discarded when its stale response arrives
// inside the window.
func TestInflightResponseDiscarded(t *testing.T) {
	r := newArbiterRig(t, time.Minute)
	ctx := context.Background()

	gate := make(chan struct{})
	r.src.mu.Lock()
	r.src.gate = gate
	r.src.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		r.cache.Refresh(ctx) //nolint:errcheck
	}()
	waitFor(t, time.Second, func() bool { return r.src.callCount() >= 1 })

	r.arbiter.Engage()
	close(gate)
	<-done

	if snap, _ := r.cache.Read(ctx); snap.Present {
		t.Error("stale pre-suppression response was applied inside the window")
	}
}
