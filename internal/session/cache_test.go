package session

import (
	"context"
	"testing"
	"time"

	"github.com/claude/liftlog/internal/models"
	"github.com/google/uuid"
)

func newTestCache(src *fakeSource) *Cache {
	return NewCache(src, uuid.New(), discardLog())
}

// TestResolveOptimisticWinsUntilExpiry exercises the merge function directly:
// an unexpired optimistic value outranks incoming server truth, an expired
// one loses to it.
func TestResolveOptimisticWinsUntilExpiry(t *testing.T) {
	now := time.Now()
	optimistic := heldValue{
		snap:       models.NoActiveSession(),
		optimistic: true,
		until:      now.Add(time.Second),
	}
	incoming := activeSnapshot(uuid.New(), uuid.New())

	got := resolve(optimistic, incoming, now)
	if got.snap.Present {
		t.Error("unexpired optimistic value lost to authoritative snapshot")
	}

	got = resolve(optimistic, incoming, now.Add(2*time.Second))
	if !got.snap.Present {
		t.Error("expired optimistic value should lose to authoritative snapshot")
	}
	if got.optimistic {
		t.Error("resolved authoritative value still tagged optimistic")
	}
}

// TestReadNeverBlocks verifies a read returns immediately while the fetch it
// scheduled is still in flight, and that the result lands afterwards.
func TestReadNeverBlocks(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{snap: activeSnapshot(uuid.New(), uuid.New()), gate: gate}
	c := newTestCache(src)
	ctx := context.Background()

	done := make(chan struct{})
	var fresh Freshness
	go func() {
		defer close(done)
		_, fresh = c.Read(ctx)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Read blocked on the network")
	}
	if fresh != FreshnessStale {
		t.Errorf("freshness = %v, want stale before first fetch resolves", fresh)
	}

	close(gate)
	waitFor(t, time.Second, func() bool {
		snap, f := c.Read(ctx)
		return snap.Present && f == FreshnessAuthoritative
	})
}

// TestRefreshAppliesServerTruth verifies a synchronous refresh round-trips
// and updates the held value.
func TestRefreshAppliesServerTruth(t *testing.T) {
	src := &fakeSource{snap: activeSnapshot(uuid.New(), uuid.New())}
	c := newTestCache(src)

	snap, err := c.Refresh(context.Background())
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !snap.Present {
		t.Error("refresh did not apply server truth")
	}

	got, fresh := c.Read(context.Background())
	if !got.Present || fresh != FreshnessAuthoritative {
		t.Errorf("read after refresh = (%v, %v), want (present, authoritative)", got.Present, fresh)
	}
}

// TestForceValueDiscardsInflightRefresh verifies a refresh that departed
// before a forced update is discarded when its response arrives.
func TestForceValueDiscardsInflightRefresh(t *testing.T) {
	gate := make(chan struct{})
	src := &fakeSource{snap: activeSnapshot(uuid.New(), uuid.New()), gate: gate}
	c := newTestCache(src)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.Refresh(ctx) //nolint:errcheck
	}()
	waitFor(t, time.Second, func() bool { return src.callCount() >= 1 })

	c.ForceValue(models.NoActiveSession(), DefaultOptimisticHold)
	close(gate)
	<-done

	snap, fresh := c.Read(ctx)
	if snap.Present {
		t.Error("superseded in-flight refresh overwrote the forced value")
	}
	if fresh != FreshnessOptimistic {
		t.Errorf("freshness = %v, want optimistic", fresh)
	}
}

// TestFetchFailureKeepsLastValue verifies a failed refresh keeps the best
// known value rather than clearing it.
func TestFetchFailureKeepsLastValue(t *testing.T) {
	src := &fakeSource{snap: activeSnapshot(uuid.New(), uuid.New())}
	c := newTestCache(src)
	ctx := context.Background()

	if _, err := c.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	src.mu.Lock()
	src.err = context.DeadlineExceeded
	src.mu.Unlock()

	snap, err := c.Refresh(ctx)
	if err == nil {
		t.Fatal("expected fetch error to surface")
	}
	if !snap.Present {
		t.Error("failed refresh dropped the last known value")
	}
}

// TestInvalidateMarksStale verifies the next read after invalidation reports
// staleness and schedules a refresh.
func TestInvalidateMarksStale(t *testing.T) {
	src := &fakeSource{snap: models.NoActiveSession()}
	c := newTestCache(src)
	ctx := context.Background()

	if _, err := c.Refresh(ctx); err != nil {
		t.Fatal(err)
	}
	before := src.callCount()

	c.Invalidate()
	_, fresh := c.Read(ctx)
	if fresh != FreshnessStale {
		t.Errorf("freshness = %v, want stale after invalidate", fresh)
	}
	waitFor(t, time.Second, func() bool { return src.callCount() > before })
}

// TestSuspendStopsAllRefresh verifies that while suspended, pokes and
// explicit refreshes make no server calls at all.
func TestSuspendStopsAllRefresh(t *testing.T) {
	src := &fakeSource{snap: activeSnapshot(uuid.New(), uuid.New())}
	c := newTestCache(src)
	ctx := context.Background()

	c.ForceValue(models.NoActiveSession(), time.Minute)
	c.Suspend()
	before := src.callCount()

	c.Poke(ctx)
	if snap, err := c.Refresh(ctx); err != nil || snap.Present {
		t.Errorf("suspended refresh = (%v, %v), want forced no-session, nil", snap.Present, err)
	}

	time.Sleep(50 * time.Millisecond)
	if got := src.callCount(); got != before {
		t.Errorf("server calls while suspended = %d, want 0", got-before)
	}

	_, fresh := c.Read(ctx)
	if fresh != FreshnessSuppressed {
		t.Errorf("freshness = %v, want suppressed", fresh)
	}
}

// TestResumeAllowsServerTruth verifies refresh works again after resume and
// reflects the real server state, not the forced value.
func TestResumeAllowsServerTruth(t *testing.T) {
	src := &fakeSource{snap: activeSnapshot(uuid.New(), uuid.New())}
	c := newTestCache(src)
	ctx := context.Background()

	c.Suspend()
	c.Resume()

	snap, err := c.Refresh(ctx)
	if err != nil {
		t.Fatalf("refresh after resume: %v", err)
	}
	if !snap.Present {
		t.Error("refresh after resume should reflect true server state")
	}
}
