package pipeline

import (
	"fmt"
	"testing"
	"time"
)

func TestGate_SuppressesWithinWindow(t *testing.T) {
	window := 10 * time.Second
	g := NewGate(window)
	t0 := time.Now()

	if !g.ShouldEmit("s-001", t0) {
		t.Error("first emission must be allowed")
	}
	if g.ShouldEmit("s-001", t0.Add(window/2)) {
		t.Error("emission within the window must be suppressed")
	}
	if !g.ShouldEmit("s-001", t0.Add(window+time.Millisecond)) {
		t.Error("emission after the window must be allowed")
	}
}

func TestGate_KeysAreIndependent(t *testing.T) {
	g := NewGate(10 * time.Second)
	t0 := time.Now()

	if !g.ShouldEmit("intruder", t0) {
		t.Error("first intruder emission must be allowed")
	}
	if !g.ShouldEmit("proxy", t0) {
		t.Error("proxy must not be suppressed by intruder")
	}
	if !g.ShouldEmit("s-001", t0) {
		t.Error("identity key must not be suppressed by sentinel keys")
	}
}

func TestGate_ExactWindowBoundaryIsSuppressed(t *testing.T) {
	window := 10 * time.Second
	g := NewGate(window)
	t0 := time.Now()

	g.ShouldEmit("s-001", t0)
	if g.ShouldEmit("s-001", t0.Add(window)) {
		t.Error("emission at exactly one window must still be suppressed")
	}
}

func TestGate_EvictsStaleEntries(t *testing.T) {
	window := 10 * time.Second
	g := NewGate(window)
	t0 := time.Now()

	for i := 0; i < 100; i++ {
		g.ShouldEmit(fmt.Sprintf("s-%03d", i), t0)
	}
	if g.Len() != 100 {
		t.Fatalf("expected 100 tracked keys, got %d", g.Len())
	}

	// Far past the eviction horizon, a single call sweeps the stale keys.
	g.ShouldEmit("fresh", t0.Add(10*sweepFactor*window))
	if g.Len() != 1 {
		t.Errorf("expected stale keys evicted, got %d tracked", g.Len())
	}
}

func TestGate_RecentEntriesSurviveSweep(t *testing.T) {
	window := 10 * time.Second
	g := NewGate(window)
	t0 := time.Now()

	g.ShouldEmit("old", t0)
	g.ShouldEmit("recent", t0.Add(45*time.Second))

	// The sweeps triggered along the way evict "old" but keep "recent".
	g.ShouldEmit("fresh", t0.Add(50*time.Second))

	if g.ShouldEmit("recent", t0.Add(52*time.Second)) {
		t.Error("recent key must still suppress after the sweep")
	}
	if g.Len() != 2 {
		t.Errorf("expected old evicted and recent+fresh kept, got %d tracked", g.Len())
	}
}
