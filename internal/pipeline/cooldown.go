package pipeline

import "time"

// sweepFactor controls eviction: entries older than sweepFactor times the
// window are dropped. Anything past the window can never suppress again, so
// keeping them only grows the map over a long run.
const sweepFactor = 4

// Gate deduplicates repeated verdicts for the same key within a time window.
// Granted events key on the identity, negative verdicts use one sentinel key
// per event class ("intruder", "proxy", "spoof"), so independent event types
// never suppress one another. Not safe for concurrent use; one gate belongs to
// one camera pipeline.
type Gate struct {
	window    time.Duration
	last      map[string]time.Time
	lastSweep time.Time
}

// NewGate creates a gate with the given suppression window.
func NewGate(window time.Duration) *Gate {
	return &Gate{
		window: window,
		last:   make(map[string]time.Time),
	}
}

// ShouldEmit reports whether an event for key may be emitted at now, and
// records the emission when it may. Emission is allowed if the key was never
// recorded or its last emission is more than one window ago.
func (g *Gate) ShouldEmit(key string, now time.Time) bool {
	g.maybeSweep(now)

	if last, ok := g.last[key]; ok && now.Sub(last) <= g.window {
		return false
	}
	g.last[key] = now
	return true
}

// Len returns the number of tracked keys.
func (g *Gate) Len() int {
	return len(g.last)
}

// maybeSweep evicts stale entries, at most once per window.
func (g *Gate) maybeSweep(now time.Time) {
	if now.Sub(g.lastSweep) < g.window {
		return
	}
	g.lastSweep = now

	cutoff := now.Add(-sweepFactor * g.window)
	for key, last := range g.last {
		if last.Before(cutoff) {
			delete(g.last, key)
		}
	}
}
