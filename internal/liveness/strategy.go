package liveness

import (
	"fmt"

	"github.com/kozaktomas/face-sentry/internal/landmarks"
)

// Verdict is the per-frame liveness outcome of whichever strategy is active.
// It carries no cross-frame state itself.
type Verdict struct {
	Passed bool
	Detail string
}

// Strategy is a pluggable liveness check evaluated once per frame while a
// verification session is analyzing a candidate.
type Strategy interface {
	Name() string
	// Observe consumes one frame of landmarks and reports whether liveness
	// is proven on this frame.
	Observe(face landmarks.Face) Verdict
	// Reset clears any cross-frame state when a session restarts.
	Reset()
}

// ActiveChallenge proves liveness by a blink challenge: the subject must blink
// before the session times out.
type ActiveChallenge struct {
	blink *BlinkDetector
}

// NewActiveChallenge creates the blink challenge strategy.
func NewActiveChallenge(blink *BlinkDetector) *ActiveChallenge {
	return &ActiveChallenge{blink: blink}
}

func (a *ActiveChallenge) Name() string { return "active-challenge" }

func (a *ActiveChallenge) Observe(face landmarks.Face) Verdict {
	obs := a.blink.Observe(face)
	if obs.BlinkEdge {
		return Verdict{Passed: true, Detail: fmt.Sprintf("blink confirmed (ear %.3f)", obs.AvgEAR)}
	}
	return Verdict{Detail: fmt.Sprintf("awaiting blink (ear %.3f)", obs.AvgEAR)}
}

func (a *ActiveChallenge) Reset() {
	a.blink.Reset()
}

// PassiveGeometric proves liveness by geometric spoof scoring, no user action
// required. Stateless across frames.
type PassiveGeometric struct {
	scorer *GeometricScorer
}

// NewPassiveGeometric creates the geometric scoring strategy.
func NewPassiveGeometric(scorer *GeometricScorer) *PassiveGeometric {
	return &PassiveGeometric{scorer: scorer}
}

func (p *PassiveGeometric) Name() string { return "passive-geometric" }

func (p *PassiveGeometric) Observe(face landmarks.Face) Verdict {
	score := p.scorer.Score(face)
	detail := fmt.Sprintf("score %d", score.Score)
	if len(score.Reasons) > 0 {
		detail = fmt.Sprintf("score %d: %s", score.Score, score.Reasons[len(score.Reasons)-1])
	}
	return Verdict{Passed: score.Passed, Detail: detail}
}

func (p *PassiveGeometric) Reset() {}
