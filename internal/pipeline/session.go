package pipeline

import (
	"fmt"
	"time"

	"github.com/kozaktomas/face-sentry/internal/landmarks"
	"github.com/kozaktomas/face-sentry/internal/liveness"
	"github.com/kozaktomas/face-sentry/internal/match"
)

// State is the verification session state.
type State int

const (
	// StateSearching means no candidate is held; every frame with an
	// embedding runs the matcher.
	StateSearching State = iota
	// StateAnalyzing means a candidate matched and the liveness strategy is
	// being evaluated against a wall-clock deadline.
	StateAnalyzing
	// StateGranted fired an access verdict; it resets to searching on the
	// next frame.
	StateGranted
	// StateProxy fired a spoof verdict; it resets to searching on the next
	// frame.
	StateProxy
)

func (s State) String() string {
	switch s {
	case StateSearching:
		return "SEARCHING"
	case StateAnalyzing:
		return "ANALYZING"
	case StateGranted:
		return "GRANTED"
	case StateProxy:
		return "PROXY"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Outcome is the per-frame verdict of a session step.
type Outcome int

const (
	// OutcomeNone means no verdict fired this frame.
	OutcomeNone Outcome = iota
	// OutcomeGranted means the candidate matched and proved liveness.
	OutcomeGranted
	// OutcomeProxy means the candidate matched but failed to prove liveness
	// before the timeout (static photo, screen replay).
	OutcomeProxy
	// OutcomeIntruder means the face matched nobody enrolled.
	OutcomeIntruder
	// OutcomeSpoof means the spoof gate rejected the frame before matching
	// ran at all (gate-first configurations only).
	OutcomeSpoof
)

// StepResult is what one frame produced.
type StepResult struct {
	Outcome   Outcome
	Candidate match.Result
	Detail    string
}

// Session is the per-encounter state machine sequencing the matcher and the
// liveness strategy into a final verdict. It holds one candidate at a time and
// drives transitions off wall-clock timestamps recorded at transition time, so
// slow extractor inference never shrinks the liveness window.
type Session struct {
	matcher  match.Matcher
	strategy liveness.Strategy
	timeout  time.Duration

	state     State
	candidate match.Result
	startedAt time.Time
}

// NewSession creates a session in the searching state.
func NewSession(matcher match.Matcher, strategy liveness.Strategy, timeout time.Duration) *Session {
	return &Session{
		matcher:  matcher,
		strategy: strategy,
		timeout:  timeout,
	}
}

// State returns the current state.
func (s *Session) State() State {
	return s.state
}

// Candidate returns the identity under analysis, meaningful in the analyzing
// and terminal states.
func (s *Session) Candidate() match.Result {
	return s.candidate
}

// Reset forces the session back to searching and clears all per-encounter
// state, including the strategy's. Called by the orchestrator whenever the
// face leaves the frame.
func (s *Session) Reset() {
	s.state = StateSearching
	s.candidate = match.Result{}
	s.startedAt = time.Time{}
	s.strategy.Reset()
}

// Step advances the machine by one frame. The embedding may be nil when the
// embedding extractor found no face even though landmarks exist; such frames
// are no-ops while searching. An error means the embedding was malformed,
// which is a configuration bug, not a per-frame condition.
func (s *Session) Step(embedding []float32, face landmarks.Face, now time.Time) (StepResult, error) {
	// Terminal states fire once and rest for exactly one frame.
	if s.state == StateGranted || s.state == StateProxy {
		s.Reset()
	}

	switch s.state {
	case StateSearching:
		return s.stepSearching(embedding, now)
	case StateAnalyzing:
		return s.stepAnalyzing(face, now), nil
	default:
		return StepResult{}, nil
	}
}

func (s *Session) stepSearching(embedding []float32, now time.Time) (StepResult, error) {
	if embedding == nil {
		return StepResult{Detail: "no embedding this frame"}, nil
	}

	result, err := s.matcher.Match(embedding)
	if err != nil {
		return StepResult{}, err
	}

	if !result.Found {
		// Unknown face. Report and keep searching; candidate stays clear.
		s.candidate = match.Result{}
		return StepResult{
			Outcome: OutcomeIntruder,
			Detail:  fmt.Sprintf("no enrolled identity within threshold (best %.3f)", result.Distance),
		}, nil
	}

	s.state = StateAnalyzing
	s.candidate = result
	s.startedAt = now
	return StepResult{
		Candidate: result,
		Detail:    fmt.Sprintf("candidate %s at distance %.3f", result.IdentityID, result.Distance),
	}, nil
}

func (s *Session) stepAnalyzing(face landmarks.Face, now time.Time) StepResult {
	verdict := s.strategy.Observe(face)

	if verdict.Passed {
		s.state = StateGranted
		return StepResult{
			Outcome:   OutcomeGranted,
			Candidate: s.candidate,
			Detail:    verdict.Detail,
		}
	}

	if now.Sub(s.startedAt) > s.timeout {
		s.state = StateProxy
		return StepResult{
			Outcome:   OutcomeProxy,
			Candidate: s.candidate,
			Detail:    fmt.Sprintf("liveness not proven within %s", s.timeout),
		}
	}

	return StepResult{Candidate: s.candidate, Detail: verdict.Detail}
}
