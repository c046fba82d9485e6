// Package pipeline drives per-frame identity verification: matching, liveness,
// verdict sequencing and cooldown-gated event emission.
package pipeline

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/face-sentry/internal/database"
	"github.com/kozaktomas/face-sentry/internal/landmarks"
	"github.com/kozaktomas/face-sentry/internal/liveness"
)

// Evidence classifications.
const (
	ClassIntruder = "intruder"
	ClassProxy    = "proxy"
	ClassSpoof    = "spoof"
)

// Sentinel cooldown keys for negative verdicts. Granted events key on the
// identity instead.
const (
	keyIntruder = "intruder"
	keyProxy    = "proxy"
	keySpoof    = "spoof"
)

// Extractor produces landmarks and embeddings from a raw frame. Both calls are
// best-effort: a nil result with nil error means no face was found.
type Extractor interface {
	Landmarks(ctx context.Context, frame []byte) (landmarks.Face, error)
	Embedding(ctx context.Context, frame []byte) ([]float32, error)
}

// EventSink receives verdict events. Delivery is best-effort; a failure must
// never alter the verdict already reached.
type EventSink interface {
	Emit(ctx context.Context, event database.AttendanceEvent) error
}

// EvidenceStore captures a frame for a negative verdict and returns a URL, or
// an empty string when capture is unavailable.
type EvidenceStore interface {
	Capture(ctx context.Context, frame []byte, classification string) (string, error)
}

// Announcer gives best-effort spoken or printed feedback.
type Announcer interface {
	Announce(message string)
}

// Config describes one camera pipeline.
type Config struct {
	CameraID       string
	EventType      string // database.EventEntry or database.EventExit
	CooldownWindow time.Duration
	// SpoofGateFirst gates recognition on the passive spoof score before
	// matching runs at all: a failing frame emits a spoof event and skips
	// matching. This changes strategy ordering, not the state topology.
	SpoofGateFirst bool
}

// Collaborators are the external services the orchestrator hands off to.
// Evidence and Announcer may be nil.
type Collaborators struct {
	Extractor Extractor
	Events    EventSink
	Evidence  EvidenceStore
	Announcer Announcer
}

// Orchestrator owns all mutable per-camera state: the session, the cooldown
// gate and the collaborators. One instance per camera stream, driven by a
// sequential frame loop; it is not safe for concurrent use.
type Orchestrator struct {
	cfg        Config
	session    *Session
	gate       *Gate
	deps       Collaborators
	gateScorer *liveness.GeometricScorer

	now func() time.Time
}

// NewOrchestrator wires a pipeline. gateScorer is required when
// cfg.SpoofGateFirst is set and ignored otherwise.
func NewOrchestrator(cfg Config, session *Session, deps Collaborators, gateScorer *liveness.GeometricScorer) *Orchestrator {
	return &Orchestrator{
		cfg:        cfg,
		session:    session,
		gate:       NewGate(cfg.CooldownWindow),
		deps:       deps,
		gateScorer: gateScorer,
		now:        time.Now,
	}
}

// ProcessFrame drives one frame through the pipeline. Extractor failures are
// treated as "no face this frame" and never crash the loop; the only error
// returned is a malformed embedding, which indicates a broken deployment.
func (o *Orchestrator) ProcessFrame(ctx context.Context, frame []byte) (StepResult, error) {
	now := o.now()

	face, err := o.deps.Extractor.Landmarks(ctx, frame)
	if err != nil {
		log.Printf("landmark extraction failed, treating as no face: %v", err)
		face = nil
	}
	if face == nil {
		o.session.Reset()
		return StepResult{Detail: "no face in frame"}, nil
	}

	if o.cfg.SpoofGateFirst && o.gateScorer != nil {
		if score := o.gateScorer.Score(face); !score.Passed {
			o.session.Reset()
			o.emitSpoofGate(ctx, frame, score)
			return StepResult{Outcome: OutcomeSpoof, Detail: detailFromReasons(score)}, nil
		}
	}

	// The matcher only runs while searching (terminal states reset into
	// searching on this step), so skip the expensive embedding call while a
	// candidate is under analysis.
	var embedding []float32
	if o.session.State() != StateAnalyzing {
		embedding, err = o.deps.Extractor.Embedding(ctx, frame)
		if err != nil {
			log.Printf("embedding extraction failed, skipping match this frame: %v", err)
			embedding = nil
		}
	}

	result, err := o.session.Step(embedding, face, now)
	if err != nil {
		return StepResult{}, err
	}

	switch result.Outcome {
	case OutcomeGranted:
		o.emitGranted(ctx, result, now)
	case OutcomeProxy:
		o.emitNegative(ctx, frame, keyProxy, ClassProxy, result.Candidate.IdentityID, true, now)
	case OutcomeIntruder:
		o.emitNegative(ctx, frame, keyIntruder, ClassIntruder, "", false, now)
	}

	return result, nil
}

// Session exposes the underlying session, mainly for status reporting.
func (o *Orchestrator) Session() *Session {
	return o.session
}

func (o *Orchestrator) emitGranted(ctx context.Context, result StepResult, now time.Time) {
	name := result.Candidate.DisplayName
	log.Printf("access %s: %s (%s)", o.cfg.EventType, name, result.Detail)

	o.announceGranted(name)

	if !o.gate.ShouldEmit(result.Candidate.IdentityID, now) {
		return
	}
	o.emit(ctx, database.AttendanceEvent{
		ID:         uuid.NewString(),
		EventType:  o.cfg.EventType,
		IdentityID: result.Candidate.IdentityID,
		CameraID:   o.cfg.CameraID,
		CreatedAt:  now,
	})
}

func (o *Orchestrator) emitNegative(ctx context.Context, frame []byte, key, classification, identityID string, isSpoof bool, now time.Time) {
	log.Printf("%s detected on camera %s", classification, o.cfg.CameraID)

	if !o.gate.ShouldEmit(key, now) {
		return
	}

	evidenceURL := o.captureEvidence(ctx, frame, classification)
	o.emit(ctx, database.AttendanceEvent{
		ID:          uuid.NewString(),
		EventType:   o.cfg.EventType,
		IdentityID:  identityID,
		CameraID:    o.cfg.CameraID,
		IsSpoof:     isSpoof,
		EvidenceURL: evidenceURL,
		CreatedAt:   now,
	})
}

func (o *Orchestrator) emitSpoofGate(ctx context.Context, frame []byte, score liveness.SpoofScore) {
	now := o.now()
	log.Printf("spoof gate failed on camera %s: %s", o.cfg.CameraID, detailFromReasons(score))

	if !o.gate.ShouldEmit(keySpoof, now) {
		return
	}

	evidenceURL := o.captureEvidence(ctx, frame, ClassSpoof)
	o.emit(ctx, database.AttendanceEvent{
		ID:          uuid.NewString(),
		EventType:   o.cfg.EventType,
		CameraID:    o.cfg.CameraID,
		IsSpoof:     true,
		EvidenceURL: evidenceURL,
		CreatedAt:   now,
	})
}

// emit delivers the event best-effort. The verdict stands whether or not the
// sink accepts it; the local log is the fallback of record.
func (o *Orchestrator) emit(ctx context.Context, event database.AttendanceEvent) {
	if o.deps.Events == nil {
		return
	}
	if err := o.deps.Events.Emit(ctx, event); err != nil {
		log.Printf("event delivery failed (event %s kept locally): %v", event.ID, err)
	}
}

func (o *Orchestrator) captureEvidence(ctx context.Context, frame []byte, classification string) string {
	if o.deps.Evidence == nil {
		return ""
	}
	url, err := o.deps.Evidence.Capture(ctx, frame, classification)
	if err != nil {
		log.Printf("evidence capture failed: %v", err)
		return ""
	}
	return url
}

func (o *Orchestrator) announceGranted(name string) {
	if o.deps.Announcer == nil {
		return
	}
	if o.cfg.EventType == database.EventExit {
		o.deps.Announcer.Announce("Goodbye " + name)
		return
	}
	o.deps.Announcer.Announce("Welcome " + name)
}

func detailFromReasons(score liveness.SpoofScore) string {
	if len(score.Reasons) == 0 {
		return "spoof score failed"
	}
	return score.Reasons[len(score.Reasons)-1]
}
