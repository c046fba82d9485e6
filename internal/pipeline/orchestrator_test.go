package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kozaktomas/face-sentry/internal/database"
	"github.com/kozaktomas/face-sentry/internal/landmarks"
	"github.com/kozaktomas/face-sentry/internal/liveness"
	"github.com/kozaktomas/face-sentry/internal/match"
)

type fakeExtractor struct {
	face     landmarks.Face
	faceErr  error
	emb      []float32
	embErr   error
	embCalls int
}

func (f *fakeExtractor) Landmarks(ctx context.Context, frame []byte) (landmarks.Face, error) {
	return f.face, f.faceErr
}

func (f *fakeExtractor) Embedding(ctx context.Context, frame []byte) ([]float32, error) {
	f.embCalls++
	return f.emb, f.embErr
}

type fakeSink struct {
	events []database.AttendanceEvent
	err    error
}

func (f *fakeSink) Emit(ctx context.Context, event database.AttendanceEvent) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

type fakeEvidence struct {
	classes []string
	err     error
}

func (f *fakeEvidence) Capture(ctx context.Context, frame []byte, classification string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.classes = append(f.classes, classification)
	return "file:///evidence/" + classification + ".jpg", nil
}

type fakeAnnouncer struct {
	messages []string
}

func (f *fakeAnnouncer) Announce(message string) {
	f.messages = append(f.messages, message)
}

// poseFace builds a mesh with pose anchors at the given looking-down ratio.
func poseFace(ratio, noseDepth float64) landmarks.Face {
	face := make(landmarks.Face, landmarks.MeshSize)
	face[landmarks.TopOfHead] = landmarks.Point{X: 0.5, Y: 0.2}
	face[landmarks.Chin] = landmarks.Point{X: 0.5, Y: 0.8}
	face[landmarks.NoseTip] = landmarks.Point{X: 0.5, Y: 0.2 + ratio*0.6, Z: noseDepth}
	face[landmarks.LeftCheek] = landmarks.Point{X: 0.3, Y: 0.5}
	face[landmarks.RightCheek] = landmarks.Point{X: 0.7, Y: 0.5}
	return face
}

type testPipeline struct {
	orch      *Orchestrator
	extractor *fakeExtractor
	sink      *fakeSink
	evidence  *fakeEvidence
	announcer *fakeAnnouncer
	clock     time.Time
}

func newTestPipeline(matcher match.Matcher, strategy liveness.Strategy, cfg Config, gateScorer *liveness.GeometricScorer) *testPipeline {
	tp := &testPipeline{
		extractor: &fakeExtractor{face: testFace, emb: testEmbedding},
		sink:      &fakeSink{},
		evidence:  &fakeEvidence{},
		announcer: &fakeAnnouncer{},
		clock:     time.Now(),
	}
	session := NewSession(matcher, strategy, 3*time.Second)
	tp.orch = NewOrchestrator(cfg, session, Collaborators{
		Extractor: tp.extractor,
		Events:    tp.sink,
		Evidence:  tp.evidence,
		Announcer: tp.announcer,
	}, gateScorer)
	tp.orch.now = func() time.Time { return tp.clock }
	return tp
}

func entryConfig() Config {
	return Config{
		CameraID:       "cam0",
		EventType:      database.EventEntry,
		CooldownWindow: 15 * time.Second,
	}
}

func TestOrchestrator_GrantedEmitsOnceWithinCooldown(t *testing.T) {
	matcher := &fakeMatcher{result: matchedResult()}
	strategy := &fakeStrategy{verdicts: []liveness.Verdict{{Passed: true}}}
	tp := newTestPipeline(matcher, strategy, entryConfig(), nil)
	ctx := context.Background()

	// Frame 1 matches, frame 2 proves liveness.
	if _, err := tp.orch.ProcessFrame(ctx, nil); err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	tp.clock = tp.clock.Add(time.Second)
	res, err := tp.orch.ProcessFrame(ctx, nil)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if res.Outcome != OutcomeGranted {
		t.Fatalf("expected granted, got %v", res.Outcome)
	}

	if len(tp.sink.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(tp.sink.events))
	}
	event := tp.sink.events[0]
	if event.EventType != database.EventEntry || event.IdentityID != "s-001" || event.IsSpoof {
		t.Errorf("unexpected event: %+v", event)
	}
	if event.ID == "" {
		t.Error("event must carry an ID")
	}
	if len(tp.announcer.messages) != 1 || tp.announcer.messages[0] != "Welcome Jana" {
		t.Errorf("unexpected announcements: %v", tp.announcer.messages)
	}

	// Same person verified again within the cooldown: verdict and greeting
	// happen, but no second event reaches the sink.
	tp.clock = tp.clock.Add(2 * time.Second)
	tp.orch.ProcessFrame(ctx, nil) // terminal reset + re-match
	tp.clock = tp.clock.Add(time.Second)
	res, err = tp.orch.ProcessFrame(ctx, nil)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if res.Outcome != OutcomeGranted {
		t.Fatalf("expected second granted verdict, got %v", res.Outcome)
	}
	if len(tp.sink.events) != 1 {
		t.Errorf("cooldown must suppress the second event, got %d", len(tp.sink.events))
	}
	if len(tp.announcer.messages) != 2 {
		t.Errorf("greeting is not cooldown-gated, got %v", tp.announcer.messages)
	}
}

func TestOrchestrator_IntruderCapturesEvidenceOncePerWindow(t *testing.T) {
	matcher := &fakeMatcher{result: match.Result{Found: false, Distance: 0.9}}
	tp := newTestPipeline(matcher, &fakeStrategy{}, entryConfig(), nil)
	ctx := context.Background()

	res, err := tp.orch.ProcessFrame(ctx, nil)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if res.Outcome != OutcomeIntruder {
		t.Fatalf("expected intruder, got %v", res.Outcome)
	}

	// Identical frame within the window: verdict repeats, emission does not.
	tp.clock = tp.clock.Add(time.Second)
	res, err = tp.orch.ProcessFrame(ctx, nil)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if res.Outcome != OutcomeIntruder {
		t.Fatalf("expected intruder, got %v", res.Outcome)
	}

	if len(tp.sink.events) != 1 {
		t.Fatalf("expected 1 intruder event, got %d", len(tp.sink.events))
	}
	event := tp.sink.events[0]
	if event.IdentityID != "" || event.IsSpoof {
		t.Errorf("intruder event must have no identity and no spoof flag: %+v", event)
	}
	if event.EvidenceURL == "" {
		t.Error("intruder event must carry evidence when capture succeeds")
	}
	if len(tp.evidence.classes) != 1 || tp.evidence.classes[0] != ClassIntruder {
		t.Errorf("unexpected evidence captures: %v", tp.evidence.classes)
	}
}

func TestOrchestrator_ProxyTimeout(t *testing.T) {
	matcher := &fakeMatcher{result: matchedResult()}
	tp := newTestPipeline(matcher, &fakeStrategy{}, entryConfig(), nil)
	ctx := context.Background()

	tp.orch.ProcessFrame(ctx, nil) // match
	tp.clock = tp.clock.Add(4 * time.Second)
	res, err := tp.orch.ProcessFrame(ctx, nil)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if res.Outcome != OutcomeProxy {
		t.Fatalf("expected proxy, got %v", res.Outcome)
	}

	if len(tp.sink.events) != 1 {
		t.Fatalf("expected 1 proxy event, got %d", len(tp.sink.events))
	}
	event := tp.sink.events[0]
	if !event.IsSpoof || event.IdentityID != "s-001" {
		t.Errorf("proxy event must flag spoof for the candidate: %+v", event)
	}
	if len(tp.evidence.classes) != 1 || tp.evidence.classes[0] != ClassProxy {
		t.Errorf("unexpected evidence captures: %v", tp.evidence.classes)
	}
}

func TestOrchestrator_NoFaceResetsSession(t *testing.T) {
	matcher := &fakeMatcher{result: matchedResult()}
	tp := newTestPipeline(matcher, &fakeStrategy{}, entryConfig(), nil)
	ctx := context.Background()

	tp.orch.ProcessFrame(ctx, nil)
	if tp.orch.Session().State() != StateAnalyzing {
		t.Fatalf("expected ANALYZING, got %s", tp.orch.Session().State())
	}

	tp.extractor.face = nil
	res, err := tp.orch.ProcessFrame(ctx, nil)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if res.Outcome != OutcomeNone {
		t.Errorf("no verdict expected for face-free frame, got %v", res.Outcome)
	}
	if tp.orch.Session().State() != StateSearching {
		t.Errorf("face disappearing must reset the session, got %s", tp.orch.Session().State())
	}
}

func TestOrchestrator_LandmarkErrorIsNoFace(t *testing.T) {
	matcher := &fakeMatcher{result: matchedResult()}
	tp := newTestPipeline(matcher, &fakeStrategy{}, entryConfig(), nil)
	tp.extractor.faceErr = errors.New("sidecar timeout")

	res, err := tp.orch.ProcessFrame(context.Background(), nil)
	if err != nil {
		t.Fatalf("extractor failure must not crash the loop: %v", err)
	}
	if res.Outcome != OutcomeNone {
		t.Errorf("expected no verdict, got %v", res.Outcome)
	}
	if len(tp.sink.events) != 0 {
		t.Errorf("no events expected, got %d", len(tp.sink.events))
	}
}

func TestOrchestrator_SpoofGateFirstSkipsMatching(t *testing.T) {
	cfg := entryConfig()
	cfg.EventType = database.EventExit
	cfg.SpoofGateFirst = true

	matcher := &fakeMatcher{result: matchedResult()}
	scorer := liveness.NewGeometricScorer(15, 0.04, 60)
	tp := newTestPipeline(matcher, &fakeStrategy{}, cfg, scorer)
	tp.extractor.face = poseFace(0.5, -0.5) // frontal: fails the pitch gate
	ctx := context.Background()

	res, err := tp.orch.ProcessFrame(ctx, nil)
	if err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if res.Outcome != OutcomeSpoof {
		t.Fatalf("expected spoof outcome, got %v", res.Outcome)
	}
	if tp.extractor.embCalls != 0 {
		t.Errorf("spoof gate must skip embedding extraction, got %d calls", tp.extractor.embCalls)
	}
	if matcher.calls != 0 {
		t.Errorf("spoof gate must skip matching, got %d calls", matcher.calls)
	}

	if len(tp.sink.events) != 1 {
		t.Fatalf("expected 1 spoof event, got %d", len(tp.sink.events))
	}
	if !tp.sink.events[0].IsSpoof {
		t.Errorf("spoof event must flag spoof: %+v", tp.sink.events[0])
	}
	if len(tp.evidence.classes) != 1 || tp.evidence.classes[0] != ClassSpoof {
		t.Errorf("unexpected evidence captures: %v", tp.evidence.classes)
	}

	// A frame passing the gate proceeds to matching.
	tp.extractor.face = poseFace(0.6, -0.06)
	if _, err := tp.orch.ProcessFrame(ctx, nil); err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if matcher.calls != 1 {
		t.Errorf("expected matching after gate pass, got %d calls", matcher.calls)
	}
}

func TestOrchestrator_SinkFailureKeepsVerdict(t *testing.T) {
	matcher := &fakeMatcher{result: match.Result{Found: false, Distance: 0.9}}
	tp := newTestPipeline(matcher, &fakeStrategy{}, entryConfig(), nil)
	tp.sink.err = errors.New("network unreachable")

	res, err := tp.orch.ProcessFrame(context.Background(), nil)
	if err != nil {
		t.Fatalf("sink failure must not crash the loop: %v", err)
	}
	if res.Outcome != OutcomeIntruder {
		t.Errorf("verdict must stand despite delivery failure, got %v", res.Outcome)
	}
}

func TestOrchestrator_EvidenceFailureDoesNotBlockEvent(t *testing.T) {
	matcher := &fakeMatcher{result: match.Result{Found: false, Distance: 0.9}}
	tp := newTestPipeline(matcher, &fakeStrategy{}, entryConfig(), nil)
	tp.evidence.err = errors.New("disk full")

	if _, err := tp.orch.ProcessFrame(context.Background(), nil); err != nil {
		t.Fatalf("ProcessFrame failed: %v", err)
	}
	if len(tp.sink.events) != 1 {
		t.Fatalf("event must be emitted without evidence, got %d", len(tp.sink.events))
	}
	if tp.sink.events[0].EvidenceURL != "" {
		t.Errorf("expected empty evidence URL, got %q", tp.sink.events[0].EvidenceURL)
	}
}

func TestOrchestrator_ExitAnnouncesGoodbye(t *testing.T) {
	cfg := entryConfig()
	cfg.EventType = database.EventExit

	matcher := &fakeMatcher{result: matchedResult()}
	strategy := &fakeStrategy{verdicts: []liveness.Verdict{{Passed: true}}}
	tp := newTestPipeline(matcher, strategy, cfg, nil)
	ctx := context.Background()

	tp.orch.ProcessFrame(ctx, nil)
	tp.clock = tp.clock.Add(time.Second)
	tp.orch.ProcessFrame(ctx, nil)

	if len(tp.announcer.messages) != 1 || tp.announcer.messages[0] != "Goodbye Jana" {
		t.Errorf("unexpected announcements: %v", tp.announcer.messages)
	}
}
