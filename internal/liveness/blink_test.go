package liveness

import (
	"math"
	"testing"

	"github.com/kozaktomas/face-sentry/internal/landmarks"
)

// faceWithEAR builds a synthetic mesh where both eyes compute the given eye
// aspect ratio. Eye width C is fixed at 0.1 and both lid distances A and B are
// ear*0.1, so (A+B)/(2C) = ear.
func faceWithEAR(ear float64) landmarks.Face {
	face := make(landmarks.Face, landmarks.MeshSize)

	half := ear * 0.1 / 2
	for _, eye := range [][6]int{landmarks.LeftEye, landmarks.RightEye} {
		face[eye[0]] = landmarks.Point{X: 0.3, Y: 0.4}       // outer corner
		face[eye[3]] = landmarks.Point{X: 0.4, Y: 0.4}       // inner corner
		face[eye[1]] = landmarks.Point{X: 0.33, Y: 0.4 - half} // upper lid
		face[eye[5]] = landmarks.Point{X: 0.33, Y: 0.4 + half} // lower lid
		face[eye[2]] = landmarks.Point{X: 0.37, Y: 0.4 - half}
		face[eye[4]] = landmarks.Point{X: 0.37, Y: 0.4 + half}
	}
	return face
}

// degenerateEyeFace collapses both eye corners onto one point.
func degenerateEyeFace() landmarks.Face {
	face := faceWithEAR(0.3)
	for _, eye := range [][6]int{landmarks.LeftEye, landmarks.RightEye} {
		face[eye[3]] = face[eye[0]]
	}
	return face
}

func TestBlinkDetector_EARComputation(t *testing.T) {
	d := NewBlinkDetector(0.22, 2)

	obs := d.Observe(faceWithEAR(0.30))
	if math.Abs(obs.AvgEAR-0.30) > 0.001 {
		t.Errorf("expected avg EAR 0.30, got %v", obs.AvgEAR)
	}
	if obs.BlinkEdge {
		t.Error("open eyes must not signal a blink")
	}
}

func TestBlinkDetector_TwoLowFramesThenRiseSignalsOnce(t *testing.T) {
	d := NewBlinkDetector(0.22, 2)

	open := faceWithEAR(0.30)
	closed := faceWithEAR(0.10)

	frames := []landmarks.Face{open, closed, closed, open, open}
	var edges []bool
	for _, f := range frames {
		edges = append(edges, d.Observe(f).BlinkEdge)
	}

	want := []bool{false, false, false, true, false}
	for i := range want {
		if edges[i] != want[i] {
			t.Errorf("frame %d: blink_edge = %v, want %v", i, edges[i], want[i])
		}
	}
}

func TestBlinkDetector_SingleLowFrameNeverSignals(t *testing.T) {
	d := NewBlinkDetector(0.22, 2)

	for _, f := range []landmarks.Face{faceWithEAR(0.30), faceWithEAR(0.10), faceWithEAR(0.30), faceWithEAR(0.30)} {
		if d.Observe(f).BlinkEdge {
			t.Fatal("one low frame must not count as a blink")
		}
	}
}

func TestBlinkDetector_SustainedClosedNeverSignals(t *testing.T) {
	d := NewBlinkDetector(0.22, 2)

	closed := faceWithEAR(0.10)
	for i := 0; i < 50; i++ {
		if d.Observe(closed).BlinkEdge {
			t.Fatalf("frame %d: closed eyes without reopening must not signal", i)
		}
	}
}

func TestBlinkDetector_DegenerateEyeGeometryIsNoOp(t *testing.T) {
	d := NewBlinkDetector(0.22, 2)

	// Two closed frames, then a degenerate frame, then reopening. The
	// degenerate frame must not reset the counter, so the blink still fires.
	d.Observe(faceWithEAR(0.10))
	d.Observe(faceWithEAR(0.10))

	obs := d.Observe(degenerateEyeFace())
	if obs.BlinkEdge || obs.AvgEAR != 0 {
		t.Errorf("degenerate frame must be a no-op, got %+v", obs)
	}

	if !d.Observe(faceWithEAR(0.30)).BlinkEdge {
		t.Error("expected blink edge on reopening after degenerate no-op frame")
	}
}

func TestBlinkDetector_ShortMeshIsNoOp(t *testing.T) {
	d := NewBlinkDetector(0.22, 2)

	obs := d.Observe(make(landmarks.Face, 10))
	if obs.BlinkEdge || obs.AvgEAR != 0 {
		t.Errorf("short mesh must be a no-op, got %+v", obs)
	}
}

func TestBlinkDetector_ResetClearsCounter(t *testing.T) {
	d := NewBlinkDetector(0.22, 2)

	d.Observe(faceWithEAR(0.10))
	d.Observe(faceWithEAR(0.10))
	d.Reset()

	if d.Observe(faceWithEAR(0.30)).BlinkEdge {
		t.Error("reset must clear the closed-frame counter")
	}
}

func TestBlinkDetector_ConsecFramesClampedToTwo(t *testing.T) {
	d := NewBlinkDetector(0.22, 0)

	d.Observe(faceWithEAR(0.10))
	if d.Observe(faceWithEAR(0.30)).BlinkEdge {
		t.Error("a single low frame must never signal even with consecFrames 0")
	}
}
