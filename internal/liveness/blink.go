// Package liveness decides whether an observed face belongs to a present, live
// human. Two strategies exist: an active blink challenge and passive geometric
// spoof scoring. Both consume the canonical landmark mesh, frame by frame.
package liveness

import (
	"github.com/kozaktomas/face-sentry/internal/landmarks"
)

// minEyeWidth guards the EAR denominator. Anything smaller means the eye
// landmarks are degenerate (extreme profile, extractor glitch) and the frame
// carries no usable blink signal.
const minEyeWidth = 1e-6

// BlinkObservation is the per-frame output of the blink detector.
type BlinkObservation struct {
	AvgEAR    float64
	BlinkEdge bool
}

// BlinkDetector detects blink edges from the eye aspect ratio. It is stateful:
// a blink is signaled only on the frame where the eyes reopen after being
// closed for at least consecFrames consecutive frames. Sustained closed eyes
// never signal.
type BlinkDetector struct {
	earThreshold float64
	consecFrames int
	closedFrames int
}

// NewBlinkDetector creates a detector. consecFrames below 2 is clamped to 2 so
// a single noisy low-EAR frame can never pass as a blink.
func NewBlinkDetector(earThreshold float64, consecFrames int) *BlinkDetector {
	if consecFrames < 2 {
		consecFrames = 2
	}
	return &BlinkDetector{
		earThreshold: earThreshold,
		consecFrames: consecFrames,
	}
}

// Observe processes one frame of landmarks. Frames with degenerate eye
// geometry are no-ops: they neither advance nor reset the closed counter.
func (d *BlinkDetector) Observe(face landmarks.Face) BlinkObservation {
	if !face.HasEyes() {
		return BlinkObservation{}
	}

	left, okL := eyeAspectRatio(face, landmarks.LeftEye)
	right, okR := eyeAspectRatio(face, landmarks.RightEye)
	if !okL || !okR {
		return BlinkObservation{}
	}

	avg := (left + right) / 2.0

	if avg < d.earThreshold {
		d.closedFrames++
		return BlinkObservation{AvgEAR: avg}
	}

	// Eyes open. A blink is confirmed only if they were closed long enough.
	edge := d.closedFrames >= d.consecFrames
	d.closedFrames = 0
	return BlinkObservation{AvgEAR: avg, BlinkEdge: edge}
}

// Reset clears the closed-frame counter, used when the session restarts.
func (d *BlinkDetector) Reset() {
	d.closedFrames = 0
}

// eyeAspectRatio computes (|p2-p6| + |p3-p5|) / (2 * |p1-p4|) over the
// six-point eye contour: p1 outer corner, p2/p3 upper lid, p4 inner corner,
// p5/p6 lower lid.
func eyeAspectRatio(face landmarks.Face, eye [6]int) (float64, bool) {
	a := landmarks.Dist2D(face[eye[1]], face[eye[5]])
	b := landmarks.Dist2D(face[eye[2]], face[eye[4]])
	c := landmarks.Dist2D(face[eye[0]], face[eye[3]])

	if c < minEyeWidth {
		return 0, false
	}
	return (a + b) / (2.0 * c), true
}
