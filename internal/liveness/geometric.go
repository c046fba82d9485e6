package liveness

import (
	"fmt"
	"math"

	"github.com/kozaktomas/face-sentry/internal/landmarks"
)

// Score weights for the passive geometric check. Pitch and depth carry 40
// points each; the remaining 20 is a fixed award for passing the pitch gate,
// headroom for a future micro-motion signal.
const (
	pitchPoints = 40
	depthPoints = 40
	bonusPoints = 20
)

// SpoofScore is the stateless per-frame output of the geometric scorer.
type SpoofScore struct {
	Score   int
	Passed  bool
	Reasons []string
}

// GeometricScorer flags flat or frontal presentations from head pitch and
// facial depth. A checkpoint camera is mounted high, so a genuine face looks
// slightly down at it; a photo or phone held up to the lens arrives frontal or
// tilted up, and a printed or on-screen face has no depth curvature.
type GeometricScorer struct {
	pitchThreshold float64
	depthThreshold float64
	passScore      int
}

// NewGeometricScorer creates a scorer with deployment-tuned thresholds.
func NewGeometricScorer(pitchThreshold, depthThreshold float64, passScore int) *GeometricScorer {
	return &GeometricScorer{
		pitchThreshold: pitchThreshold,
		depthThreshold: depthThreshold,
		passScore:      passScore,
	}
}

// Score evaluates one frame of landmarks. The pitch check is a hard gate: a
// face that fails it scores zero regardless of depth.
func (s *GeometricScorer) Score(face landmarks.Face) SpoofScore {
	if !face.HasPoseAnchors() {
		return SpoofScore{Reasons: []string{"landmarks incomplete"}}
	}

	nose := face[landmarks.NoseTip]
	chin := face[landmarks.Chin]
	top := face[landmarks.TopOfHead]

	headHeight := math.Abs(chin.Y - top.Y)
	if headHeight < 1e-6 {
		return SpoofScore{Reasons: []string{"degenerate head geometry"}}
	}

	// Normalized "looking down" ratio: the nose sits lower in the head span
	// when the face pitches down toward a low subject / high camera.
	ratio := math.Abs(nose.Y-top.Y) / headHeight
	pitch := (ratio - 0.5) * 200

	if pitch < s.pitchThreshold {
		return SpoofScore{
			Reasons: []string{fmt.Sprintf(
				"pitch %.1f below %.1f: frontal or tilted-up presentation", pitch, s.pitchThreshold)},
		}
	}

	score := pitchPoints + bonusPoints
	reasons := []string{fmt.Sprintf("pitch %.1f ok", pitch)}

	depthDiff := math.Abs(nose.Z - (face[landmarks.LeftCheek].Z+face[landmarks.RightCheek].Z)/2)
	if depthDiff > s.depthThreshold {
		score += depthPoints
		reasons = append(reasons, fmt.Sprintf("depth %.4f ok", depthDiff))
	} else {
		reasons = append(reasons, fmt.Sprintf("flat depth profile %.4f", depthDiff))
	}

	return SpoofScore{
		Score:   score,
		Passed:  score >= s.passScore,
		Reasons: reasons,
	}
}
