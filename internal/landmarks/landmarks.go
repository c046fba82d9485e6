// Package landmarks defines the canonical facial landmark layout produced by the
// inference sidecar (MediaPipe FaceMesh 468-point topology) and the small amount of
// geometry the pipeline needs on top of it.
package landmarks

import "math"

// Point is a single landmark in normalized image coordinates.
// X and Y are in [0, 1] relative to the frame, Z is relative depth with the
// head center as origin (negative = closer to the camera).
type Point struct {
	X float64
	Y float64
	Z float64
}

// Face is an ordered list of landmark points with fixed canonical indexing.
type Face []Point

// MeshSize is the number of points in the canonical face mesh.
const MeshSize = 468

// Canonical indices into the face mesh.
const (
	NoseTip    = 1
	Chin       = 152
	TopOfHead  = 10
	LeftCheek  = 234
	RightCheek = 454
)

// Six-point eye contours used for the eye aspect ratio: outer corner, two
// upper-lid points, inner corner, two lower-lid points.
var (
	LeftEye  = [6]int{33, 160, 158, 133, 153, 144}
	RightEye = [6]int{362, 385, 387, 263, 373, 380}
)

// maxEyeIndex is the highest index referenced by the eye contours.
var maxEyeIndex = func() int {
	m := 0
	for _, i := range LeftEye {
		if i > m {
			m = i
		}
	}
	for _, i := range RightEye {
		if i > m {
			m = i
		}
	}
	return m
}()

// Dist2D returns the euclidean distance between two points in the image plane,
// ignoring depth.
func Dist2D(a, b Point) float64 {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// HasEyes reports whether the face carries every point the eye contours reference.
func (f Face) HasEyes() bool {
	return len(f) > maxEyeIndex
}

// HasPoseAnchors reports whether the face carries the points used for pitch and
// depth scoring.
func (f Face) HasPoseAnchors() bool {
	for _, i := range []int{NoseTip, Chin, TopOfHead, LeftCheek, RightCheek} {
		if i >= len(f) {
			return false
		}
	}
	return true
}
