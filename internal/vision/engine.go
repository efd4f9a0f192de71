package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
)

// FeatureVector is an opaque fixed-length embedding; only distances between
// vectors are meaningful.
type FeatureVector []float32

// Label is a scene label with a confidence in [0, 1].
type Label struct {
	Name       string  `json:"name"`
	Confidence float64 `json:"confidence"`
}

// Observation is the outcome of one request.
type Observation struct {
	Kind          RequestKind
	FeatureVector FeatureVector
	Labels        []Label
	FaceCount     int
}

// Engine performs vision requests on a decoded image.
type Engine interface {
	// Perform runs the requests and returns one observation per successful
	// request. Implementations may panic on hostile input; callers recover.
	Perform(ctx context.Context, img image.Image, reqs []Request) ([]Observation, error)

	// Distance compares two feature vectors produced by this engine.
	// Smaller is more similar; identical images are 0.
	Distance(a, b FeatureVector) (float64, error)
}

// Releaser is implemented by engines holding per-request scratch memory.
// Isolated execution calls Release after every request.
type Releaser interface {
	Release()
}

// ErrVectorMismatch is returned when two vectors cannot be compared.
var ErrVectorMismatch = errors.New("feature vectors have different lengths")

// MeanAbsoluteDistance is the mean per-component absolute difference. For
// binary vectors it is the normalized Hamming distance.
func MeanAbsoluteDistance(a, b FeatureVector) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrVectorMismatch, len(a), len(b))
	}
	if len(a) == 0 {
		return 0, ErrVectorMismatch
	}
	var sum float64
	for i := range a {
		sum += math.Abs(float64(a[i]) - float64(b[i]))
	}
	return sum / float64(len(a)), nil
}
