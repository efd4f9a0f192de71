package analysis

import (
	"photo-curator/internal/vision"
)

// Result is the in-memory analysis of one photo for one run. Results are
// replaced wholesale, never merged.
type Result struct {
	PhotoID        string
	FeatureVector  vision.FeatureVector
	Labels         []vision.Label
	FaceCount      int
	QualityScore   float64
	ColorSignature ColorSignature

	HadFeatureVector bool
	HadLabels        bool
	HadFaces         bool

	// FromCache marks a result reconstructed from a cache entry. Its labels
	// are placeholders and it carries no feature vector.
	FromCache bool
}

// NewResult builds a result from a vision outcome and the photo's pixel
// dimensions.
func NewResult(out vision.Outcome, width, height int) Result {
	return Result{
		PhotoID:          out.PhotoID,
		FeatureVector:    out.FeatureVector,
		Labels:           out.Labels,
		FaceCount:        out.FaceCount,
		QualityScore:     QualityScore(width, height),
		ColorSignature:   NewColorSignature(width, height),
		HadFeatureVector: len(out.FeatureVector) > 0,
		HadLabels:        out.HadLabels,
		HadFaces:         out.HadFaces,
	}
}

// TopLabels returns at most n labels in confidence order.
func (r Result) TopLabels(n int) []vision.Label {
	if len(r.Labels) <= n {
		return append([]vision.Label(nil), r.Labels...)
	}
	return append([]vision.Label(nil), r.Labels[:n]...)
}
