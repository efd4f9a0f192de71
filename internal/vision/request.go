package vision

import (
	"fmt"

	"photo-curator/internal/adaptive"
	"photo-curator/internal/photo"
)

// RequestKind identifies an analysis the engine can perform.
type RequestKind int

const (
	// FeaturePrint extracts the feature vector used for duplicate detection.
	FeaturePrint RequestKind = iota
	// SceneClassification produces scene labels for categorization.
	SceneClassification
	// FaceDetection counts faces.
	FaceDetection
)

func (k RequestKind) String() string {
	switch k {
	case FeaturePrint:
		return "feature_print"
	case SceneClassification:
		return "scene_classification"
	case FaceDetection:
		return "face_detection"
	default:
		return fmt.Sprintf("request(%d)", int(k))
	}
}

// CropAndScale controls how the engine fits the image to its input size.
type CropAndScale int

const (
	// ScaleFit scales the whole image into the input without cropping.
	ScaleFit CropAndScale = iota
	// CenterCrop crops to the input aspect ratio. Never requested: automatic
	// cropping crashes on some malformed images.
	CenterCrop
)

// Request is a single analysis request.
type Request struct {
	Kind RequestKind
	// CPUOnly disables hardware acceleration.
	CPUOnly bool
	// SoftwareCompositing forces a software rendering context.
	SoftwareCompositing bool
	Crop                CropAndScale
}

// Strategy is how a set of requests is executed.
type Strategy int

const (
	// Batched performs all requests in one engine call; any error fails all.
	Batched Strategy = iota
	// Independent performs requests one at a time and continues past
	// individual failures.
	Independent
	// Isolated is Independent with each request in its own recover and
	// cleanup scope.
	Isolated
)

func (s Strategy) String() string {
	switch s {
	case Batched:
		return "batched"
	case Independent:
		return "independent"
	case Isolated:
		return "isolated"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// Plan is the ordered request set for one photo plus how to run it.
type Plan struct {
	Requests []Request
	Strategy Strategy
}

// Has reports whether the plan contains a request of the given kind.
func (p Plan) Has(kind RequestKind) bool {
	for _, r := range p.Requests {
		if r.Kind == kind {
			return true
		}
	}
	return false
}

// BuildRequests returns the analysis plan for a photo in the given mode.
//
// HEIF/HEVC resources never get hardware acceleration, whatever the mode.
func BuildRequests(rec photo.Record, mode adaptive.Mode) Plan {
	var (
		kinds    []RequestKind
		cpuOnly  bool
		software bool
		strategy Strategy
	)

	switch mode {
	case adaptive.Fast:
		kinds = []RequestKind{FeaturePrint, SceneClassification}
		strategy = Batched
	case adaptive.Balanced:
		kinds = []RequestKind{FeaturePrint, SceneClassification, FaceDetection}
		cpuOnly, software = true, true
		strategy = Batched
	case adaptive.Safe:
		kinds = []RequestKind{FeaturePrint, SceneClassification, FaceDetection}
		cpuOnly, software = true, true
		strategy = Independent
	case adaptive.Emergency:
		kinds = []RequestKind{FeaturePrint}
		cpuOnly, software = true, true
		strategy = Isolated
	default:
		kinds = []RequestKind{FeaturePrint}
		cpuOnly, software = true, true
		strategy = Isolated
	}

	if rec.IsHEIF() {
		cpuOnly = true
	}

	reqs := make([]Request, 0, len(kinds))
	for _, k := range kinds {
		reqs = append(reqs, Request{
			Kind:                k,
			CPUOnly:             cpuOnly,
			SoftwareCompositing: software,
			Crop:                ScaleFit,
		})
	}

	return Plan{Requests: reqs, Strategy: strategy}
}
