package cache

import (
	"time"

	"photo-curator/internal/analysis"
	"photo-curator/internal/vision"
)

const (
	// maxStoredLabels is how many scene labels an entry keeps.
	maxStoredLabels = 3

	// placeholderConfidence is given to labels restored from an entry;
	// only their names are persisted.
	placeholderConfidence = 0.5
)

// Entry is the persisted summary of one photo's analysis.
type Entry struct {
	PhotoID    string    `json:"photoId"`
	ModifiedAt time.Time `json:"modifiedAt"`

	Category           analysis.Category       `json:"category"`
	CategoryConfidence float64                 `json:"categoryConfidence"`
	QualityScore       float64                 `json:"qualityScore"`
	ColorSignature     analysis.ColorSignature `json:"colorSignature"`

	HadFeatureVector bool     `json:"hadFeatureVector"`
	HadLabels        bool     `json:"hadLabels"`
	HadFaces         bool     `json:"hadFaces"`
	FaceCount        int      `json:"faceCount"`
	TopLabels        []string `json:"topLabels,omitempty"`

	Version int `json:"version"`
}

// Assignment returns the category stored with the entry.
func (e Entry) Assignment() analysis.Assignment {
	return analysis.Assignment{Category: e.Category, Confidence: e.CategoryConfidence}
}

// Result reconstructs an analysis result from the entry. Scene labels are
// placeholders carrying only the stored names, and there is no feature
// vector.
func (e Entry) Result() analysis.Result {
	var labels []vision.Label
	if len(e.TopLabels) > 0 {
		labels = make([]vision.Label, len(e.TopLabels))
		for i, name := range e.TopLabels {
			labels[i] = vision.Label{Name: name, Confidence: placeholderConfidence}
		}
	}

	return analysis.Result{
		PhotoID:          e.PhotoID,
		Labels:           labels,
		FaceCount:        e.FaceCount,
		QualityScore:     e.QualityScore,
		ColorSignature:   e.ColorSignature,
		HadFeatureVector: e.HadFeatureVector,
		HadLabels:        e.HadLabels,
		HadFaces:         e.HadFaces,
		FromCache:        true,
	}
}

func newEntry(modifiedAt time.Time, res analysis.Result, a analysis.Assignment) Entry {
	top := res.TopLabels(maxStoredLabels)
	names := make([]string, len(top))
	for i, l := range top {
		names[i] = l.Name
	}

	return Entry{
		PhotoID:            res.PhotoID,
		ModifiedAt:         modifiedAt,
		Category:           a.Category,
		CategoryConfidence: a.Confidence,
		QualityScore:       res.QualityScore,
		ColorSignature:     res.ColorSignature,
		HadFeatureVector:   res.HadFeatureVector,
		HadLabels:          res.HadLabels,
		HadFaces:           res.HadFaces,
		FaceCount:          res.FaceCount,
		TopLabels:          names,
		Version:            Version,
	}
}
