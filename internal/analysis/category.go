package analysis

import (
	"sort"
)

// Category is a coarse grouping shown to the user.
type Category string

// Categories.
const (
	CategoryPeople    Category = "people"
	CategoryNature    Category = "nature"
	CategoryFood      Category = "food"
	CategoryDocuments Category = "documents"
	CategoryNight     Category = "night"
	CategoryOther     Category = "other"
)

// Categories lists every category in display order.
var Categories = []Category{
	CategoryPeople,
	CategoryNature,
	CategoryFood,
	CategoryDocuments,
	CategoryNight,
	CategoryOther,
}

const (
	faceConfidence     = 0.5
	fallbackConfidence = 0.3
	minLabelConfidence = 0.3
)

// labelCategories maps scene labels to the category they drive.
var labelCategories = map[string]Category{
	"sky":        CategoryNature,
	"vegetation": CategoryNature,
	"outdoor":    CategoryNature,
	"beach":      CategoryNature,
	"mountain":   CategoryNature,
	"food":       CategoryFood,
	"document":   CategoryDocuments,
	"text":       CategoryDocuments,
	"night":      CategoryNight,
	"person":     CategoryPeople,
	"people":     CategoryPeople,
}

// Assignment is a category with the confidence that drove it.
type Assignment struct {
	Category   Category `json:"category"`
	Confidence float64  `json:"confidence"`
}

// Categorize assigns a category to a result. Detected faces win; otherwise
// the most confident mapped scene label decides, and photos without one fall
// back to other.
func Categorize(r Result) Assignment {
	if r.HadFaces && r.FaceCount > 0 {
		return Assignment{Category: CategoryPeople, Confidence: faceConfidence}
	}

	best := Assignment{Category: CategoryOther, Confidence: fallbackConfidence}
	found := false
	for _, l := range r.Labels {
		c, ok := labelCategories[l.Name]
		if !ok || l.Confidence < minLabelConfidence {
			continue
		}
		if !found || l.Confidence > best.Confidence {
			best = Assignment{Category: c, Confidence: l.Confidence}
			found = true
		}
	}
	return best
}

// GroupByCategory inverts per-photo assignments into category -> photo ids,
// with ids sorted. Empty categories are omitted.
func GroupByCategory(assignments map[string]Assignment) map[Category][]string {
	groups := make(map[Category][]string)
	for id, a := range assignments {
		groups[a.Category] = append(groups[a.Category], id)
	}
	for _, ids := range groups {
		sort.Strings(ids)
	}
	return groups
}
