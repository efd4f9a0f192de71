package duplicates

import (
	"math"
	"sort"
	"time"

	"photo-curator/internal/logging"
	"photo-curator/internal/metrics"
	"photo-curator/internal/photo"
	"photo-curator/internal/vision"
)

// Group is an ordered set of at least two duplicate photo ids. PhotoIDs[0]
// is the suggested keeper.
type Group struct {
	PhotoIDs []string `json:"photoIds"`
}

// Keeper returns the id of the photo to keep.
func (g Group) Keeper() string {
	if len(g.PhotoIDs) == 0 {
		return ""
	}
	return g.PhotoIDs[0]
}

// Config holds the detector tunables.
type Config struct {
	Policy CandidatePolicy `yaml:"policy"`

	// Threshold is the exclusive upper bound on feature distance.
	Threshold float64 `yaml:"threshold"`

	// SizeTolerance is the maximum relative file size difference.
	SizeTolerance float64 `yaml:"size_tolerance"`

	// CreationWindow is the maximum creation time difference.
	CreationWindow time.Duration `yaml:"creation_window"`
}

// DefaultConfig returns the standard detector configuration.
func DefaultConfig() Config {
	return Config{
		Policy:         DefaultCandidatePolicy(),
		Threshold:      0.05,
		SizeTolerance:  0.05,
		CreationWindow: 2 * time.Second,
	}
}

// DistanceFunc compares two feature vectors.
type DistanceFunc func(a, b vision.FeatureVector) (float64, error)

// Detector groups duplicate photos.
type Detector struct {
	cfg      Config
	distance DistanceFunc
}

// NewDetector creates a detector using distance to compare vectors.
func NewDetector(cfg Config, distance DistanceFunc) *Detector {
	return &Detector{cfg: cfg, distance: distance}
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.cfg
}

// Detect partitions candidate photos into duplicate groups. Photos without a
// feature vector never take part. Each candidate anchors at most one group and
// is compared only with later unassigned candidates; a photo joins at most one
// group.
func (d *Detector) Detect(photos []photo.Record, vectors map[string]vision.FeatureVector, quality map[string]float64) []Group {
	candidates := make([]photo.Record, 0, len(photos))
	for _, p := range photos {
		if len(vectors[p.ID]) == 0 {
			continue
		}
		if d.cfg.Policy.IsCandidate(p) {
			candidates = append(candidates, p)
		}
	}

	logging.Debug("Duplicate detection: %d candidates out of %d photos", len(candidates), len(photos))

	var (
		groups      []Group
		assigned    = make([]bool, len(candidates))
		comparisons int
	)

	for i := range candidates {
		if assigned[i] {
			continue
		}
		anchor := candidates[i]
		members := []photo.Record{anchor}

		for j := i + 1; j < len(candidates); j++ {
			if assigned[j] {
				continue
			}
			other := candidates[j]
			if !d.metadataMatch(anchor, other) {
				continue
			}

			comparisons++
			dist, err := d.distance(vectors[anchor.ID], vectors[other.ID])
			if err != nil {
				logging.Debug("Distance %s/%s failed: %v", anchor.ID, other.ID, err)
				continue
			}
			if dist < d.cfg.Threshold {
				members = append(members, other)
				assigned[j] = true
			}
		}

		if len(members) < 2 {
			continue
		}
		assigned[i] = true
		groups = append(groups, orderGroup(members, quality))
	}

	metrics.DuplicateComparisonsTotal.Add(float64(comparisons))
	logging.Debug("Duplicate detection: %d groups after %d comparisons", len(groups), comparisons)

	return groups
}

// metadataMatch is the secondary gate. Checks whose inputs are unknown on
// either side are skipped. It runs before the distance computation because
// it is far cheaper.
func (d *Detector) metadataMatch(a, b photo.Record) bool {
	if a.Width > 0 && a.Height > 0 && b.Width > 0 && b.Height > 0 {
		if a.Width != b.Width || a.Height != b.Height {
			return false
		}
	}

	if a.FileSize > 0 && b.FileSize > 0 {
		larger := math.Max(float64(a.FileSize), float64(b.FileSize))
		if math.Abs(float64(a.FileSize-b.FileSize))/larger > d.cfg.SizeTolerance {
			return false
		}
	}

	if a.HasCreatedAt() && b.HasCreatedAt() {
		if absDuration(a.CreatedAt.Sub(b.CreatedAt)) > d.cfg.CreationWindow {
			return false
		}
	}

	return true
}

// orderGroup sorts by quality descending, then creation time descending.
func orderGroup(members []photo.Record, quality map[string]float64) Group {
	sort.SliceStable(members, func(i, j int) bool {
		qi, qj := quality[members[i].ID], quality[members[j].ID]
		if qi != qj {
			return qi > qj
		}
		if !members[i].CreatedAt.Equal(members[j].CreatedAt) {
			return members[i].CreatedAt.After(members[j].CreatedAt)
		}
		return members[i].ID < members[j].ID
	})

	ids := make([]string, len(members))
	for i, m := range members {
		ids[i] = m.ID
	}
	return Group{PhotoIDs: ids}
}
