package duplicates

import (
	"time"

	"photo-curator/internal/photo"
)

// CandidatePolicy decides which photos take part in duplicate detection.
type CandidatePolicy struct {
	// NonCameraOrigin makes photos from shared, synced or imported sources
	// candidates.
	NonCameraOrigin bool `yaml:"non_camera_origin"`

	// EditWindow makes photos candidates when modification and creation
	// differ by more than this. Zero disables the rule.
	EditWindow time.Duration `yaml:"edit_window"`

	// ExcludeLocated removes photos carrying location metadata regardless
	// of the other rules; they are almost always camera originals.
	ExcludeLocated bool `yaml:"exclude_located"`
}

// DefaultCandidatePolicy returns the standard policy.
func DefaultCandidatePolicy() CandidatePolicy {
	return CandidatePolicy{
		NonCameraOrigin: true,
		EditWindow:      60 * time.Second,
		ExcludeLocated:  true,
	}
}

// IsCandidate applies the policy to rec.
func (p CandidatePolicy) IsCandidate(rec photo.Record) bool {
	if p.ExcludeLocated && rec.HasLocation {
		return false
	}
	if p.NonCameraOrigin && rec.Origin.IsNonCamera() {
		return true
	}
	if p.EditWindow > 0 && rec.HasCreatedAt() && rec.HasModifiedAt() {
		if absDuration(rec.ModifiedAt.Sub(rec.CreatedAt)) > p.EditWindow {
			return true
		}
	}
	return false
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
