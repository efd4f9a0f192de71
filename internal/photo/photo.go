// Package photo defines the read-only photo records consumed by the analysis
// pipeline and the store interface that decodes them.
package photo

import (
	"context"
	"image"
	"strings"
	"time"
)

// Origin describes how a photo entered the library.
type Origin string

const (
	// OriginUnknown means the store could not tell.
	OriginUnknown Origin = "unknown"
	// OriginCamera is an original capture from a device camera.
	OriginCamera Origin = "camera"
	// OriginCloudShared arrived through a shared album or link.
	OriginCloudShared Origin = "cloud_shared"
	// OriginSynced arrived through device sync.
	OriginSynced Origin = "synced"
	// OriginImported was added by a user-initiated library import.
	OriginImported Origin = "imported"
)

// IsNonCamera reports whether the origin is a known non-camera source.
func (o Origin) IsNonCamera() bool {
	switch o {
	case OriginCloudShared, OriginSynced, OriginImported:
		return true
	default:
		return false
	}
}

// Record is a photo as seen by the pipeline. The pipeline never mutates it.
type Record struct {
	// ID is stable across launches.
	ID string `json:"id"`

	// CreatedAt is zero when unknown.
	CreatedAt time.Time `json:"createdAt"`
	// ModifiedAt is zero when the store has no modification date.
	ModifiedAt time.Time `json:"modifiedAt"`

	HasLocation bool   `json:"hasLocation"`
	Origin      Origin `json:"origin"`

	// Resource metadata; FileSize is 0 and Format is empty when unknown.
	FileSize int64  `json:"fileSize,omitempty"`
	Format   string `json:"format,omitempty"`

	Width  int `json:"width"`
	Height int `json:"height"`

	// Path is the store's locator for the image data.
	Path string `json:"path,omitempty"`
}

// HasModifiedAt reports whether a modification date is known.
func (r Record) HasModifiedAt() bool {
	return !r.ModifiedAt.IsZero()
}

// HasCreatedAt reports whether a creation date is known.
func (r Record) HasCreatedAt() bool {
	return !r.CreatedAt.IsZero()
}

// IsHEIF reports whether the resource format is one of the HEIF/HEVC family,
// which the vision engine is least tolerant of.
func (r Record) IsHEIF() bool {
	f := strings.ToLower(r.Format)
	return strings.Contains(f, "heif") || strings.Contains(f, "heic") || strings.Contains(f, "hevc")
}

// Store is the photo store collaborator. Decode returns the image scaled to
// fit within maxDimension on its longest side, without network access.
type Store interface {
	Decode(ctx context.Context, rec Record, maxDimension int) (image.Image, error)
}

// Source enumerates the library.
type Source interface {
	Photos(ctx context.Context) ([]Record, error)
}
