package media

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"photo-curator/internal/logging"
	"photo-curator/internal/metrics"
	"photo-curator/internal/photo"
)

const (
	// DefaultThumbnailTimeout bounds a single thumbnail fetch.
	DefaultThumbnailTimeout = 5 * time.Second

	// DefaultThumbnailDimension is the longest side requested for analysis.
	DefaultThumbnailDimension = 512
)

// ErrNoImage is returned when a photo's pixels could not be obtained.
var ErrNoImage = errors.New("no image available")

// ThumbnailLoader fetches bounded-size decoded images from a photo store.
// It is the only component that touches the store's pixels.
type ThumbnailLoader struct {
	store        photo.Store
	maxDimension int
	timeout      time.Duration
}

// NewThumbnailLoader creates a loader. Non-positive arguments select the
// defaults.
func NewThumbnailLoader(store photo.Store, maxDimension int, timeout time.Duration) *ThumbnailLoader {
	if maxDimension <= 0 {
		maxDimension = DefaultThumbnailDimension
	}
	if timeout <= 0 {
		timeout = DefaultThumbnailTimeout
	}
	return &ThumbnailLoader{
		store:        store,
		maxDimension: maxDimension,
		timeout:      timeout,
	}
}

type decodeResult struct {
	img   image.Image
	err   error
	panic bool
}

// Load fetches the image for rec. Every failure, including the timeout and a
// panicking store, resolves to an error wrapping ErrNoImage.
func (l *ThumbnailLoader) Load(ctx context.Context, rec photo.Record) (image.Image, error) {
	start := time.Now()
	status := "success"
	defer func() {
		metrics.ThumbnailLoadsTotal.WithLabelValues(status).Inc()
		metrics.ThumbnailLoadDuration.Observe(time.Since(start).Seconds())
	}()

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	// Buffered so an abandoned decode can always finish its send.
	done := make(chan decodeResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- decodeResult{err: fmt.Errorf("decode panic: %v", r), panic: true}
			}
		}()
		img, err := l.store.Decode(ctx, rec, l.maxDimension)
		done <- decodeResult{img: img, err: err}
	}()

	select {
	case <-ctx.Done():
		status = "timeout"
		logging.Debug("Thumbnail load for %s abandoned: %v", rec.ID, ctx.Err())
		return nil, fmt.Errorf("%w: %s: %v", ErrNoImage, rec.ID, ctx.Err())
	case r := <-done:
		switch {
		case r.panic:
			status = "panic"
		case r.err != nil:
			status = "error"
		case isNilImage(r.img):
			status = "error"
			r.err = errors.New("store returned no image")
		}
		if r.err != nil {
			logging.Debug("Thumbnail load for %s failed: %v", rec.ID, r.err)
			return nil, fmt.Errorf("%w: %s: %v", ErrNoImage, rec.ID, r.err)
		}
		return r.img, nil
	}
}
