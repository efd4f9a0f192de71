package library

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"photo-curator/internal/logging"
	"photo-curator/internal/media"
	"photo-curator/internal/metrics"
	"photo-curator/internal/photo"
	"photo-curator/internal/workers"
)

// Config configures library scans.
type Config struct {
	// Workers is the number of scan workers (0 = auto).
	Workers int
	// ChannelBuffer is the size of the job and result channel buffers.
	ChannelBuffer int
	// SkipHidden skips files and directories starting with ".".
	SkipHidden bool
}

// DefaultConfig returns scan defaults sized for I/O-bound work.
func DefaultConfig() Config {
	return Config{
		Workers:       workers.ForIO(8),
		ChannelBuffer: 1000,
		SkipHidden:    true,
	}
}

// Library is a photo library rooted at a directory.
type Library struct {
	root string
	cfg  Config

	mu       sync.RWMutex
	lastScan time.Time
	count    int
}

// New creates a library for root.
func New(root string, cfg Config) *Library {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.ChannelBuffer <= 0 {
		cfg.ChannelBuffer = def.ChannelBuffer
	}
	return &Library{root: root, cfg: cfg}
}

// Photos scans the library and returns its photos ordered by id.
func (l *Library) Photos(ctx context.Context) ([]photo.Record, error) {
	start := time.Now()

	records, err := newWalker(l.root, l.cfg).walk(ctx)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", l.root, err)
	}
	sort.Slice(records, func(i, j int) bool { return records[i].ID < records[j].ID })

	duration := time.Since(start)
	metrics.LibraryScanDuration.Observe(duration.Seconds())
	metrics.LibraryPhotos.Set(float64(len(records)))
	logging.Info("Library scan found %d photos in %v", len(records), duration.Round(time.Millisecond))

	l.mu.Lock()
	l.lastScan = time.Now()
	l.count = len(records)
	l.mu.Unlock()

	return records, nil
}

// LastScan returns when the library was last scanned and how many photos
// were found.
func (l *Library) LastScan() (time.Time, int) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastScan, l.count
}

// Decode decodes rec scaled to fit maxDimension.
func (l *Library) Decode(ctx context.Context, rec photo.Record, maxDimension int) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rel := rec.Path
	if rel == "" {
		rel = rec.ID
	}
	full, err := l.resolve(rel)
	if err != nil {
		return nil, err
	}
	return media.DecodeFile(full, maxDimension)
}

// resolve joins rel onto the root, refusing paths that escape it.
func (l *Library) resolve(rel string) (string, error) {
	full := filepath.Join(l.root, filepath.FromSlash(rel))
	back, err := filepath.Rel(l.root, full)
	if err != nil || back == ".." || strings.HasPrefix(back, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("path %q is outside the library", rel)
	}
	return full, nil
}
