package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"photo-curator/internal/analysis"
	"photo-curator/internal/duplicates"
	"photo-curator/internal/logging"
	"photo-curator/internal/metrics"
	"photo-curator/internal/photo"
)

const (
	// Version is the cache format version. Blobs with any other version are
	// ignored.
	Version = 3

	// TTL bounds how long a blob stays usable after its last analysis.
	TTL = 30 * 24 * time.Hour

	// DefaultKey is the well-known store key holding the blob.
	DefaultKey = "photo_analysis_cache"
)

// ErrCacheAbsent is returned by Load when no usable blob exists.
var ErrCacheAbsent = errors.New("analysis cache absent")

// KV is the durable key-value store holding the blob.
type KV interface {
	GetMetadata(ctx context.Context, key string) (string, error)
	SetMetadata(ctx context.Context, key, value string) error
	DeleteMetadata(ctx context.Context, key string) error
}

// blob is the persisted layout.
type blob struct {
	Version         int                `json:"version"`
	LastAnalysis    time.Time          `json:"lastAnalysis"`
	Entries         map[string]Entry   `json:"entries"`
	DuplicateGroups []duplicates.Group `json:"duplicateGroups,omitempty"`
}

// Stats summarizes the cache for presentation.
type Stats struct {
	Entries    int       `json:"entries"`
	LastUpdate time.Time `json:"lastUpdate"`
	Valid      bool      `json:"valid"`
}

// Option configures a Cache.
type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

// WithKey stores the blob under key instead of DefaultKey.
func WithKey(key string) Option {
	return func(c *Cache) { c.key = key }
}

// Cache is the in-memory view of the persisted blob. It is safe for
// concurrent use, though the pipeline only writes from its scheduler.
type Cache struct {
	kv  KV
	key string
	now func() time.Time

	mu           sync.RWMutex
	version      int
	lastAnalysis time.Time
	entries      map[string]Entry
	groups       []duplicates.Group
}

// New creates an empty cache backed by kv. Call Load to read the blob.
func New(kv KV, opts ...Option) *Cache {
	c := &Cache{
		kv:      kv,
		key:     DefaultKey,
		now:     time.Now,
		version: Version,
		entries: make(map[string]Entry),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load replaces the in-memory state with the persisted blob. A missing,
// unreadable or foreign-version blob leaves the cache empty and returns an
// error wrapping ErrCacheAbsent.
func (c *Cache) Load(ctx context.Context) error {
	raw, err := c.kv.GetMetadata(ctx, c.key)
	if err != nil {
		c.reset()
		return fmt.Errorf("%w: %v", ErrCacheAbsent, err)
	}

	var b blob
	if err := json.Unmarshal([]byte(raw), &b); err != nil {
		logging.Warn("Discarding unreadable analysis cache: %v", err)
		c.reset()
		return fmt.Errorf("%w: %v", ErrCacheAbsent, err)
	}

	if b.Version != Version {
		logging.Info("Discarding analysis cache with version %d (current %d)", b.Version, Version)
		c.reset()
		return fmt.Errorf("%w: version %d", ErrCacheAbsent, b.Version)
	}

	c.mu.Lock()
	c.version = b.Version
	c.lastAnalysis = b.LastAnalysis
	c.entries = b.Entries
	if c.entries == nil {
		c.entries = make(map[string]Entry)
	}
	c.groups = b.DuplicateGroups
	c.mu.Unlock()

	metrics.CacheEntries.Set(float64(len(b.Entries)))
	logging.Info("Loaded analysis cache: %d entries, last analysis %s", len(b.Entries), b.LastAnalysis.Format(time.RFC3339))
	return nil
}

func (c *Cache) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version = Version
	c.lastAnalysis = time.Time{}
	c.entries = make(map[string]Entry)
	c.groups = nil
}

// IsValid reports whether the cache may be used: it has been flushed less
// than TTL ago and its version is current.
func (c *Cache) IsValid() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.validLocked()
}

func (c *Cache) validLocked() bool {
	if c.version != Version || c.lastAnalysis.IsZero() {
		return false
	}
	return c.now().Sub(c.lastAnalysis) < TTL
}

// Lookup returns the entry for rec if the cache is valid and the entry was
// stored for exactly rec's current modification timestamp. Two absent
// timestamps count as equal.
func (c *Cache) Lookup(rec photo.Record) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.validLocked() {
		return Entry{}, false
	}
	e, ok := c.entries[rec.ID]
	if !ok || e.Version != Version {
		return Entry{}, false
	}
	if !e.ModifiedAt.Equal(rec.ModifiedAt) {
		return Entry{}, false
	}
	return e, true
}

// Store upserts the entry for rec in memory. Nothing is written until Flush.
func (c *Cache) Store(rec photo.Record, res analysis.Result, a analysis.Assignment) {
	e := newEntry(rec.ModifiedAt, res, a)
	e.PhotoID = rec.ID

	c.mu.Lock()
	c.entries[rec.ID] = e
	c.mu.Unlock()
}

// Prune drops entries for photos not in present and returns how many were
// removed.
func (c *Cache) Prune(present map[string]struct{}) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for id := range c.entries {
		if _, ok := present[id]; !ok {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// SetDuplicateGroups records the groups to persist with the next Flush.
func (c *Cache) SetDuplicateGroups(groups []duplicates.Group) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups = append([]duplicates.Group(nil), groups...)
}

// DuplicateGroups returns the persisted groups, or nil when the cache is not
// valid.
func (c *Cache) DuplicateGroups() []duplicates.Group {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.validLocked() {
		return nil
	}
	return append([]duplicates.Group(nil), c.groups...)
}

// Flush stamps the cache with the current time and writes the whole blob.
func (c *Cache) Flush(ctx context.Context) error {
	c.mu.Lock()
	c.lastAnalysis = c.now()
	c.version = Version
	b := blob{
		Version:         c.version,
		LastAnalysis:    c.lastAnalysis,
		Entries:         c.entries,
		DuplicateGroups: c.groups,
	}
	data, err := json.Marshal(b)
	n := len(c.entries)
	c.mu.Unlock()

	if err == nil {
		err = c.kv.SetMetadata(ctx, c.key, string(data))
	}
	if err != nil {
		metrics.CacheFlushesTotal.WithLabelValues("error").Inc()
		logging.Warn("Failed to persist analysis cache: %v", err)
		return fmt.Errorf("flush analysis cache: %w", err)
	}

	metrics.CacheFlushesTotal.WithLabelValues("success").Inc()
	metrics.CacheEntries.Set(float64(n))
	metrics.CacheLastFlushTimestamp.Set(float64(b.LastAnalysis.Unix()))
	logging.Debug("Flushed analysis cache: %d entries, %d bytes", n, len(data))
	return nil
}

// Clear discards all entries and removes the blob from the store.
func (c *Cache) Clear(ctx context.Context) error {
	c.reset()
	metrics.CacheEntries.Set(0)

	if err := c.kv.DeleteMetadata(ctx, c.key); err != nil {
		logging.Warn("Failed to remove analysis cache: %v", err)
		return fmt.Errorf("clear analysis cache: %w", err)
	}
	logging.Info("Analysis cache cleared")
	return nil
}

// Len returns the number of entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns the entry count, last update and validity.
func (c *Cache) Stats() Stats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Stats{
		Entries:    len(c.entries),
		LastUpdate: c.lastAnalysis,
		Valid:      c.validLocked(),
	}
}
