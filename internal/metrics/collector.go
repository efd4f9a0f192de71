package metrics

import (
	"os"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"photo-curator/internal/logging"
)

// StatsProvider interface for collecting stats
type StatsProvider interface {
	GetStats() Stats
}

// Stats holds the current curation statistics.
type Stats struct {
	TotalPhotos     int
	CacheEntries    int
	DuplicateGroups int
	Categories      map[string]int
}

// Collector periodically collects and updates metrics
type Collector struct {
	statsProvider StatsProvider
	interval      time.Duration
	dbPath        string
	stopChan      chan struct{}
	stopOnce      sync.Once
}

// NewCollector creates a new metrics collector. dbPath may be empty to skip
// database size collection.
func NewCollector(provider StatsProvider, dbPath string, interval time.Duration) *Collector {
	return &Collector{
		statsProvider: provider,
		interval:      interval,
		dbPath:        dbPath,
		stopChan:      make(chan struct{}),
	}
}

// Start begins the metrics collection loop
func (c *Collector) Start() {
	go c.collectLoop()
}

// Stop stops the metrics collection. Safe to call more than once.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stopChan) })
}

func (c *Collector) collectLoop() {
	// Collect immediately on start
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stopChan:
			return
		}
	}
}

func (c *Collector) collect() {
	collectMemoryMetrics()
	c.collectDBSize()

	if c.statsProvider == nil {
		return
	}

	stats := c.statsProvider.GetStats()

	LibraryPhotos.Set(float64(stats.TotalPhotos))
	CacheEntries.Set(float64(stats.CacheEntries))
	DuplicateGroups.Set(float64(stats.DuplicateGroups))
	for category, n := range stats.Categories {
		PhotosByCategory.WithLabelValues(category).Set(float64(n))
	}

	logging.Debug("Metrics collected: photos=%d, cache=%d, duplicate groups=%d",
		stats.TotalPhotos, stats.CacheEntries, stats.DuplicateGroups)
}

func collectMemoryMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	GoHeapAllocBytes.Set(float64(m.HeapAlloc))
	GoGoroutines.Set(float64(runtime.NumGoroutine()))

	if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < 1<<62 {
		MemoryUsageRatio.Set(float64(m.HeapAlloc) / float64(limit))
	}
}

func (c *Collector) collectDBSize() {
	if c.dbPath == "" {
		return
	}

	for file, path := range map[string]string{
		"main": c.dbPath,
		"wal":  c.dbPath + "-wal",
		"shm":  c.dbPath + "-shm",
	} {
		info, err := os.Stat(path)
		if err != nil {
			DBSizeBytes.WithLabelValues(file).Set(0)
			continue
		}
		DBSizeBytes.WithLabelValues(file).Set(float64(info.Size()))
	}
}
