package metrics

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

type mockStatsProvider struct {
	mu    sync.Mutex
	stats Stats
	calls int
}

func (m *mockStatsProvider) GetStats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.stats
}

func (m *mockStatsProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestNewCollector(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, "/data/curator.db", time.Minute)

	if c.statsProvider != provider {
		t.Error("Expected stats provider to be set")
	}
	if c.interval != time.Minute {
		t.Errorf("Expected interval 1m, got %v", c.interval)
	}
	if c.dbPath != "/data/curator.db" {
		t.Errorf("Expected dbPath to be set, got %q", c.dbPath)
	}
}

func TestCollectWithStatsProvider(t *testing.T) {
	provider := &mockStatsProvider{stats: Stats{
		TotalPhotos:     1200,
		CacheEntries:    1180,
		DuplicateGroups: 14,
		Categories:      map[string]int{"people": 300, "nature": 90},
	}}
	c := NewCollector(provider, "", time.Minute)

	c.collect()

	tests := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"LibraryPhotos", testutil.ToFloat64(LibraryPhotos), 1200},
		{"CacheEntries", testutil.ToFloat64(CacheEntries), 1180},
		{"DuplicateGroups", testutil.ToFloat64(DuplicateGroups), 14},
		{"people", testutil.ToFloat64(PhotosByCategory.WithLabelValues("people")), 300},
		{"nature", testutil.ToFloat64(PhotosByCategory.WithLabelValues("nature")), 90},
	}
	for _, tt := range tests {
		if tt.got != tt.expected {
			t.Errorf("%s = %v, expected %v", tt.name, tt.got, tt.expected)
		}
	}
}

func TestCollectWithNilProvider(t *testing.T) {
	c := NewCollector(nil, "", time.Minute)
	c.collect()

	if testutil.ToFloat64(GoGoroutines) <= 0 {
		t.Error("Expected goroutine gauge to be set even without a stats provider")
	}
}

func TestCollectMemoryMetrics(t *testing.T) {
	collectMemoryMetrics()

	if testutil.ToFloat64(GoHeapAllocBytes) <= 0 {
		t.Error("Expected heap alloc gauge to be positive")
	}
}

func TestCollectDBSize(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "curator.db")
	if err := os.WriteFile(dbPath, make([]byte, 4096), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(dbPath+"-wal", make([]byte, 512), 0o644); err != nil {
		t.Fatal(err)
	}

	c := NewCollector(nil, dbPath, time.Minute)
	c.collectDBSize()

	tests := map[string]float64{"main": 4096, "wal": 512, "shm": 0}
	for file, expected := range tests {
		if got := testutil.ToFloat64(DBSizeBytes.WithLabelValues(file)); got != expected {
			t.Errorf("DBSizeBytes{%s} = %v, expected %v", file, got, expected)
		}
	}
}

func TestCollectorStartStop(t *testing.T) {
	provider := &mockStatsProvider{}
	c := NewCollector(provider, "", 10*time.Millisecond)

	c.Start()
	deadline := time.Now().Add(2 * time.Second)
	for provider.callCount() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	c.Stop()
	c.Stop()

	if provider.callCount() < 2 {
		t.Errorf("Expected at least 2 collections, got %d", provider.callCount())
	}
}

func TestInitializeMetrics(t *testing.T) {
	InitializeMetrics()
	InitializeMetrics()

	if n := testutil.CollectAndCount(PhotosAnalyzedTotal); n != 4*6 {
		t.Errorf("Expected 24 analyzed series, got %d", n)
	}
	if n := testutil.CollectAndCount(ModeTransitionsTotal); n != 4*3 {
		t.Errorf("Expected 12 transition series, got %d", n)
	}
	if n := testutil.CollectAndCount(ProcessingMode); n != 4 {
		t.Errorf("Expected 4 mode series, got %d", n)
	}
}
