package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"photo-curator/internal/adaptive"
	"photo-curator/internal/analysis"
	"photo-curator/internal/cache"
	"photo-curator/internal/duplicates"
	"photo-curator/internal/pipeline"
	"photo-curator/internal/startup"
	"photo-curator/internal/vision"
)

// =============================================================================
// Fake curator
// =============================================================================

type fakeCurator struct {
	mu          sync.Mutex
	running     bool
	starts      int
	reanalyses  int
	clears      int
	status      pipeline.Update
	groups      []duplicates.Group
	categories  map[analysis.Category][]string
	results     map[string]analysis.Result
	assignments map[string]analysis.Assignment
	lastRun     pipeline.RunStats
	cacheStats  cache.Stats
}

func newFakeCurator() *fakeCurator {
	return &fakeCurator{
		status: pipeline.Update{
			Progress:    0.5,
			Mode:        adaptive.Safe,
			ModeDisplay: adaptive.Safe.DisplayName(),
			Running:     true,
			Completed:   50,
			Total:       100,
		},
		groups: []duplicates.Group{{PhotoIDs: []string{"b.jpg", "a.jpg"}}},
		categories: map[analysis.Category][]string{
			analysis.CategoryPeople: {"a.jpg", "b.jpg"},
			analysis.CategoryFood:   {"c.jpg"},
		},
		results: map[string]analysis.Result{
			"2024/a.jpg": {
				PhotoID:          "2024/a.jpg",
				FaceCount:        2,
				QualityScore:     0.8,
				HadFeatureVector: true,
				Labels: []vision.Label{
					{Name: "person", Confidence: 0.9},
					{Name: "sky", Confidence: 0.4},
				},
			},
			"cached.jpg": {PhotoID: "cached.jpg", FromCache: true},
		},
		assignments: map[string]analysis.Assignment{
			"2024/a.jpg": {Category: analysis.CategoryPeople, Confidence: 0.5},
		},
		lastRun: pipeline.RunStats{
			FinishedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
			Duration:   1500 * time.Millisecond,
			Photos:     100,
			CacheHits:  40,
			Analyzed:   58,
			Failed:     2,
			Groups:     1,
		},
		cacheStats: cache.Stats{Entries: 98, Valid: true, LastUpdate: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)},
	}
}

func (f *fakeCurator) Start() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.running {
		return false
	}
	f.running = true
	f.starts++
	return true
}

func (f *fakeCurator) ForceReanalysis() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reanalyses++
}

func (f *fakeCurator) ClearCache() <-chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clears++
	done := make(chan struct{})
	close(done)
	return done
}

func (f *fakeCurator) Status() pipeline.Update                    { return f.status }
func (f *fakeCurator) DuplicateGroups() []duplicates.Group        { return f.groups }
func (f *fakeCurator) Categories() map[analysis.Category][]string { return f.categories }
func (f *fakeCurator) LastRun() pipeline.RunStats                 { return f.lastRun }
func (f *fakeCurator) CacheStats() cache.Stats                    { return f.cacheStats }

func (f *fakeCurator) Result(id string) (analysis.Result, bool) {
	r, ok := f.results[id]
	return r, ok
}

func (f *fakeCurator) Assignment(id string) (analysis.Assignment, bool) {
	a, ok := f.assignments[id]
	return a, ok
}

func serve(t *testing.T, c Curator, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	router := NewRouter(New(c))
	req := httptest.NewRequest(method, path, http.NoBody)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode response %q: %v", w.Body.String(), err)
	}
}

// =============================================================================
// Analysis
// =============================================================================

func TestStartAnalysis(t *testing.T) {
	c := newFakeCurator()
	router := NewRouter(New(c))

	tests := []struct {
		name   string
		code   int
		status string
	}{
		{"first start", http.StatusAccepted, "started"},
		{"while running", http.StatusConflict, "already_running"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/analysis/start", http.NoBody))

			if w.Code != tt.code {
				t.Errorf("Expected status %d, got %d", tt.code, w.Code)
			}
			var body map[string]string
			decode(t, w, &body)
			if body["status"] != tt.status {
				t.Errorf("Expected status %q, got %q", tt.status, body["status"])
			}
		})
	}

	if c.starts != 1 {
		t.Errorf("Expected 1 start, got %d", c.starts)
	}
}

func TestReanalyze(t *testing.T) {
	c := newFakeCurator()
	w := serve(t, c, http.MethodPost, "/api/analysis/reanalyze")

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", w.Code)
	}
	if c.reanalyses != 1 {
		t.Errorf("Expected 1 re-analysis, got %d", c.reanalyses)
	}
}

func TestGetStatus(t *testing.T) {
	w := serve(t, newFakeCurator(), http.MethodGet, "/api/analysis/status")

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Expected Cache-Control no-cache, got %q", cc)
	}

	var response StatusResponse
	decode(t, w, &response)

	if response.ProgressPercent != 50 {
		t.Errorf("Expected progressPercent 50, got %d", response.ProgressPercent)
	}
	if response.Mode != "safe" || response.ModeDisplay != "Safe" {
		t.Errorf("Expected mode safe/Safe, got %s/%s", response.Mode, response.ModeDisplay)
	}
	if !response.Running || response.Completed != 50 || response.Total != 100 {
		t.Errorf("Unexpected progress counters: %+v", response)
	}
	if response.LastRun.Seconds != 1.5 {
		t.Errorf("Expected duration 1.5s, got %v", response.LastRun.Seconds)
	}
	if response.LastRun.FinishedAt != "2026-01-02T03:04:05Z" {
		t.Errorf("Expected finishedAt 2026-01-02T03:04:05Z, got %q", response.LastRun.FinishedAt)
	}
	if response.LastRun.CacheHits != 40 || response.LastRun.Failed != 2 {
		t.Errorf("Unexpected last run: %+v", response.LastRun)
	}
}

func TestGetStatusBeforeFirstRun(t *testing.T) {
	c := newFakeCurator()
	c.lastRun = pipeline.RunStats{}
	w := serve(t, c, http.MethodGet, "/api/analysis/status")

	if strings.Contains(w.Body.String(), "finishedAt") {
		t.Errorf("Expected finishedAt to be omitted, got %s", w.Body.String())
	}
}

// =============================================================================
// Results
// =============================================================================

func TestGetDuplicates(t *testing.T) {
	w := serve(t, newFakeCurator(), http.MethodGet, "/api/duplicates")

	var response struct {
		Count  int              `json:"count"`
		Groups []duplicateGroup `json:"groups"`
	}
	decode(t, w, &response)

	if response.Count != 1 || len(response.Groups) != 1 {
		t.Fatalf("Expected 1 group, got %+v", response)
	}
	if response.Groups[0].Keeper != "b.jpg" {
		t.Errorf("Expected keeper b.jpg, got %s", response.Groups[0].Keeper)
	}
}

func TestGetDuplicatesEmpty(t *testing.T) {
	c := newFakeCurator()
	c.groups = nil
	w := serve(t, c, http.MethodGet, "/api/duplicates")

	if !strings.Contains(w.Body.String(), `"groups":[]`) {
		t.Errorf("Expected an empty groups array, got %s", w.Body.String())
	}
}

func TestGetCategories(t *testing.T) {
	w := serve(t, newFakeCurator(), http.MethodGet, "/api/categories")

	var response []categoryResponse
	decode(t, w, &response)

	if len(response) != len(analysis.Categories) {
		t.Fatalf("Expected %d categories, got %d", len(analysis.Categories), len(response))
	}
	for i, c := range analysis.Categories {
		if response[i].Category != c {
			t.Errorf("Expected category %s at %d, got %s", c, i, response[i].Category)
		}
	}
	if response[0].Count != 2 {
		t.Errorf("Expected 2 people photos, got %d", response[0].Count)
	}
	for _, r := range response {
		if r.PhotoIDs == nil {
			t.Errorf("Expected photoIds array for %s, got null", r.Category)
		}
	}
}

func TestGetPhoto(t *testing.T) {
	tests := []struct {
		name string
		path string
		code int
	}{
		{"nested id", "/api/photos/2024/a.jpg", http.StatusOK},
		{"cached", "/api/photos/cached.jpg", http.StatusOK},
		{"unknown", "/api/photos/missing.jpg", http.StatusNotFound},
		{"empty", "/api/photos/", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := serve(t, newFakeCurator(), http.MethodGet, tt.path)
			if w.Code != tt.code {
				t.Errorf("Expected status %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
		})
	}
}

func TestGetPhotoBody(t *testing.T) {
	w := serve(t, newFakeCurator(), http.MethodGet, "/api/photos/2024/a.jpg")

	var response PhotoResponse
	decode(t, w, &response)

	if response.ID != "2024/a.jpg" {
		t.Errorf("Expected id 2024/a.jpg, got %s", response.ID)
	}
	if response.Category != analysis.CategoryPeople || response.Confidence != 0.5 {
		t.Errorf("Expected people/0.5, got %s/%v", response.Category, response.Confidence)
	}
	if len(response.Labels) != 2 || response.Labels[0].Name != "person" {
		t.Errorf("Unexpected labels: %+v", response.Labels)
	}
	if response.FaceCount != 2 || !response.HasFeatureVector || response.FromCache {
		t.Errorf("Unexpected result fields: %+v", response)
	}
}

func TestGetPhotoCachedHasEmptyLabels(t *testing.T) {
	w := serve(t, newFakeCurator(), http.MethodGet, "/api/photos/cached.jpg")

	if !strings.Contains(w.Body.String(), `"labels":[]`) {
		t.Errorf("Expected an empty labels array, got %s", w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"fromCache":true`) {
		t.Errorf("Expected fromCache true, got %s", w.Body.String())
	}
}

// =============================================================================
// Cache
// =============================================================================

func TestGetCacheStats(t *testing.T) {
	w := serve(t, newFakeCurator(), http.MethodGet, "/api/cache")

	var response CacheResponse
	decode(t, w, &response)

	if response.Entries != 98 || !response.Valid {
		t.Errorf("Unexpected cache stats: %+v", response)
	}
	if response.LastUpdate == "" {
		t.Error("Expected lastUpdate to be set")
	}
}

func TestClearCache(t *testing.T) {
	c := newFakeCurator()
	w := serve(t, c, http.MethodDelete, "/api/cache")

	if w.Code != http.StatusAccepted {
		t.Errorf("Expected status 202, got %d", w.Code)
	}
	if c.clears != 1 {
		t.Errorf("Expected 1 clear, got %d", c.clears)
	}
}

// =============================================================================
// Health and version
// =============================================================================

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name     string
		running  bool
		runError string
		expected string
	}{
		{"idle", false, "", statusHealthy},
		{"analyzing", true, "", statusAnalyzing},
		{"failed run", false, "scan /photos: no such file", statusDegraded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newFakeCurator()
			c.status.Running = tt.running
			c.lastRun.Error = tt.runError

			w := serve(t, c, http.MethodGet, "/healthz")
			if w.Code != http.StatusOK {
				t.Errorf("Expected status 200, got %d", w.Code)
			}

			var response HealthResponse
			decode(t, w, &response)
			if response.Status != tt.expected {
				t.Errorf("Expected status %q, got %q", tt.expected, response.Status)
			}
			if response.Mode != "Safe" {
				t.Errorf("Expected mode Safe, got %q", response.Mode)
			}
			if response.CacheEntries != 98 {
				t.Errorf("Expected 98 cache entries, got %d", response.CacheEntries)
			}
		})
	}
}

func TestLivenessCheck(t *testing.T) {
	h := New(newFakeCurator())

	for _, method := range []string{http.MethodGet, http.MethodHead} {
		w := httptest.NewRecorder()
		h.LivenessCheck(w, httptest.NewRequest(method, "/livez", http.NoBody))

		if w.Code != http.StatusOK {
			t.Errorf("%s: expected status 200, got %d", method, w.Code)
		}
		if method == http.MethodHead && w.Body.Len() != 0 {
			t.Errorf("Expected no body for HEAD, got %q", w.Body.String())
		}
	}
}

func TestGetVersion(t *testing.T) {
	w := serve(t, newFakeCurator(), http.MethodGet, "/version")

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != "no-cache" {
		t.Errorf("Expected Cache-Control no-cache, got %q", cc)
	}

	var response startup.BuildInfo
	decode(t, w, &response)
	if response.Version != startup.Version {
		t.Errorf("Expected version %q, got %q", startup.Version, response.Version)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	w := serve(t, newFakeCurator(), http.MethodGet, "/api/analysis/start")
	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Code)
	}
}

func TestMetricsRouter(t *testing.T) {
	w := httptest.NewRecorder()
	NewMetricsRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("Expected Go runtime metrics in output")
	}
}
