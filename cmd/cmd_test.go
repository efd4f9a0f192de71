package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"photo-curator/internal/adaptive"
	"photo-curator/internal/analysis"
	"photo-curator/internal/cache"
	"photo-curator/internal/database"
	"photo-curator/internal/duplicates"
	"photo-curator/internal/photo"
	"photo-curator/internal/pipeline"
)

func TestCommandsRegistered(t *testing.T) {
	want := []string{"serve", "analyze", "stats", "clear-cache", "version"}

	for _, name := range want {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil {
			t.Errorf("Find(%q) error: %v", name, err)
			continue
		}
		if cmd.Name() != name {
			t.Errorf("Find(%q) = %q, expected %q", name, cmd.Name(), name)
		}
	}
}

func TestCommandFlags(t *testing.T) {
	tests := []struct {
		cmd  string
		flag string
	}{
		{"analyze", "force"},
		{"analyze", "json"},
		{"stats", "json"},
	}

	for _, tt := range tests {
		cmd, _, err := rootCmd.Find([]string{tt.cmd})
		if err != nil {
			t.Fatalf("Find(%q) error: %v", tt.cmd, err)
		}
		if cmd.Flags().Lookup(tt.flag) == nil {
			t.Errorf("%s: expected --%s flag", tt.cmd, tt.flag)
		}
	}

	if rootCmd.PersistentFlags().Lookup("log-level") == nil {
		t.Error("expected persistent --log-level flag")
	}
}

func TestMustGetBoolPanicsOnUnknownFlag(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for undefined flag")
		}
	}()
	mustGetBool(versionCmd, "does-not-exist")
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{90 * time.Second, "1m30s"},
		{59*time.Minute + 59*time.Second, "59m59s"},
		{2*time.Hour + 5*time.Minute, "2h5m"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, expected %q", tt.d, got, tt.want)
		}
	}
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, AnalyzeResult{Success: true, Photos: 3}); err != nil {
		t.Fatalf("writeJSON error: %v", err)
	}

	if !bytes.Contains(buf.Bytes(), []byte("\n  \"photos\": 3")) {
		t.Errorf("expected indented output, got %s", buf.String())
	}

	var decoded AnalyzeResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if !decoded.Success || decoded.Photos != 3 {
		t.Errorf("unexpected round trip: %+v", decoded)
	}
}

func TestDescribeUpdate(t *testing.T) {
	tests := []struct {
		name string
		u    pipeline.Update
		want string
	}{
		{
			name: "before enumeration",
			u:    pipeline.Update{ModeDisplay: adaptive.Fast.DisplayName()},
			want: "Analyzing [" + adaptive.Fast.DisplayName() + "]",
		},
		{
			name: "in progress",
			u:    pipeline.Update{ModeDisplay: "Safe", Completed: 4, Total: 10},
			want: "Analyzing 4/10 [Safe]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeUpdate(tt.u); got != tt.want {
				t.Errorf("describeUpdate() = %q, expected %q", got, tt.want)
			}
		})
	}
}

func TestFollowProgressStopsOnDone(t *testing.T) {
	updates := make(chan pipeline.Update, 3)
	updates <- pipeline.Update{Progress: 0.5, Completed: 1, Total: 2}
	updates <- pipeline.Update{Progress: 1, Completed: 2, Total: 2, Done: true, ModeDisplay: "Fast"}
	updates <- pipeline.Update{Progress: 0.1}

	final := followProgress(context.Background(), updates, nil)

	if !final.Done || final.ModeDisplay != "Fast" {
		t.Errorf("expected final update, got %+v", final)
	}
	if len(updates) != 1 {
		t.Errorf("expected updates after Done to be left unread, %d remain", len(updates))
	}
}

func TestFollowProgressStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	final := followProgress(ctx, make(chan pipeline.Update), nil)
	if final.Done {
		t.Error("expected zero update after cancellation")
	}
}

func TestFollowProgressStopsOnClose(t *testing.T) {
	updates := make(chan pipeline.Update, 1)
	updates <- pipeline.Update{Completed: 7}
	close(updates)

	final := followProgress(context.Background(), updates, nil)
	if final.Completed != 7 {
		t.Errorf("expected last update before close, got %+v", final)
	}
}

func TestSummarize(t *testing.T) {
	run := pipeline.RunStats{
		Photos:    10,
		CacheHits: 6,
		Analyzed:  3,
		Failed:    1,
		Groups:    2,
		Duration:  75 * time.Second,
	}
	categories := map[analysis.Category][]string{
		analysis.Categories[0]: {"a", "b"},
		analysis.Categories[1]: {"c"},
	}

	r := summarize(run, categories, pipeline.Update{ModeDisplay: "Safe"})

	if !r.Success {
		t.Error("expected success without run error")
	}
	if r.Photos != 10 || r.CacheHits != 6 || r.Analyzed != 3 || r.Failed != 1 || r.DuplicateGroups != 2 {
		t.Errorf("counts not carried over: %+v", r)
	}
	if r.Categories[string(analysis.Categories[0])] != 2 || r.Categories[string(analysis.Categories[1])] != 1 {
		t.Errorf("unexpected category counts: %v", r.Categories)
	}
	if r.FinalMode != "Safe" {
		t.Errorf("FinalMode = %q, expected Safe", r.FinalMode)
	}
	if r.DurationMs != 75000 || r.DurationHuman != "1m15s" {
		t.Errorf("unexpected duration: %d ms, %q", r.DurationMs, r.DurationHuman)
	}

	run.Error = "source unavailable"
	if r := summarize(run, nil, pipeline.Update{}); r.Success || r.Error != "source unavailable" {
		t.Errorf("expected failed summary, got %+v", r)
	}
}

type emptyKV struct{}

func (emptyKV) GetMetadata(context.Context, string) (string, error) {
	return "", errors.New("not found")
}
func (emptyKV) SetMetadata(context.Context, string, string) error { return nil }
func (emptyKV) DeleteMetadata(context.Context, string) error      { return nil }

func TestBuildStatsResult(t *testing.T) {
	c := cache.New(emptyKV{})
	if err := c.Load(context.Background()); !errors.Is(err, cache.ErrCacheAbsent) {
		t.Fatalf("expected ErrCacheAbsent, got %v", err)
	}

	r := buildStatsResult(c, "/data/curator.db")
	if r.Entries != 0 || r.LastAnalysis != nil || r.DuplicateGroups != 0 {
		t.Errorf("expected empty stats, got %+v", r)
	}
	if r.DatabasePath != "/data/curator.db" {
		t.Errorf("DatabasePath = %q", r.DatabasePath)
	}

	c.SetDuplicateGroups([]duplicates.Group{
		{PhotoIDs: []string{"a", "b"}},
		{PhotoIDs: []string{"c", "d", "e"}},
	})
	if err := c.Flush(context.Background()); err != nil {
		t.Fatalf("Flush error: %v", err)
	}
	r = buildStatsResult(c, "")
	if !r.Valid || r.LastAnalysis == nil {
		t.Errorf("expected valid cache with last analysis after flush, got %+v", r)
	}
	if r.DuplicateGroups != 2 || r.DuplicatePhotos != 5 {
		t.Errorf("expected 2 groups of 5 photos, got %d groups of %d", r.DuplicateGroups, r.DuplicatePhotos)
	}
}

func TestOpenCacheLoadsPersistedBlob(t *testing.T) {
	ctx := context.Background()
	db, err := database.New(ctx, filepath.Join(t.TempDir(), "curator.db"))
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	defer db.Close()

	empty, err := openCache(ctx, db)
	if err != nil {
		t.Fatalf("openCache() on empty database error = %v", err)
	}
	if s := empty.Stats(); s.Entries != 0 || s.Valid {
		t.Errorf("empty database stats = %+v, expected no entries and invalid", s)
	}

	rec := photo.Record{
		ID:         "2024/beach.jpg",
		ModifiedAt: time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC),
		Width:      4000,
		Height:     3000,
	}
	empty.Store(rec, analysis.Result{PhotoID: rec.ID, QualityScore: 0.8, HadFeatureVector: true},
		analysis.Assignment{Category: analysis.CategoryNature, Confidence: 0.9})
	if err := empty.Flush(ctx); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	c, err := openCache(ctx, db)
	if err != nil {
		t.Fatalf("openCache() error = %v", err)
	}
	s := c.Stats()
	if s.Entries != 1 || !s.Valid {
		t.Errorf("stats before any run = %+v, expected 1 valid entry", s)
	}
	if _, ok := c.Lookup(rec); !ok {
		t.Error("Lookup() missed the persisted entry")
	}
}
