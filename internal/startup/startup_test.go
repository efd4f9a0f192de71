package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"photo-curator/internal/adaptive"
	"photo-curator/internal/duplicates"

	"github.com/gorilla/mux"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.OS == "" || info.Arch == "" {
		t.Error("Expected OS and Arch to be set")
	}
	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_SET_VAR", "custom")
	if got := getEnv("TEST_SET_VAR", "default"); got != "custom" {
		t.Errorf("getEnv = %q, expected custom", got)
	}
	t.Setenv("TEST_EMPTY_VAR", "")
	if got := getEnv("TEST_EMPTY_VAR", "default"); got != "default" {
		t.Errorf("getEnv = %q, expected default", got)
	}
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		def      bool
		expected bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("TEST_BOOL_VAR", tt.value)
			if got := getEnvBool("TEST_BOOL_VAR", tt.def); got != tt.expected {
				t.Errorf("getEnvBool(%q, %v) = %v, expected %v", tt.value, tt.def, got, tt.expected)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	tests := []struct {
		value    string
		expected int
	}{
		{"", 250},
		{"100", 100},
		{"0", 250},
		{"-5", 250},
		{"lots", 250},
	}
	for _, tt := range tests {
		t.Setenv("TEST_INT_VAR", tt.value)
		if got := getEnvInt("TEST_INT_VAR", 250); got != tt.expected {
			t.Errorf("getEnvInt(%q) = %d, expected %d", tt.value, got, tt.expected)
		}
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		value    string
		expected time.Duration
	}{
		{"", 5 * time.Second},
		{"2s", 2 * time.Second},
		{"1m30s", 90 * time.Second},
		{"soon", 5 * time.Second},
		{"-1s", 5 * time.Second},
	}
	for _, tt := range tests {
		t.Setenv("TEST_DURATION_VAR", tt.value)
		if got := getEnvDuration("TEST_DURATION_VAR", 5*time.Second); got != tt.expected {
			t.Errorf("getEnvDuration(%q) = %v, expected %v", tt.value, got, tt.expected)
		}
	}
}

func TestLoadConfig(t *testing.T) {
	library := t.TempDir()
	database := filepath.Join(t.TempDir(), "db")
	t.Setenv("LIBRARY_DIR", library)
	t.Setenv("DATABASE_DIR", database)
	t.Setenv("ANALYSIS_BATCH_SIZE", "50")
	t.Setenv("AUTO_ANALYZE", "false")
	t.Setenv("POLICY_FILE", "")

	config, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if config.LibraryDir != library {
		t.Errorf("LibraryDir = %s, expected %s", config.LibraryDir, library)
	}
	if config.DatabasePath != filepath.Join(database, "curator.db") {
		t.Errorf("DatabasePath = %s", config.DatabasePath)
	}
	if _, err := os.Stat(database); err != nil {
		t.Errorf("database directory not created: %v", err)
	}
	if config.AutoAnalyze {
		t.Error("AutoAnalyze = true, expected false")
	}

	pc := config.PipelineConfig()
	if pc.BatchSize != 50 {
		t.Errorf("pipeline BatchSize = %d, expected 50", pc.BatchSize)
	}
	if pc.Duplicates.Threshold != duplicates.DefaultConfig().Threshold {
		t.Errorf("pipeline duplicate threshold = %v, expected default", pc.Duplicates.Threshold)
	}
}

func TestLoadConfigDatabaseIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "not-a-dir")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("LIBRARY_DIR", t.TempDir())
	t.Setenv("DATABASE_DIR", file)
	t.Setenv("POLICY_FILE", "")

	if _, err := LoadConfig(); err == nil {
		t.Error("expected error when the database directory is a file")
	}
}

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadPolicyDefaults(t *testing.T) {
	p, err := LoadPolicy("")
	if err != nil {
		t.Fatalf("LoadPolicy(\"\") error: %v", err)
	}
	if p.Adaptive.InitialMode != adaptive.Balanced {
		t.Errorf("InitialMode = %v, expected balanced", p.Adaptive.InitialMode)
	}
	if err := p.Validate(); err != nil {
		t.Errorf("default policy is invalid: %v", err)
	}
}

func TestLoadPolicyOverrides(t *testing.T) {
	path := writePolicy(t, `
duplicates:
  threshold: 0.04
  creation_window: 5s
  policy:
    edit_window: 2m
    exclude_located: false
adaptive:
  initial_mode: safe
  promotion_grace_batches: 5
`)

	p, err := LoadPolicy(path)
	if err != nil {
		t.Fatalf("LoadPolicy() error: %v", err)
	}

	if p.Duplicates.Threshold != 0.04 {
		t.Errorf("Threshold = %v, expected 0.04", p.Duplicates.Threshold)
	}
	if p.Duplicates.CreationWindow != 5*time.Second {
		t.Errorf("CreationWindow = %v, expected 5s", p.Duplicates.CreationWindow)
	}
	if p.Duplicates.Policy.EditWindow != 2*time.Minute {
		t.Errorf("EditWindow = %v, expected 2m", p.Duplicates.Policy.EditWindow)
	}
	if p.Duplicates.Policy.ExcludeLocated {
		t.Error("ExcludeLocated = true, expected false")
	}
	if !p.Duplicates.Policy.NonCameraOrigin {
		t.Error("NonCameraOrigin lost its default")
	}
	if p.Duplicates.SizeTolerance != duplicates.DefaultConfig().SizeTolerance {
		t.Errorf("SizeTolerance = %v, expected default", p.Duplicates.SizeTolerance)
	}
	if p.Adaptive.InitialMode != adaptive.Safe {
		t.Errorf("InitialMode = %v, expected safe", p.Adaptive.InitialMode)
	}
	if p.Adaptive.PromotionGraceBatches != 5 {
		t.Errorf("PromotionGraceBatches = %d, expected 5", p.Adaptive.PromotionGraceBatches)
	}
	if p.Adaptive.FailureThreshold != adaptive.DefaultConfig().FailureThreshold {
		t.Errorf("FailureThreshold = %d, expected default", p.Adaptive.FailureThreshold)
	}
}

func TestLoadPolicyErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"bad yaml", "duplicates: [", "parse policy file"},
		{"bad mode", "adaptive:\n  initial_mode: turbo\n", "parse policy file"},
		{"threshold", "duplicates:\n  threshold: 2\n", "duplicates.threshold"},
		{"share", "adaptive:\n  safe_share: 0\n", "adaptive.safe_share"},
		{"failure threshold", "adaptive:\n  failure_threshold: 0\n", "adaptive.failure_threshold"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPolicy(writePolicy(t, tt.content))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadPolicyMissingFile(t *testing.T) {
	if _, err := LoadPolicy(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing policy file")
	}
}

func TestGetRoutes(t *testing.T) {
	router := mux.NewRouter()
	router.HandleFunc("/api/analysis/status", func(_ http.ResponseWriter, _ *http.Request) {}).Methods("GET").Name("status")
	router.HandleFunc("/healthz", func(_ http.ResponseWriter, _ *http.Request) {})

	routes, err := GetRoutes(router)
	if err != nil {
		t.Fatalf("GetRoutes() error: %v", err)
	}
	if len(routes) != 2 {
		t.Fatalf("got %d routes, expected 2", len(routes))
	}
	if routes[0].Method != "GET" || routes[0].Name != "status" {
		t.Errorf("first route = %+v", routes[0])
	}
	if routes[1].Method != "*" {
		t.Errorf("route without methods has method %q, expected *", routes[1].Method)
	}
}

func TestGetRouteGroup(t *testing.T) {
	tests := map[string]string{
		"/api/analysis/status": "api/analysis",
		"/api/cache":           "api/cache",
		"/healthz":             "healthz",
		"/":                    "",
	}
	for path, expected := range tests {
		if got := getRouteGroup(path); got != expected {
			t.Errorf("getRouteGroup(%q) = %q, expected %q", path, got, expected)
		}
	}
}
