package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"photo-curator/internal/logging"
	"photo-curator/internal/media"
	"photo-curator/internal/memory"
	"photo-curator/internal/pipeline"
	"photo-curator/internal/workers"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// Config holds all application configuration
type Config struct {
	LibraryDir      string
	DatabaseDir     string
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	MetricsInterval time.Duration
	LogHealthChecks bool
	AutoAnalyze     bool
	VipsEnabled     bool
	PolicyFile      string

	BatchSize          int
	Workers            int
	ThumbnailDimension int
	ThumbnailTimeout   time.Duration

	// Derived paths
	DatabasePath string

	Policy Policy
}

// LoadConfig loads and validates configuration from environment variables
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")

	config := &Config{
		LibraryDir:         getEnv("LIBRARY_DIR", "/photos"),
		DatabaseDir:        getEnv("DATABASE_DIR", "/database"),
		Port:               getEnv("PORT", "8080"),
		MetricsPort:        getEnv("METRICS_PORT", "9090"),
		MetricsEnabled:     getEnvBool("METRICS_ENABLED", true),
		MetricsInterval:    getEnvDuration("METRICS_INTERVAL", time.Minute),
		LogHealthChecks:    getEnvBool("LOG_HEALTH_CHECKS", true),
		AutoAnalyze:        getEnvBool("AUTO_ANALYZE", true),
		VipsEnabled:        getEnvBool("VIPS_ENABLED", true),
		PolicyFile:         getEnv("POLICY_FILE", ""),
		BatchSize:          getEnvInt("ANALYSIS_BATCH_SIZE", pipeline.DefaultBatchSize),
		Workers:            workers.Budget(),
		ThumbnailDimension: getEnvInt("THUMBNAIL_DIMENSION", media.DefaultThumbnailDimension),
		ThumbnailTimeout:   getEnvDuration("THUMBNAIL_TIMEOUT", media.DefaultThumbnailTimeout),
	}

	logging.Info("  LIBRARY_DIR:         %s", config.LibraryDir)
	logging.Info("  DATABASE_DIR:        %s", config.DatabaseDir)
	logging.Info("  PORT:                %s", config.Port)
	logging.Info("  METRICS_PORT:        %s", config.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", config.MetricsEnabled)
	logging.Info("  AUTO_ANALYZE:        %v", config.AutoAnalyze)
	logging.Info("  VIPS_ENABLED:        %v", config.VipsEnabled)
	logging.Info("  ANALYSIS_BATCH_SIZE: %d", config.BatchSize)
	logging.Info("  ANALYSIS_WORKERS:    %d", config.Workers)
	logging.Info("  THUMBNAIL_TIMEOUT:   %v", config.ThumbnailTimeout)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", config.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	policy, err := LoadPolicy(config.PolicyFile)
	if err != nil {
		return nil, err
	}
	config.Policy = policy
	if config.PolicyFile != "" {
		logging.Info("  POLICY_FILE:         %s", config.PolicyFile)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	config.LibraryDir, err = filepath.Abs(config.LibraryDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve library directory path: %w", err)
	}
	logging.Info("  Library directory (absolute): %s", config.LibraryDir)

	config.DatabaseDir, err = filepath.Abs(config.DatabaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	logging.Info("  Database directory (absolute): %s", config.DatabaseDir)
	config.DatabasePath = filepath.Join(config.DatabaseDir, "curator.db")

	if err := checkLibrary(config.LibraryDir); err != nil {
		logging.Warn("  Library directory issue: %v", err)
	}

	if err := ensureDirectory(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}

	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(config.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for the analysis cache): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	return config, nil
}

// PipelineConfig builds the analysis pipeline configuration.
func (c *Config) PipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.BatchSize = c.BatchSize
	cfg.Budget = c.Workers
	cfg.ThumbnailDimension = c.ThumbnailDimension
	cfg.ThumbnailTimeout = c.ThumbnailTimeout
	cfg.Controller = c.Policy.Adaptive
	cfg.Duplicates = c.Policy.Duplicates
	return cfg
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DATABASE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogMemoryConfig logs the outcome of memory limit configuration.
func LogMemoryConfig(result memory.ConfigResult) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("MEMORY CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if !result.Configured {
		logging.Info("  No memory limit configured (set MEMORY_LIMIT or GOMEMLIMIT)")
		logging.Info("  Memory backpressure disabled")
		return
	}
	logging.Info("  Source:          %s", result.Source)
	if result.ContainerLimit > 0 {
		logging.Info("  Container limit: %s", memory.FormatBytes(result.ContainerLimit))
		logging.Info("  Ratio:           %.2f", result.Ratio)
	}
	logging.Info("  GOMEMLIMIT:      %s", memory.FormatBytes(result.GoMemLimit))
}

// LogDecoderInit logs which image decoders are available.
func LogDecoderInit(vipsRequested bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("IMAGE DECODERS")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] imaging (JPEG, PNG, GIF, BMP, TIFF, WebP)")
	switch {
	case !vipsRequested:
		logging.Info("  libvips disabled (VIPS_ENABLED=false); HEIF, AVIF and JPEG XL photos will fail to load")
	case media.IsVipsAvailable():
		logging.Info("  [OK] libvips (HEIF, AVIF, JPEG XL, shrink-on-load)")
	default:
		logging.Warn("  libvips unavailable; HEIF, AVIF and JPEG XL photos will fail to load")
	}
}

// LogPipelineInit logs the analysis pipeline configuration.
func LogPipelineInit(cfg pipeline.Config) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ANALYSIS PIPELINE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Initial mode:      %s", cfg.Controller.InitialMode.DisplayName())
	logging.Info("  Worker budget:     %d", cfg.Budget)
	logging.Info("  Batch size:        %d", cfg.BatchSize)
	logging.Info("  Thumbnail size:    %dpx (timeout %v)", cfg.ThumbnailDimension, cfg.ThumbnailTimeout)
	logging.Info("  Duplicate cutoff:  %.3f", cfg.Duplicates.Threshold)
	logging.Info("  Promotion grace:   %d batches", cfg.Controller.PromotionGraceBatches)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			// Route might not have methods specified
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}

		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs all registered HTTP routes dynamically
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}

	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
         __          __
   ___  / /  ___  __/ /____    ______ _____ ___ _/ /____  ____
  / _ \/ _ \/ _ \/ __/ _ \ \  / __/ // / __/ _ '/ __/ _ \/ __/
 / .__/_//_/\___/\__/\___/  \_\__/\_,_/_/  \_,_/\__/\___/_/
/_/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
	}

	logging.Info("")
}

// checkLibrary verifies the library directory exists. It is never created:
// an empty library is usually a missing mount.
func checkLibrary(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	if logging.IsDebugEnabled() {
		if entries, err := os.ReadDir(path); err == nil {
			logging.Debug("    Contents: %d entries (top level)", len(entries))
		}
	}
	return nil
}

func ensureDirectory(path string) error {
	logging.Debug("  Checking directory: %s", path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid duration value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
