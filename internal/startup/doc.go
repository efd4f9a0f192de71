// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// # Configuration
//
// Configuration is loaded from environment variables via [LoadConfig]. A
// .env file in the working directory is read first by the command layer.
//
//   - LIBRARY_DIR: Path to the photo library (default: /photos)
//   - DATABASE_DIR: Path to the database directory (default: /database)
//   - PORT: HTTP server port (default: 8080)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: Enable or disable the metrics server (default: true)
//   - METRICS_INTERVAL: Statistics collection interval (default: 1m)
//   - AUTO_ANALYZE: Start an analysis run when the server starts (default: true)
//   - VIPS_ENABLED: Use libvips for decoding when available (default: true)
//   - POLICY_FILE: Optional YAML file overriding duplicate and adaptive tunables
//   - ANALYSIS_BATCH_SIZE: Photos per batch (default: 250)
//   - ANALYSIS_WORKERS: Worker budget override (default: CPU count clamped to [8, 16])
//   - THUMBNAIL_DIMENSION: Longest side of analysis thumbnails (default: 512)
//   - THUMBNAIL_TIMEOUT: Thumbnail load timeout (default: 5s)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - LOG_HEALTH_CHECKS: Log health check requests (default: true)
//   - MEMORY_LIMIT, MEMORY_RATIO, GOMEMLIMIT: see package memory
//
// # Policy File
//
// [LoadPolicy] reads a YAML document with duplicates and adaptive sections
// over the built-in defaults and validates the result.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo].
package startup
