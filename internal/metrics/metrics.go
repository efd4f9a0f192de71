package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_curator_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_curator_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_curator_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_curator_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBSizeBytes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_curator_db_size_bytes",
			Help: "Size of SQLite database files in bytes",
		},
		[]string{"file"}, // "main", "wal", "shm"
	)
)

// Pipeline metrics
var (
	PipelineRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_curator_pipeline_runs_total",
			Help: "Total number of analysis runs",
		},
	)

	PipelineIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_pipeline_running",
			Help: "Whether an analysis run is active (1 = running, 0 = idle)",
		},
	)

	PipelineProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_pipeline_progress_ratio",
			Help: "Progress of the current analysis run from 0 to 1",
		},
	)

	PipelineLastRunDuration = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_pipeline_last_run_duration_seconds",
			Help: "Duration of the last completed analysis run",
		},
	)

	PipelineLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_pipeline_last_run_timestamp_seconds",
			Help: "Unix timestamp of the last completed analysis run",
		},
	)

	PhotosAnalyzedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_curator_photos_analyzed_total",
			Help: "Photos processed by outcome",
		},
		[]string{"mode", "outcome"}, // outcome: success, failure, timeout, panic, no_image, invalid_image
	)

	PhotoAnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_curator_photo_analysis_duration_seconds",
			Help:    "Time to analyze a single photo, including thumbnail load",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5, 8, 12},
		},
		[]string{"mode"},
	)

	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_curator_cache_hits_total",
			Help: "Photos restored from the analysis cache instead of being analyzed",
		},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photo_curator_batch_duration_seconds",
			Help:    "Duration of one analysis batch",
			Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"mode"},
	)

	BatchErrorRate = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_curator_batch_error_ratio",
			Help:    "Fraction of photos that failed in a batch",
			Buckets: []float64{0, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	ProcessingMode = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_curator_processing_mode",
			Help: "Current processing mode (1 for the active mode, 0 otherwise)",
		},
		[]string{"mode"},
	)

	ModeTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_curator_mode_transitions_total",
			Help: "Processing mode transitions",
		},
		[]string{"from", "to"},
	)
)

// Thumbnail metrics
var (
	ThumbnailLoadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_curator_thumbnail_loads_total",
			Help: "Thumbnail loads by status",
		},
		[]string{"status"}, // success, error, timeout, panic
	)

	ThumbnailLoadDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_curator_thumbnail_load_duration_seconds",
			Help:    "Thumbnail load duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
	)

	ThumbnailDecodeByFormat = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_curator_thumbnail_decode_total",
			Help: "Decoded source images by detected format",
		},
		[]string{"format", "decoder"}, // decoder: imaging, vips
	)

	ImageValidationFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_curator_image_validation_failures_total",
			Help: "Decoded images rejected before analysis",
		},
		[]string{"reason"},
	)
)

// Filesystem metrics
var (
	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_curator_filesystem_stale_errors_total",
			Help: "Stale NFS file handle errors by operation",
		},
		[]string{"operation"},
	)

	FilesystemRetriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_curator_filesystem_retries_total",
			Help: "Filesystem operations that needed retries, by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)

// Cache metrics
var (
	CacheEntries = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_cache_entries",
			Help: "Number of entries in the analysis cache",
		},
	)

	CacheFlushesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photo_curator_cache_flushes_total",
			Help: "Analysis cache flushes by status",
		},
		[]string{"status"},
	)

	CacheLastFlushTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_cache_last_flush_timestamp_seconds",
			Help: "Unix timestamp of the last successful cache flush",
		},
	)
)

// Curation result metrics
var (
	DuplicateGroups = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_duplicate_groups",
			Help: "Number of duplicate groups found by the last run",
		},
	)

	DuplicateComparisonsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photo_curator_duplicate_comparisons_total",
			Help: "Feature-vector distance computations performed by duplicate detection",
		},
	)

	PhotosByCategory = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "photo_curator_photos_by_category",
			Help: "Photos per category after the last run",
		},
		[]string{"category"},
	)

	LibraryPhotos = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_library_photos",
			Help: "Photos found in the library by the last scan",
		},
	)

	LibraryScanDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photo_curator_library_scan_duration_seconds",
			Help:    "Duration of a library directory scan",
			Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
		},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_memory_usage_ratio",
			Help: "Heap in use as a fraction of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_memory_paused",
			Help: "Whether analysis is paused for memory pressure (1 = paused)",
		},
	)

	GoHeapAllocBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_go_heap_alloc_bytes",
			Help: "Bytes of allocated heap objects",
		},
	)

	GoGoroutines = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photo_curator_go_goroutines",
			Help: "Number of goroutines",
		},
	)
)
