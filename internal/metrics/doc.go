// Package metrics provides Prometheus instrumentation for the photo curator.
//
// All metrics are registered with the default registry through promauto and
// are prefixed with "photo_curator_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, route template, and status
//   - HTTPRequestDuration: Histogram of request duration by method and route template
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
//   - DBQueryTotal: Counter of metadata queries by operation and status
//   - DBQueryDuration: Histogram of query duration by operation
//   - DBSizeBytes: Gauge of database file sizes (main, WAL, SHM)
//
// ## Pipeline Metrics
//
// Track analysis runs and the adaptive processing mode:
//   - PipelineRunsTotal, PipelineIsRunning, PipelineProgress
//   - PipelineLastRunDuration, PipelineLastRunTimestamp
//   - PhotosAnalyzedTotal: Counter by mode and outcome
//     (success, failure, timeout, panic, no_image, invalid_image)
//   - PhotoAnalysisDuration, BatchDuration: Histograms by mode
//   - BatchErrorRate: Histogram of per-batch error ratios
//   - ProcessingMode: Gauge set to 1 for the active mode
//   - ModeTransitionsTotal: Counter by from and to mode
//
// ## Thumbnail Metrics
//
//   - ThumbnailLoadsTotal, ThumbnailLoadDuration
//   - ThumbnailDecodeByFormat: Counter by format and decoder (imaging, vips)
//   - ImageValidationFailures: Counter by reason
//
// ## Filesystem Metrics
//
//   - FilesystemStaleErrors: Counter of stale NFS handles by operation
//   - FilesystemRetriesTotal: Counter of retried operations by operation and outcome
//
// ## Cache, Duplicate, and Library Metrics
//
//   - CacheEntries, CacheHitsTotal, CacheFlushesTotal, CacheLastFlushTimestamp
//   - DuplicateGroups, DuplicateComparisonsTotal
//   - PhotosByCategory: Gauge by category
//   - LibraryPhotos, LibraryScanDuration
//
// ## Memory Metrics
//
//   - MemoryUsageRatio: Heap allocation as a ratio of GOMEMLIMIT
//   - MemoryPaused: 1 while analysis is paused for memory pressure
//   - GoHeapAllocBytes, GoGoroutines
//
// # Pipeline Observer
//
// [PipelineObserver] implements the pipeline's observer interface and turns
// pipeline events into metric updates:
//
//	p := pipeline.New(cfg, pipeline.Deps{
//	    // ...
//	    Observer: metrics.NewPipelineObserver(),
//	})
//
// # Collector
//
// [Collector] periodically gathers statistics from a [StatsProvider] and
// updates the library, cache, and category gauges along with database file
// sizes and Go runtime memory:
//
//	collector := metrics.NewCollector(p, dbPath, 1*time.Minute)
//	collector.Start()
//	defer collector.Stop()
//
// # Prometheus Queries
//
// Share of photos that timed out, by mode:
//
//	sum(rate(photo_curator_photos_analyzed_total{outcome="timeout"}[15m])) by (mode) /
//	sum(rate(photo_curator_photos_analyzed_total[15m])) by (mode)
//
// Demotions in the last day:
//
//	sum(increase(photo_curator_mode_transitions_total{from="fast"}[1d]))
//
// P95 batch duration:
//
//	histogram_quantile(0.95, sum(rate(photo_curator_batch_duration_seconds_bucket[1h])) by (le, mode))
package metrics
