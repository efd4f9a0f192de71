package metrics

import (
	"photo-curator/internal/adaptive"
	"photo-curator/internal/analysis"
)

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	outcomes := []string{"success", "failure", "timeout", "panic", "no_image", "invalid_image"}

	for _, m := range adaptive.Modes {
		mode := m.String()
		ProcessingMode.WithLabelValues(mode)
		PhotoAnalysisDuration.WithLabelValues(mode)
		BatchDuration.WithLabelValues(mode)
		for _, o := range outcomes {
			PhotosAnalyzedTotal.WithLabelValues(mode, o)
		}
		for _, to := range adaptive.Modes {
			if to != m {
				ModeTransitionsTotal.WithLabelValues(mode, to.String())
			}
		}
	}

	for _, status := range []string{"success", "error", "timeout", "panic"} {
		ThumbnailLoadsTotal.WithLabelValues(status)
	}

	for _, format := range []string{"jpeg", "png", "gif", "webp", "bmp", "tiff", "heif", "avif", "unknown"} {
		ThumbnailDecodeByFormat.WithLabelValues(format, "imaging")
		ThumbnailDecodeByFormat.WithLabelValues(format, "vips")
	}

	for _, reason := range []string{"nil", "empty", "too_small", "too_large", "color_model"} {
		ImageValidationFailures.WithLabelValues(reason)
	}

	for _, status := range []string{"success", "error"} {
		CacheFlushesTotal.WithLabelValues(status)
	}

	for _, c := range analysis.Categories {
		PhotosByCategory.WithLabelValues(string(c))
	}

	for _, op := range []string{"initialize_schema", "get_metadata", "set_metadata", "delete_metadata"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, file := range []string{"main", "wal", "shm"} {
		DBSizeBytes.WithLabelValues(file)
	}
}
