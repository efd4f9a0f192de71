package metrics

import (
	"time"

	"photo-curator/internal/adaptive"
)

// PipelineObserver records analysis pipeline events into the Prometheus
// metrics declared in metrics.go. It satisfies pipeline.Observer.
type PipelineObserver struct{}

// NewPipelineObserver creates a PipelineObserver.
func NewPipelineObserver() *PipelineObserver {
	return &PipelineObserver{}
}

// ObserveItem records the outcome of one analyzed photo.
func (o *PipelineObserver) ObserveItem(mode adaptive.Mode, outcome string, duration time.Duration) {
	PhotosAnalyzedTotal.WithLabelValues(mode.String(), outcome).Inc()
	PhotoAnalysisDuration.WithLabelValues(mode.String()).Observe(duration.Seconds())
}

// ObserveCacheHits records photos restored from the cache.
func (o *PipelineObserver) ObserveCacheHits(n int) {
	CacheHitsTotal.Add(float64(n))
}

// ObserveBatch records one finished batch.
func (o *PipelineObserver) ObserveBatch(mode adaptive.Mode, size, errors int, duration time.Duration) {
	BatchDuration.WithLabelValues(mode.String()).Observe(duration.Seconds())
	if size > 0 {
		BatchErrorRate.Observe(float64(errors) / float64(size))
	}
}

// ObserveTransition records a processing mode change.
func (o *PipelineObserver) ObserveTransition(t adaptive.Transition) {
	ModeTransitionsTotal.WithLabelValues(t.From.String(), t.To.String()).Inc()
	o.ObserveMode(t.To)
}

// ObserveMode marks mode as the active processing mode.
func (o *PipelineObserver) ObserveMode(mode adaptive.Mode) {
	for _, m := range adaptive.Modes {
		v := 0.0
		if m == mode {
			v = 1
		}
		ProcessingMode.WithLabelValues(m.String()).Set(v)
	}
}

// ObserveProgress records run progress and the running flag.
func (o *PipelineObserver) ObserveProgress(progress float64, running bool) {
	PipelineProgress.Set(progress)
	if running {
		PipelineIsRunning.Set(1)
	} else {
		PipelineIsRunning.Set(0)
	}
}

// ObserveRunStart records the start of an analysis run.
func (o *PipelineObserver) ObserveRunStart() {
	PipelineRunsTotal.Inc()
}

// ObserveRunEnd records a completed run.
func (o *PipelineObserver) ObserveRunEnd(duration time.Duration, duplicateGroups int) {
	PipelineLastRunDuration.Set(duration.Seconds())
	PipelineLastRunTimestamp.Set(float64(time.Now().Unix()))
	DuplicateGroups.Set(float64(duplicateGroups))
}
