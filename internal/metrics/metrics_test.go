package metrics

import (
	"testing"
	"time"

	"photo-curator/internal/adaptive"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveItem(t *testing.T) {
	o := NewPipelineObserver()
	counter := PhotosAnalyzedTotal.WithLabelValues("safe", "timeout")
	before := testutil.ToFloat64(counter)

	o.ObserveItem(adaptive.Safe, "timeout", 8*time.Second)
	o.ObserveItem(adaptive.Safe, "timeout", 8*time.Second)

	if got := testutil.ToFloat64(counter) - before; got != 2 {
		t.Errorf("Expected 2 timeouts recorded, got %v", got)
	}
}

func TestObserveCacheHits(t *testing.T) {
	o := NewPipelineObserver()
	before := testutil.ToFloat64(CacheHitsTotal)

	o.ObserveCacheHits(37)

	if got := testutil.ToFloat64(CacheHitsTotal) - before; got != 37 {
		t.Errorf("Expected 37 cache hits recorded, got %v", got)
	}
}

func TestObserveTransitionSetsActiveMode(t *testing.T) {
	o := NewPipelineObserver()
	counter := ModeTransitionsTotal.WithLabelValues("balanced", "safe")
	before := testutil.ToFloat64(counter)

	o.ObserveTransition(adaptive.Transition{From: adaptive.Balanced, To: adaptive.Safe})

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("Expected 1 transition recorded, got %v", got)
	}
	for _, m := range adaptive.Modes {
		expected := 0.0
		if m == adaptive.Safe {
			expected = 1
		}
		if got := testutil.ToFloat64(ProcessingMode.WithLabelValues(m.String())); got != expected {
			t.Errorf("ProcessingMode{%s} = %v, expected %v", m, got, expected)
		}
	}
}

func TestObserveProgress(t *testing.T) {
	o := NewPipelineObserver()

	o.ObserveProgress(0.4, true)
	if testutil.ToFloat64(PipelineProgress) != 0.4 || testutil.ToFloat64(PipelineIsRunning) != 1 {
		t.Error("Expected progress 0.4 while running")
	}

	o.ObserveProgress(1, false)
	if testutil.ToFloat64(PipelineProgress) != 1 || testutil.ToFloat64(PipelineIsRunning) != 0 {
		t.Error("Expected progress 1 after the run")
	}
}

func TestObserveRunLifecycle(t *testing.T) {
	o := NewPipelineObserver()
	before := testutil.ToFloat64(PipelineRunsTotal)

	o.ObserveRunStart()
	o.ObserveRunEnd(90*time.Second, 6)

	if got := testutil.ToFloat64(PipelineRunsTotal) - before; got != 1 {
		t.Errorf("Expected 1 run recorded, got %v", got)
	}
	if got := testutil.ToFloat64(PipelineLastRunDuration); got != 90 {
		t.Errorf("Expected last run duration 90, got %v", got)
	}
	if got := testutil.ToFloat64(DuplicateGroups); got != 6 {
		t.Errorf("Expected 6 duplicate groups, got %v", got)
	}
	if testutil.ToFloat64(PipelineLastRunTimestamp) <= 0 {
		t.Error("Expected last run timestamp to be set")
	}
}

func TestObserveBatch(t *testing.T) {
	o := NewPipelineObserver()
	o.ObserveBatch(adaptive.Fast, 250, 25, 3*time.Second)
	o.ObserveBatch(adaptive.Fast, 0, 0, 0)

	if n := testutil.CollectAndCount(BatchErrorRate); n != 1 {
		t.Errorf("Expected the batch error histogram to be exported, got %d series", n)
	}
}
