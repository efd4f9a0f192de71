package pipeline

import (
	"time"

	"photo-curator/internal/adaptive"
)

// Item outcomes reported to an Observer.
const (
	OutcomeSuccess      = "success"
	OutcomeFailure      = "failure"
	OutcomeTimeout      = "timeout"
	OutcomePanic        = "panic"
	OutcomeNoImage      = "no_image"
	OutcomeInvalidImage = "invalid_image"
)

// Observer receives pipeline events. Implementations must be safe for
// concurrent use and must not call back into the pipeline.
type Observer interface {
	ObserveRunStart()
	ObserveItem(mode adaptive.Mode, outcome string, duration time.Duration)
	ObserveCacheHits(n int)
	ObserveBatch(mode adaptive.Mode, size, errors int, duration time.Duration)
	ObserveTransition(t adaptive.Transition)
	ObserveMode(mode adaptive.Mode)
	ObserveProgress(progress float64, running bool)
	ObserveRunEnd(duration time.Duration, duplicateGroups int)
}

type nopObserver struct{}

func (nopObserver) ObserveRunStart()                                    {}
func (nopObserver) ObserveItem(adaptive.Mode, string, time.Duration)    {}
func (nopObserver) ObserveCacheHits(int)                                {}
func (nopObserver) ObserveBatch(adaptive.Mode, int, int, time.Duration) {}
func (nopObserver) ObserveTransition(adaptive.Transition)               {}
func (nopObserver) ObserveMode(adaptive.Mode)                           {}
func (nopObserver) ObserveProgress(float64, bool)                       {}
func (nopObserver) ObserveRunEnd(time.Duration, int)                    {}
