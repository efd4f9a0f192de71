package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"photo-curator/internal/adaptive"
	"photo-curator/internal/analysis"
	"photo-curator/internal/duplicates"
	"photo-curator/internal/logging"
	"photo-curator/internal/photo"
	"photo-curator/internal/vision"
)

// runState is the aggregate owned by the scheduler goroutine for one run.
type runState struct {
	photos      []photo.Record
	hits        map[string]struct{}
	results     map[string]analysis.Result
	assignments map[string]analysis.Assignment
	groups      []duplicates.Group
	completed   int
	failed      int
}

func (r *runState) progress() float64 {
	if len(r.photos) == 0 {
		return progressComplete
	}
	return float64(r.completed) / float64(len(r.photos)) * analysisShare
}

// itemResult is handed from a worker to the scheduler.
type itemResult struct {
	rec      photo.Record
	mode     adaptive.Mode
	result   analysis.Result
	outcome  string
	err      error
	duration time.Duration
}

// run executes one analysis run. It is the only writer of run state.
func (p *Pipeline) run(ctx context.Context) {
	start := time.Now()
	stats := RunStats{StartedAt: start}
	p.observer.ObserveRunStart()
	p.setProgress(progressUnstarted, 0, 0)

	photos, err := p.source.Photos(ctx)
	if err != nil {
		logging.Error("Failed to list photos: %v", err)
		stats.Error = err.Error()
		p.end(nil, stats, start)
		return
	}

	r := &runState{
		photos:      photos,
		hits:        make(map[string]struct{}),
		results:     make(map[string]analysis.Result, len(photos)),
		assignments: make(map[string]analysis.Assignment, len(photos)),
	}
	stats.Photos = len(photos)

	if len(photos) == 0 {
		logging.Info("No photos to analyze")
		p.setProgress(progressComplete, 0, 0)
		p.end(r, stats, start)
		return
	}

	if err := p.cache.Load(ctx); err != nil {
		logging.Debug("Starting without analysis cache: %v", err)
	}

	var pending []photo.Record
	for _, rec := range photos {
		if entry, ok := p.cache.Lookup(rec); ok {
			r.hits[rec.ID] = struct{}{}
			r.results[rec.ID] = entry.Result()
			r.assignments[rec.ID] = entry.Assignment()
			continue
		}
		pending = append(pending, rec)
	}
	r.completed = len(r.hits)
	stats.CacheHits = len(r.hits)
	p.observer.ObserveCacheHits(len(r.hits))
	p.setProgress(r.progress(), r.completed, len(photos))

	logging.Info("Analyzing %d photos (%d from cache) in %s mode", len(pending), len(r.hits), p.controller.Mode().DisplayName())

	for offset := 0; offset < len(pending); offset += p.cfg.BatchSize {
		end := min(offset+p.cfg.BatchSize, len(pending))
		if !p.prepareBatch(ctx) {
			break
		}
		p.runBatch(ctx, r, pending[offset:end])

		if ctx.Err() != nil {
			break
		}
		if end < len(pending) && p.cfg.BatchYield > 0 {
			select {
			case <-time.After(p.cfg.BatchYield):
			case <-ctx.Done():
			}
		}
	}

	stats.Analyzed = r.completed - len(r.hits) - r.failed
	stats.Failed = r.failed

	if ctx.Err() != nil {
		logging.Warn("Analysis run interrupted after %d of %d photos", r.completed, len(photos))
		stats.Error = ctx.Err().Error()
		p.end(nil, stats, start)
		return
	}

	p.categorize(r)
	p.setProgress(categorizedMark, r.completed, len(photos))

	p.detectDuplicates(r)
	stats.Groups = len(r.groups)

	p.persist(ctx, r)
	p.setProgress(progressComplete, r.completed, len(photos))

	logging.Info("Analysis finished: %d photos, %d analyzed, %d failed, %d cached, %d duplicate groups in %v",
		stats.Photos, stats.Analyzed, stats.Failed, stats.CacheHits, stats.Groups, time.Since(start).Round(time.Millisecond))
	p.end(r, stats, start)
}

func (p *Pipeline) end(r *runState, stats RunStats, start time.Time) {
	stats.FinishedAt = time.Now()
	stats.Duration = stats.FinishedAt.Sub(start)
	p.finish(r, stats)
}

// prepareBatch applies memory backpressure and resets batch tracking. It
// returns false if ctx ended while paused.
func (p *Pipeline) prepareBatch(ctx context.Context) bool {
	if p.memory != nil {
		if !p.memory.WaitIfPaused(ctx) {
			return false
		}
		p.controller.SetPromotionHold(p.memory.ShouldThrottle())
	}
	p.controller.ResetForNewBatch()
	return ctx.Err() == nil
}

// runBatch analyzes one batch with a sliding window of workers. The window
// is sized from the current mode each time it is refilled, so a demotion
// mid-batch narrows it immediately.
func (p *Pipeline) runBatch(ctx context.Context, r *runState, batch []photo.Record) {
	batchStart := time.Now()
	batchMode := p.controller.Mode()
	results := make(chan itemResult)

	next, inFlight, errCount := 0, 0, 0
	fill := func() {
		for next < len(batch) && inFlight < p.controller.Concurrency(p.cfg.Budget) && ctx.Err() == nil {
			rec := batch[next]
			mode := p.controller.Mode()
			next++
			inFlight++
			go p.analyze(ctx, rec, mode, results)
		}
	}

	fill()
	for inFlight > 0 {
		res := <-results
		inFlight--

		if res.err != nil {
			errCount++
			r.failed++
			p.controller.RecordFailure()
			logging.Debug("Analysis of %s failed (%s): %v", res.rec.ID, res.outcome, res.err)
		} else {
			r.results[res.rec.ID] = res.result
			p.controller.RecordSuccess()
		}
		r.completed++
		p.observer.ObserveItem(res.mode, res.outcome, res.duration)
		p.setProgress(r.progress(), r.completed, len(r.photos))

		fill()
	}

	processed := next
	p.controller.EvaluateBatchEnd(errCount, processed)
	p.observer.ObserveBatch(batchMode, processed, errCount, time.Since(batchStart))
	logging.Debug("Batch of %d photos finished with %d errors in %v", processed, errCount, time.Since(batchStart).Round(time.Millisecond))
}

// analyze runs on a worker goroutine. It never touches run state and always
// hands exactly one itemResult to the scheduler.
func (p *Pipeline) analyze(ctx context.Context, rec photo.Record, mode adaptive.Mode, out chan<- itemResult) {
	start := time.Now()
	res := itemResult{rec: rec, mode: mode, outcome: OutcomeSuccess}
	defer func() {
		if v := recover(); v != nil {
			res.err = &vision.PanicError{Value: v}
			res.outcome = OutcomePanic
		}
		res.duration = time.Since(start)
		out <- res
	}()

	img, err := p.loader.Load(ctx, rec)
	if err != nil {
		res.err, res.outcome = err, OutcomeNoImage
		return
	}
	if err := p.validator.Validate(img); err != nil {
		res.err, res.outcome = err, OutcomeInvalidImage
		return
	}

	result, err := p.perform(ctx, rec, img, mode)
	if err != nil {
		res.err = err
		switch {
		case errors.Is(err, ErrAnalysisTimeout):
			res.outcome = OutcomeTimeout
		case isPanic(err):
			res.outcome = OutcomePanic
		default:
			res.outcome = OutcomeFailure
		}
		return
	}
	res.result = result
}

// perform runs the vision plan for one photo under the mode timeout. The
// sink is bound to the timeout context so an engine that ignores
// cancellation cannot write into a result after it has been abandoned.
func (p *Pipeline) perform(ctx context.Context, rec photo.Record, img image.Image, mode adaptive.Mode) (analysis.Result, error) {
	actx, cancel := context.WithTimeout(ctx, mode.Timeout())
	defer cancel()

	plan := vision.BuildRequests(rec, mode)
	sink := vision.NewSink(actx, rec.ID)

	done := make(chan error, 1)
	go func() {
		defer func() {
			if v := recover(); v != nil {
				done <- &vision.PanicError{Value: v}
			}
		}()
		done <- p.executor.Execute(actx, img, plan, sink)
	}()

	select {
	case err := <-done:
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return analysis.Result{}, fmt.Errorf("%w after %v", ErrAnalysisTimeout, mode.Timeout())
			}
			return analysis.Result{}, err
		}
	case <-actx.Done():
		if ctx.Err() != nil {
			return analysis.Result{}, ctx.Err()
		}
		return analysis.Result{}, fmt.Errorf("%w after %v", ErrAnalysisTimeout, mode.Timeout())
	}

	w, h := rec.Width, rec.Height
	if w <= 0 || h <= 0 {
		b := img.Bounds()
		w, h = b.Dx(), b.Dy()
	}
	return analysis.NewResult(sink.Outcome(), w, h), nil
}

func isPanic(err error) bool {
	var pe *vision.PanicError
	return errors.As(err, &pe)
}

// categorize assigns a category to every result. Cached results keep the
// assignment stored with them.
func (p *Pipeline) categorize(r *runState) {
	for _, id := range sortedIDs(r.results) {
		if _, cached := r.assignments[id]; cached {
			continue
		}
		r.assignments[id] = analysis.Categorize(r.results[id])
	}
}

// detectDuplicates groups freshly analyzed photos and keeps stored groups
// whose members were all cache hits and are still present.
func (p *Pipeline) detectDuplicates(r *runState) {
	vectors := make(map[string]vision.FeatureVector)
	quality := make(map[string]float64, len(r.results))
	for id, res := range r.results {
		quality[id] = res.QualityScore
		if len(res.FeatureVector) > 0 {
			vectors[id] = res.FeatureVector
		}
	}

	detected := p.detector.Detect(r.photos, vectors, quality)

	grouped := make(map[string]struct{})
	for _, g := range detected {
		for _, id := range g.PhotoIDs {
			grouped[id] = struct{}{}
		}
	}

	var reused []duplicates.Group
	for _, g := range p.cache.DuplicateGroups() {
		if p.reusable(g, r.hits, grouped) {
			reused = append(reused, g)
			for _, id := range g.PhotoIDs {
				grouped[id] = struct{}{}
			}
		}
	}
	if len(reused) > 0 {
		logging.Debug("Reusing %d stored duplicate groups", len(reused))
	}

	r.groups = append(reused, detected...)
}

func (p *Pipeline) reusable(g duplicates.Group, hits, grouped map[string]struct{}) bool {
	if len(g.PhotoIDs) < 2 {
		return false
	}
	for _, id := range g.PhotoIDs {
		if _, ok := hits[id]; !ok {
			return false
		}
		if _, taken := grouped[id]; taken {
			return false
		}
	}
	return true
}

// persist writes fresh results, prunes removed photos and flushes the cache.
// Flush failures are logged; the run result stands.
func (p *Pipeline) persist(ctx context.Context, r *runState) {
	present := make(map[string]struct{}, len(r.photos))
	byID := make(map[string]photo.Record, len(r.photos))
	for _, rec := range r.photos {
		present[rec.ID] = struct{}{}
		byID[rec.ID] = rec
	}

	for _, id := range sortedIDs(r.results) {
		if _, cached := r.hits[id]; cached {
			continue
		}
		p.cache.Store(byID[id], r.results[id], r.assignments[id])
	}
	if pruned := p.cache.Prune(present); pruned > 0 {
		logging.Debug("Pruned %d cache entries for removed photos", pruned)
	}
	p.cache.SetDuplicateGroups(r.groups)

	if err := p.cache.Flush(ctx); err != nil {
		logging.Warn("Failed to persist analysis cache: %v", err)
	}
}
