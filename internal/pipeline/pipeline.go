package pipeline

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"photo-curator/internal/adaptive"
	"photo-curator/internal/analysis"
	"photo-curator/internal/cache"
	"photo-curator/internal/duplicates"
	"photo-curator/internal/logging"
	"photo-curator/internal/media"
	"photo-curator/internal/metrics"
	"photo-curator/internal/photo"
	"photo-curator/internal/vision"
	"photo-curator/internal/workers"
)

const (
	// DefaultBatchSize is the number of photos analyzed per batch.
	DefaultBatchSize = 250

	// DefaultBatchYield is the pause between batches.
	DefaultBatchYield = 10 * time.Millisecond
)

// Progress milestones.
const (
	analysisShare     = 0.8
	categorizedMark   = 0.9
	progressComplete  = 1.0
	progressUnstarted = 0.0
)

// ErrAnalysisTimeout is reported when analysis of one photo exceeds the
// timeout of its processing mode.
var ErrAnalysisTimeout = errors.New("analysis timed out")

// Backpressure pauses the scheduler between batches. memory.Monitor
// implements it.
type Backpressure interface {
	// WaitIfPaused blocks while the pipeline should not proceed. It returns
	// false if ctx ended while waiting.
	WaitIfPaused(ctx context.Context) bool
	// ShouldThrottle reports memory pressure that should hold off promotion.
	ShouldThrottle() bool
}

// Config holds the pipeline tunables.
type Config struct {
	BatchSize          int
	BatchYield         time.Duration
	Budget             int
	ThumbnailDimension int
	ThumbnailTimeout   time.Duration
	Controller         adaptive.Config
	Duplicates         duplicates.Config
}

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:          DefaultBatchSize,
		BatchYield:         DefaultBatchYield,
		Budget:             workers.Budget(),
		ThumbnailDimension: media.DefaultThumbnailDimension,
		ThumbnailTimeout:   media.DefaultThumbnailTimeout,
		Controller:         adaptive.DefaultConfig(),
		Duplicates:         duplicates.DefaultConfig(),
	}
}

// Deps are the collaborators of a pipeline. Source, Store, Engine and Cache
// are required.
type Deps struct {
	Source   photo.Source
	Store    photo.Store
	Engine   vision.Engine
	Cache    *cache.Cache
	Memory   Backpressure
	Observer Observer
}

// RunStats summarizes the last finished run.
type RunStats struct {
	StartedAt  time.Time     `json:"startedAt"`
	FinishedAt time.Time     `json:"finishedAt"`
	Duration   time.Duration `json:"duration"`
	Photos     int           `json:"photos"`
	CacheHits  int           `json:"cacheHits"`
	Analyzed   int           `json:"analyzed"`
	Failed     int           `json:"failed"`
	Groups     int           `json:"duplicateGroups"`
	Error      string        `json:"error,omitempty"`
}

// snapshot is the state readers see. The scheduler replaces its fields;
// maps and slices are never mutated after publication.
type snapshot struct {
	progress    float64
	completed   int
	total       int
	results     map[string]analysis.Result
	assignments map[string]analysis.Assignment
	groups      []duplicates.Group
	lastRun     RunStats
}

// Pipeline coordinates analysis runs over a photo library.
type Pipeline struct {
	cfg        Config
	source     photo.Source
	cache      *cache.Cache
	loader     *media.ThumbnailLoader
	validator  media.ImageValidator
	executor   *vision.Executor
	detector   *duplicates.Detector
	controller *adaptive.Controller
	memory     Backpressure
	observer   Observer
	updates    *broadcaster

	// lifetime bounds every run and background task; Close cancels it.
	lifetime context.Context
	cancel   context.CancelFunc
	bg       sync.WaitGroup

	mu                sync.RWMutex
	running           bool
	pendingReanalysis bool
	pendingClears     []chan struct{}
	runDone           chan struct{}
	state             snapshot
}

// New creates a pipeline.
func New(cfg Config, deps Deps) *Pipeline {
	def := DefaultConfig()
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.BatchYield < 0 {
		cfg.BatchYield = 0
	}
	if cfg.Budget <= 0 {
		cfg.Budget = def.Budget
	}
	if cfg.ThumbnailDimension <= 0 {
		cfg.ThumbnailDimension = def.ThumbnailDimension
	}
	if cfg.ThumbnailTimeout <= 0 {
		cfg.ThumbnailTimeout = def.ThumbnailTimeout
	}

	observer := deps.Observer
	if observer == nil {
		observer = nopObserver{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		cfg:        cfg,
		source:     deps.Source,
		cache:      deps.Cache,
		loader:     media.NewThumbnailLoader(deps.Store, cfg.ThumbnailDimension, cfg.ThumbnailTimeout),
		validator:  media.NewImageValidator(),
		executor:   vision.NewExecutor(deps.Engine),
		detector:   duplicates.NewDetector(cfg.Duplicates, deps.Engine.Distance),
		controller: adaptive.NewController(cfg.Controller),
		memory:     deps.Memory,
		observer:   observer,
		updates:    newBroadcaster(),
		lifetime:   ctx,
		cancel:     cancel,
	}
	p.controller.SetOnTransition(func(t adaptive.Transition) {
		p.observer.ObserveTransition(t)
	})
	p.observer.ObserveMode(p.controller.Mode())
	return p
}

// Start begins an analysis run in the background. It returns false without
// doing anything if a run is already in progress.
func (p *Pipeline) Start() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.startLocked(false)
}

// startLocked launches a run, first clearing the cache when clearFirst is set.
// p.mu must be held.
func (p *Pipeline) startLocked(clearFirst bool) bool {
	if p.running || p.lifetime.Err() != nil {
		return false
	}
	p.running = true
	p.runDone = make(chan struct{})
	done := p.runDone

	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		defer close(done)
		if clearFirst {
			if err := p.cache.Clear(p.lifetime); err != nil {
				logging.Warn("Failed to clear analysis cache: %v", err)
			}
		}
		p.run(p.lifetime)
	}()
	return true
}

// Run performs one analysis run in the foreground. It returns false if a
// run was already in progress.
func (p *Pipeline) Run(ctx context.Context) bool {
	if !p.Start() {
		return false
	}
	p.Wait(ctx)
	return true
}

// Wait blocks until no run is in progress or ctx ends.
func (p *Pipeline) Wait(ctx context.Context) {
	for {
		p.mu.RLock()
		running, done := p.running, p.runDone
		p.mu.RUnlock()
		if !running || done == nil {
			return
		}
		select {
		case <-done:
		case <-ctx.Done():
			return
		}
	}
}

// ForceReanalysis clears the cache and starts a fresh run. If a run is in
// progress the fresh run starts as soon as it finishes.
func (p *Pipeline) ForceReanalysis() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.pendingReanalysis = true
		logging.Info("Re-analysis queued until the current run finishes")
		return
	}
	p.startLocked(true)
}

// ClearCache deletes the analysis cache in the background. The returned
// channel is closed when the delete has finished; callers may ignore it.
// While a run is in progress the delete waits until that run has flushed,
// so the run cannot write its results back over the cleared cache.
func (p *Pipeline) ClearCache() <-chan struct{} {
	done := make(chan struct{})

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		p.pendingClears = append(p.pendingClears, done)
		logging.Info("Cache clear queued until the current run finishes")
		return done
	}

	p.bg.Add(1)
	go func() {
		defer p.bg.Done()
		defer close(done)
		p.clearCache()
	}()
	return done
}

func (p *Pipeline) clearCache() {
	if err := p.cache.Clear(p.lifetime); err != nil {
		logging.Warn("Failed to clear analysis cache: %v", err)
	}
}

// Subscribe returns a channel of progress updates and a function that ends
// the subscription. The channel always carries the most recent update.
func (p *Pipeline) Subscribe() (<-chan Update, func()) {
	return p.updates.subscribe()
}

// Progress returns run progress in [0, 1].
func (p *Pipeline) Progress() float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.progress
}

// Mode returns the current processing mode.
func (p *Pipeline) Mode() adaptive.Mode {
	return p.controller.Mode()
}

// ModeDisplay returns the user-facing name of the current processing mode.
func (p *Pipeline) ModeDisplay() string {
	return p.controller.Mode().DisplayName()
}

// IsRunning reports whether a run is in progress.
func (p *Pipeline) IsRunning() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.running
}

// Status returns the current progress snapshot.
func (p *Pipeline) Status() Update {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.statusLocked()
}

func (p *Pipeline) statusLocked() Update {
	mode := p.controller.Mode()
	return Update{
		Progress:    p.state.progress,
		Mode:        mode,
		ModeDisplay: mode.DisplayName(),
		Running:     p.running,
		Completed:   p.state.completed,
		Total:       p.state.total,
	}
}

// DuplicateGroups returns the duplicate groups of the last finished run.
func (p *Pipeline) DuplicateGroups() []duplicates.Group {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]duplicates.Group(nil), p.state.groups...)
}

// Categories maps each category to its photo ids, from the last finished run.
func (p *Pipeline) Categories() map[analysis.Category][]string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return analysis.GroupByCategory(p.state.assignments)
}

// Result returns the analysis result of one photo from the last finished run.
func (p *Pipeline) Result(id string) (analysis.Result, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	r, ok := p.state.results[id]
	return r, ok
}

// Assignment returns the category of one photo from the last finished run.
func (p *Pipeline) Assignment(id string) (analysis.Assignment, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.state.assignments[id]
	return a, ok
}

// ResultCount returns the number of results of the last finished run.
func (p *Pipeline) ResultCount() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.state.results)
}

// LastRun returns statistics of the last finished run.
func (p *Pipeline) LastRun() RunStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.state.lastRun
}

// CacheStats returns analysis cache statistics.
func (p *Pipeline) CacheStats() cache.Stats {
	return p.cache.Stats()
}

// GetStats implements metrics.StatsProvider.
func (p *Pipeline) GetStats() metrics.Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	counts := make(map[string]int, len(analysis.Categories))
	for _, a := range p.state.assignments {
		counts[string(a.Category)]++
	}
	return metrics.Stats{
		TotalPhotos:     p.state.lastRun.Photos,
		CacheEntries:    p.cache.Len(),
		DuplicateGroups: len(p.state.groups),
		Categories:      counts,
	}
}

// Close stops background work and waits for it to finish. A run in
// progress is abandoned without flushing the cache.
func (p *Pipeline) Close() {
	p.cancel()
	p.bg.Wait()
	p.updates.closeAll()
}

// setProgress publishes run progress. Called only by the scheduler.
func (p *Pipeline) setProgress(progress float64, completed, total int) {
	p.mu.Lock()
	p.state.progress = progress
	p.state.completed = completed
	p.state.total = total
	u := p.statusLocked()
	p.mu.Unlock()

	p.observer.ObserveProgress(progress, true)
	p.updates.publish(u)
}

// finish applies queued cache clears, publishes the final state of a run
// and starts a queued re-analysis. Called only by the scheduler.
func (p *Pipeline) finish(r *runState, stats RunStats) {
	// Apply clears queued during the run. p.mu stays held once none are
	// left, so a clear cannot slip in before running is reset.
	for {
		p.mu.Lock()
		clears := p.pendingClears
		p.pendingClears = nil
		if len(clears) == 0 {
			break
		}
		p.mu.Unlock()

		p.clearCache()
		for _, done := range clears {
			close(done)
		}
	}

	if r != nil {
		p.state.results = r.results
		p.state.assignments = r.assignments
		p.state.groups = r.groups
	}
	p.state.lastRun = stats
	p.running = false
	u := p.statusLocked()
	u.Done = true
	u.Error = stats.Error

	if p.pendingReanalysis && p.lifetime.Err() == nil {
		p.pendingReanalysis = false
		p.startLocked(true)
	}
	p.mu.Unlock()

	p.observer.ObserveProgress(u.Progress, false)
	p.observer.ObserveRunEnd(stats.Duration, stats.Groups)
	p.updates.publish(u)
}

// sortedIDs returns map keys in ascending order.
func sortedIDs[V any](m map[string]V) []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
