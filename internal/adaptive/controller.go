package adaptive

import (
	"sync"

	"photo-curator/internal/logging"
	"photo-curator/internal/workers"
)

// Config holds the controller's tunables. The defaults were chosen
// empirically.
type Config struct {
	// InitialMode is the tier a new controller starts in.
	InitialMode Mode `yaml:"initial_mode"`

	// FailureThreshold consecutive failures demote one tier.
	FailureThreshold int `yaml:"failure_threshold"`

	// DemoteErrorRate is the per-batch error rate above which Fast falls
	// back to Balanced.
	DemoteErrorRate float64 `yaml:"demote_error_rate"`

	// PromotionGraceBatches batches must have completed before any
	// promotion is considered.
	PromotionGraceBatches int `yaml:"promotion_grace_batches"`

	// Concurrency shares of the worker budget. Emergency is always serial.
	FastShare     float64 `yaml:"fast_share"`
	BalancedShare float64 `yaml:"balanced_share"`
	SafeShare     float64 `yaml:"safe_share"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		InitialMode:           Balanced,
		FailureThreshold:      3,
		DemoteErrorRate:       0.10,
		PromotionGraceBatches: 3,
		FastShare:             1.0,
		BalancedShare:         0.5,
		SafeShare:             0.25,
	}
}

// Transition describes a mode change.
type Transition struct {
	From   Mode
	To     Mode
	Reason string
}

// State is a point-in-time copy of the controller's counters.
type State struct {
	Mode                Mode
	ConsecutiveFailures int
	BatchErrors         int
	BatchesEvaluated    int
}

// Controller owns the processing mode state machine. It is driven by the
// scheduler goroutine; the mutex only protects concurrent readers.
type Controller struct {
	config Config

	mu                  sync.Mutex
	mode                Mode
	consecutiveFailures int
	batchErrors         int
	batchesEvaluated    int
	promotionHold       bool

	onTransition func(Transition)
}

// NewController creates a controller in config.InitialMode.
func NewController(config Config) *Controller {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = DefaultConfig().FailureThreshold
	}
	return &Controller{
		config: config,
		mode:   config.InitialMode,
	}
}

// SetOnTransition registers a callback invoked (under the controller lock)
// after every mode change.
func (c *Controller) SetOnTransition(fn func(Transition)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTransition = fn
}

// SetPromotionHold blocks promotions while held, e.g. under memory pressure.
func (c *Controller) SetPromotionHold(hold bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.promotionHold = hold
}

// Mode returns the current tier.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// State returns a copy of the controller's counters.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Mode:                c.mode,
		ConsecutiveFailures: c.consecutiveFailures,
		BatchErrors:         c.batchErrors,
		BatchesEvaluated:    c.batchesEvaluated,
	}
}

// RecordFailure counts a failed photo. A burst of FailureThreshold
// consecutive failures demotes one tier; in Emergency both counters are
// reset instead.
func (c *Controller) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.consecutiveFailures++
	c.batchErrors++

	if c.consecutiveFailures < c.config.FailureThreshold {
		return
	}

	if c.mode == Emergency {
		c.consecutiveFailures = 0
		c.batchErrors = 0
		return
	}

	c.setMode(c.mode.safer(), "consecutive failures")
	c.consecutiveFailures = 0
}

// RecordSuccess breaks a failure streak.
func (c *Controller) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveFailures = 0
}

// EvaluateBatchEnd applies the per-batch policy once a batch has drained.
func (c *Controller) EvaluateBatchEnd(errorCount, batchSize int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	defer func() { c.batchesEvaluated++ }()
	if batchSize <= 0 {
		return
	}

	rate := float64(errorCount) / float64(batchSize)
	logging.Debug("Batch %d finished in %s mode: %d/%d errors (%.1f%%)",
		c.batchesEvaluated+1, c.mode, errorCount, batchSize, rate*100)

	if rate > c.config.DemoteErrorRate && c.mode == Fast {
		c.setMode(Balanced, "batch error rate")
		return
	}

	if errorCount == 0 && c.promotionAllowed() {
		c.setMode(c.mode.faster(), "clean batch")
	}
}

// ResetForNewBatch clears per-batch tracking before a batch starts and,
// when no failures are outstanding, promotes one tier. This applies even
// after EvaluateBatchEnd promoted for the same clean batch.
func (c *Controller) ResetForNewBatch() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.batchErrors = 0

	if c.consecutiveFailures == 0 && c.promotionAllowed() {
		c.setMode(c.mode.faster(), "recovered")
	}
}

// Concurrency returns the number of photos that may be in flight at once in
// the current mode, given the worker budget.
func (c *Controller) Concurrency(budget int) int {
	return c.config.ConcurrencyFor(c.Mode(), budget)
}

// ConcurrencyFor scales the budget for a mode.
func (cfg Config) ConcurrencyFor(m Mode, budget int) int {
	switch m {
	case Fast:
		return workers.Scale(budget, cfg.FastShare)
	case Balanced:
		return workers.Scale(budget, cfg.BalancedShare)
	case Safe:
		return workers.Scale(budget, cfg.SafeShare)
	case Emergency:
		return 1
	default:
		return 1
	}
}

func (c *Controller) promotionAllowed() bool {
	return !c.promotionHold && c.batchesEvaluated >= c.config.PromotionGraceBatches
}

func (c *Controller) setMode(to Mode, reason string) {
	from := c.mode
	if from == to {
		return
	}
	c.mode = to
	logging.Info("Processing mode %s -> %s (%s)", from, to, reason)
	if c.onTransition != nil {
		c.onTransition(Transition{From: from, To: to, Reason: reason})
	}
}
