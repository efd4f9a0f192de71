// Package adaptive implements the four-tier processing mode state machine
// that trades analysis throughput for stability.
//
// The controller starts in Balanced, demotes one tier after a burst of
// consecutive failures or a noisy Fast batch, and promotes one tier after
// clean batches once a grace period has passed. Emergency is a floor:
// failures there only reset the counters.
//
// Mode is the single source of truth for the three decisions that depend on
// the tier: the request set built by the vision package, the per-photo
// timeout (Mode.Timeout), and the in-flight window (Config.ConcurrencyFor).
package adaptive
