package workers

import (
	"os"
	"runtime"
	"strconv"
)

const (
	// MinBudget is the floor of the analysis concurrency budget.
	MinBudget = 8
	// MaxBudget is the ceiling of the analysis concurrency budget.
	MaxBudget = 16

	overrideEnv = "ANALYSIS_WORKERS"
)

// Count returns the number of workers for a given task type.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier adjusts for task characteristics:
//   - 1.0 for CPU-bound tasks
//   - 2.0 for I/O-bound tasks
//   - 1.5 for mixed tasks
//
// The limit parameter caps the worker count. Use 0 for no limit.
//
// Can be overridden with the ANALYSIS_WORKERS environment variable.
func Count(multiplier float64, limit int) int {
	if override := os.Getenv(overrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			if limit > 0 && count > limit {
				return limit
			}
			return count
		}
	}

	available := runtime.GOMAXPROCS(0)

	workers := int(float64(available) * multiplier)

	if workers < 1 {
		workers = 1
	}
	if limit > 0 && workers > limit {
		workers = limit
	}

	return workers
}

// Budget returns the analysis concurrency budget: one worker per available
// CPU, clamped to [MinBudget, MaxBudget]. The adaptive processing mode, not
// this ceiling, is what throttles risky work, so the floor is deliberately
// above the core count of small machines.
//
// An ANALYSIS_WORKERS override replaces the CPU count and is clamped the
// same way.
func Budget() int {
	if override := os.Getenv(overrideEnv); override != "" {
		if count, err := strconv.Atoi(override); err == nil && count > 0 {
			return Clamp(count)
		}
	}
	return Clamp(runtime.GOMAXPROCS(0))
}

// Clamp bounds n to [MinBudget, MaxBudget].
func Clamp(n int) int {
	if n < MinBudget {
		return MinBudget
	}
	if n > MaxBudget {
		return MaxBudget
	}
	return n
}

// Scale applies a fractional share to a budget, never returning less than 1.
func Scale(budget int, share float64) int {
	n := int(float64(budget) * share)
	if n < 1 {
		return 1
	}
	return n
}

// ForIO returns worker count for I/O-bound tasks (2 per CPU).
// The limit parameter caps the maximum number of workers.
func ForIO(limit int) int {
	return Count(2.0, limit)
}
