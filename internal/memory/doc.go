// Package memory configures the Go memory limit for containerized runs and
// provides backpressure to the analysis pipeline.
//
// # Configuration
//
// Call [ConfigureFromEnv] before the first analysis run:
//
//   - GOMEMLIMIT: standard Go variable; when set it wins.
//   - MEMORY_LIMIT: container memory limit in bytes, typically from the
//     Kubernetes Downward API (resourceFieldRef: limits.memory).
//   - MEMORY_RATIO: fraction of MEMORY_LIMIT given to the Go heap, default
//     0.85. Lower it when libvips is enabled, since its decode buffers live
//     outside the Go heap.
//
// # Backpressure
//
// A [Monitor] samples the heap periodically. Above the high water mark the
// pipeline stops promoting itself to faster, more parallel modes
// ([Monitor.ShouldThrottle]). At the critical mark the scheduler waits
// between batches ([Monitor.WaitIfPaused]) until usage falls back below the
// high mark.
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.Start()
//	defer monitor.Stop()
package memory
