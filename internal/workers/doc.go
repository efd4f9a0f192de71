/*
Package workers sizes the analysis worker pool.

The pipeline derives a single concurrency budget once at startup from
GOMAXPROCS (which tracks container CPU limits on Go 1.19+), clamped to
[MinBudget, MaxBudget]. Each processing mode then takes a share of that
budget:

	budget := workers.Budget()         // e.g. 8 on a 4-core laptop
	n := workers.Scale(budget, 0.25)   // 2 in-flight photos in safe mode

# Environment Variable Override

ANALYSIS_WORKERS replaces the derived value:

	ANALYSIS_WORKERS=4 photo-curator analyze ~/Pictures

Values above MaxBudget are capped.

ForIO is used for the directory scan of the file-backed photo store, where
workers mostly wait on disk.
*/
package workers
