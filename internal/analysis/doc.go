// Package analysis holds per-photo analysis results and the pure scoring
// rules applied to them: quality score, color signature and category
// assignment.
package analysis
