// Package pipeline runs the photo analysis pipeline.
//
// A run partitions the library into cache hits and photos that need analysis,
// analyzes the latter in sequential batches under the adaptive processing
// controller, categorizes every result, detects duplicates and flushes the
// analysis cache. All run state is owned by a single scheduler goroutine;
// analysis workers hand their results back over a channel. Readers see the
// published snapshot through accessor methods or an update subscription.
package pipeline
