// Package handlers provides the HTTP API of the photo curator.
//
// It includes handlers for:
//   - Starting an analysis run or a forced re-analysis
//   - Analysis progress and the current processing mode
//   - Duplicate groups and categories of the last finished run
//   - Per-photo analysis results
//   - Analysis cache statistics and clearing
//   - Health checks and build information
//
// Handlers talk to the pipeline through the Curator interface so they can be
// tested without a photo library.
package handlers
