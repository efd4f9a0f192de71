// Package media turns photo files into bounded-size decoded images for
// analysis.
//
// It provides:
//   - Format detection from magic bytes, including HEIF/HEIC brands
//   - Constrained decoding that never materializes more than a target size,
//     using libvips decode-time shrinking when available and imaging otherwise
//   - ThumbnailLoader, the timeout-protected entry point the analysis
//     pipeline uses to fetch pixels from a photo store
//   - ImageValidator, the pre-flight check run on every decoded image before
//     it is handed to the vision engine
package media
