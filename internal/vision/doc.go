// Package vision builds and executes the per-photo vision requests.
//
// BuildRequests turns a photo record and the current processing mode into a
// Plan: the request set, the crop policy, hardware preference, and whether
// requests run together or one at a time. An Executor runs a plan against an
// Engine and delivers observations to a Sink. The sink is bound to the
// lifetime of one analysis attempt and drops observations that arrive after
// that attempt has ended, so late results never leak into the next photo.
//
// LocalEngine is the on-device engine. Feature prints are 16x16 perceptual
// hashes from goimagehash; scene labels and the face estimate come from
// colour statistics over an imaging thumbnail.
package vision
