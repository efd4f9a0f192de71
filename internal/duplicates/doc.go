// Package duplicates finds groups of near-identical photos by comparing
// feature vectors among a candidate subset of the library.
//
// Candidacy is decided by a CandidatePolicy, which approximates "this photo
// is probably a copy of something else" (it arrived from a non-camera source
// or was re-saved long after capture). Candidates whose vectors are closer
// than the threshold, and that also pass the metadata gate, join a group.
// Groups are ordered best-first so index 0 is the suggested keeper.
package duplicates
