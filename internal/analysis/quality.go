package analysis

import (
	"math"
)

const (
	// fullQualityPixels is the resolution at which the resolution component
	// saturates.
	fullQualityPixels = 12_000_000

	resolutionWeight = 0.7
	aspectWeight     = 0.3

	// Long-side/short-side ratios that score a perfect aspect component.
	idealAspectMin = 1.3
	idealAspectMax = 1.8

	// ColorBuckets is the number of buckets in a ColorSignature.
	ColorBuckets = 8
)

// QualityScore rates a photo in [0, 1] from its resolution and aspect ratio
// only. Unknown dimensions score 0.
func QualityScore(width, height int) float64 {
	if width <= 0 || height <= 0 {
		return 0
	}

	resolution := math.Min(1, float64(width)*float64(height)/fullQualityPixels)

	long, short := float64(max(width, height)), float64(min(width, height))
	ratio := long / short
	aspect := 1.0
	switch {
	case ratio < idealAspectMin:
		aspect = 1 - (idealAspectMin-ratio)/(idealAspectMin-1)*0.5
	case ratio > idealAspectMax:
		aspect = math.Max(0, 1-(ratio-idealAspectMax)/2)
	}

	return clamp01(resolutionWeight*resolution + aspectWeight*aspect)
}

// ColorSignature is a coarse 8-bucket histogram. It is derived from the
// aspect ratio, so it only separates photos of clearly different shapes.
type ColorSignature [ColorBuckets]float64

// NewColorSignature spreads unit weight over the two buckets nearest to the
// normalized aspect ratio w/(w+h).
func NewColorSignature(width, height int) ColorSignature {
	var sig ColorSignature
	if width <= 0 || height <= 0 {
		return sig
	}

	pos := float64(width) / float64(width+height) * (ColorBuckets - 1)
	lo := int(math.Floor(pos))
	frac := pos - float64(lo)
	sig[lo] = 1 - frac
	if lo+1 < ColorBuckets {
		sig[lo+1] = frac
	}
	return sig
}

// Distance is the L1 distance between two signatures, in [0, 2].
func (s ColorSignature) Distance(o ColorSignature) float64 {
	var d float64
	for i := range s {
		d += math.Abs(s[i] - o[i])
	}
	return d
}

// IsZero reports whether the signature carries no information.
func (s ColorSignature) IsZero() bool {
	return s == ColorSignature{}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
