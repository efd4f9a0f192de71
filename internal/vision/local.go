package vision

import (
	"context"
	"fmt"
	"image"
	"math"
	"sort"
	"sync"

	"github.com/corona10/goimagehash"
	"github.com/disintegration/imaging"
)

const (
	// hashSide is the edge of the extended perceptual hash grid; the
	// feature vector has hashSide*hashSide components.
	hashSide = 16

	// statsSide is the thumbnail edge used for colour statistics.
	statsSide = 64

	minLabelConfidence = 0.15
	faceSkinCoverage   = 0.18
)

// LocalEngine is an on-device engine built from perceptual hashing and
// colour statistics. It is safe for concurrent use.
type LocalEngine struct{}

// NewLocalEngine creates a LocalEngine.
func NewLocalEngine() *LocalEngine {
	return &LocalEngine{}
}

// FeatureLength is the length of vectors produced by the local engine.
func (e *LocalEngine) FeatureLength() int {
	return hashSide * hashSide
}

// Perform implements Engine.
func (e *LocalEngine) Perform(ctx context.Context, img image.Image, reqs []Request) ([]Observation, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}

	var (
		stats     *colorStats
		observed  = make([]Observation, 0, len(reqs))
		needStats bool
		parallel  = true
	)
	for _, r := range reqs {
		if r.Kind != FeaturePrint {
			needStats = true
		}
		if r.CPUOnly {
			parallel = false
		}
	}

	if needStats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s := computeColorStats(img, parallel)
		stats = &s
	}

	for _, r := range reqs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		switch r.Kind {
		case FeaturePrint:
			vec, err := featurePrint(img)
			if err != nil {
				return nil, err
			}
			observed = append(observed, Observation{Kind: FeaturePrint, FeatureVector: vec})
		case SceneClassification:
			observed = append(observed, Observation{Kind: SceneClassification, Labels: stats.labels()})
		case FaceDetection:
			observed = append(observed, Observation{Kind: FaceDetection, FaceCount: stats.faceCount()})
		default:
			return nil, fmt.Errorf("unsupported request %s", r.Kind)
		}
	}

	return observed, nil
}

// Distance implements Engine as the normalized Hamming distance between
// the two hashes.
func (e *LocalEngine) Distance(a, b FeatureVector) (float64, error) {
	return MeanAbsoluteDistance(a, b)
}

func featurePrint(img image.Image) (FeatureVector, error) {
	hash, err := goimagehash.ExtPerceptionHash(img, hashSide, hashSide)
	if err != nil {
		return nil, fmt.Errorf("perceptual hash: %w", err)
	}

	words := hash.GetHash()
	vec := make(FeatureVector, hashSide*hashSide)
	for i := range vec {
		word := words[i/64]
		if word>>(63-uint(i%64))&1 == 1 {
			vec[i] = 1
		}
	}
	return vec, nil
}

// colorStats are pixel fractions over a small thumbnail.
type colorStats struct {
	pixels     int
	topPixels  int
	brightness int
	sky        int
	vegetation int
	skin       int
	warm       int
	paper      int
}

func (s *colorStats) merge(o colorStats) {
	s.pixels += o.pixels
	s.topPixels += o.topPixels
	s.brightness += o.brightness
	s.sky += o.sky
	s.vegetation += o.vegetation
	s.skin += o.skin
	s.warm += o.warm
	s.paper += o.paper
}

func computeColorStats(img image.Image, parallel bool) colorStats {
	small := imaging.Fit(img, statsSide, statsSide, imaging.Box)
	bounds := small.Bounds()
	height := bounds.Dy()
	topLimit := bounds.Min.Y + height/3

	scanRows := func(y0, y1 int) colorStats {
		var s colorStats
		for y := y0; y < y1; y++ {
			for x := bounds.Min.X; x < bounds.Max.X; x++ {
				c := small.NRGBAAt(x, y)
				classifyPixel(&s, c.R, c.G, c.B, y < topLimit)
			}
		}
		return s
	}

	if !parallel || height < 8 {
		return scanRows(bounds.Min.Y, bounds.Max.Y)
	}

	const chunks = 4
	parts := make([]colorStats, chunks)
	step := (height + chunks - 1) / chunks
	var wg sync.WaitGroup
	for i := 0; i < chunks; i++ {
		y0 := bounds.Min.Y + i*step
		y1 := min(y0+step, bounds.Max.Y)
		if y0 >= y1 {
			continue
		}
		wg.Add(1)
		go func(i, y0, y1 int) {
			defer wg.Done()
			parts[i] = scanRows(y0, y1)
		}(i, y0, y1)
	}
	wg.Wait()

	var total colorStats
	for _, p := range parts {
		total.merge(p)
	}
	return total
}

func classifyPixel(s *colorStats, r8, g8, b8 uint8, top bool) {
	r, g, b := float64(r8)/255, float64(g8)/255, float64(b8)/255
	maxC := math.Max(r, math.Max(g, b))
	minC := math.Min(r, math.Min(g, b))
	v := maxC
	sat := 0.0
	if maxC > 0 {
		sat = (maxC - minC) / maxC
	}

	s.pixels++
	s.brightness += int(max(r8, g8, b8))

	if top {
		s.topPixels++
		if b > r && b > g && v > 0.4 {
			s.sky++
		}
	}
	if g > r && g > b && sat > 0.2 {
		s.vegetation++
	}
	if r > 0.35 && g > 0.16 && b > 0.08 && r > g && r > b && r-g > 0.06 && maxC-minC > 0.06 {
		s.skin++
	}
	if hue(r, g, b, maxC, minC) <= 60 && sat > 0.4 && v > 0.3 {
		s.warm++
	}
	if sat < 0.12 && v > 0.8 {
		s.paper++
	}
}

// hue returns the HSV hue in degrees.
func hue(r, g, b, maxC, minC float64) float64 {
	d := maxC - minC
	if d == 0 {
		return 0
	}
	var h float64
	switch maxC {
	case r:
		h = math.Mod((g-b)/d, 6)
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60
	if h < 0 {
		h += 360
	}
	return h
}

func (s *colorStats) fraction(n int) float64 {
	if s.pixels == 0 {
		return 0
	}
	return float64(n) / float64(s.pixels)
}

func (s *colorStats) labels() []Label {
	if s.pixels == 0 {
		return nil
	}

	sky := 0.0
	if s.topPixels > 0 {
		sky = float64(s.sky) / float64(s.topPixels)
	}
	vegetation := clamp01(s.fraction(s.vegetation) * 2)
	meanV := float64(s.brightness) / 255 / float64(s.pixels)
	night := clamp01((0.3 - meanV) / 0.3 * 1.5)
	document := clamp01(s.fraction(s.paper) * 1.3)
	food := 0.0
	if vegetation < 0.3 {
		food = clamp01(s.fraction(s.warm) * 2)
	}
	outdoor := math.Max(sky, vegetation)

	candidates := []Label{
		{Name: "sky", Confidence: sky},
		{Name: "vegetation", Confidence: vegetation},
		{Name: "night", Confidence: night},
		{Name: "document", Confidence: document},
		{Name: "food", Confidence: food},
		{Name: "outdoor", Confidence: outdoor},
		{Name: "indoor", Confidence: 1 - outdoor},
	}

	labels := make([]Label, 0, len(candidates))
	for _, l := range candidates {
		if l.Confidence >= minLabelConfidence {
			labels = append(labels, l)
		}
	}
	sort.SliceStable(labels, func(i, j int) bool {
		return labels[i].Confidence > labels[j].Confidence
	})
	return labels
}

func (s *colorStats) faceCount() int {
	if s.fraction(s.skin) >= faceSkinCoverage {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
