package vision

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"photo-curator/internal/logging"
)

// ErrNoFeatureVector is returned when a plan finished without producing the
// feature vector, which every plan requires.
var ErrNoFeatureVector = errors.New("analysis produced no feature vector")

// PanicError wraps a recovered engine panic.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("vision engine panic: %v", e.Value)
}

// Sink collects the observations for one photo. Writes are dropped once the
// lifetime context is done, so late completions from an abandoned analysis
// never reach a pipeline that has moved on.
type Sink struct {
	lifetime context.Context
	photoID  string

	mu            sync.Mutex
	featureVector FeatureVector
	labels        []Label
	faceCount     int
	hadLabels     bool
	hadFaces      bool
}

// NewSink creates a sink for photoID bound to lifetime.
func NewSink(lifetime context.Context, photoID string) *Sink {
	return &Sink{lifetime: lifetime, photoID: photoID}
}

// Put records one observation.
func (s *Sink) Put(obs Observation) {
	if s.lifetime.Err() != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch obs.Kind {
	case FeaturePrint:
		s.featureVector = obs.FeatureVector
	case SceneClassification:
		s.labels = obs.Labels
		s.hadLabels = true
	case FaceDetection:
		s.faceCount = obs.FaceCount
		s.hadFaces = true
	}
}

// Outcome is the collected analysis for one photo.
type Outcome struct {
	PhotoID       string
	FeatureVector FeatureVector
	Labels        []Label
	FaceCount     int
	HadLabels     bool
	HadFaces      bool
}

// Outcome returns a copy of what has been collected.
func (s *Sink) Outcome() Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Outcome{
		PhotoID:       s.photoID,
		FeatureVector: s.featureVector,
		Labels:        s.labels,
		FaceCount:     s.faceCount,
		HadLabels:     s.hadLabels,
		HadFaces:      s.hadFaces,
	}
}

// Executor runs plans against an engine.
type Executor struct {
	engine Engine
}

// NewExecutor creates an executor for engine.
func NewExecutor(engine Engine) *Executor {
	return &Executor{engine: engine}
}

// Engine returns the underlying engine.
func (x *Executor) Engine() Engine {
	return x.engine
}

// Execute runs plan on img and fills sink. It returns an error if the plan
// failed as a whole or produced no feature vector. Engine panics under the
// Batched and Independent strategies propagate to the caller.
func (x *Executor) Execute(ctx context.Context, img image.Image, plan Plan, sink *Sink) error {
	switch plan.Strategy {
	case Batched:
		obs, err := x.engine.Perform(ctx, img, plan.Requests)
		if err != nil {
			return fmt.Errorf("batched %d requests: %w", len(plan.Requests), err)
		}
		for _, o := range obs {
			sink.Put(o)
		}
	case Independent:
		for _, req := range plan.Requests {
			if err := ctx.Err(); err != nil {
				return err
			}
			obs, err := x.engine.Perform(ctx, img, []Request{req})
			if err != nil {
				logging.Debug("%s: %s failed, continuing: %v", sink.photoID, req.Kind, err)
				continue
			}
			for _, o := range obs {
				sink.Put(o)
			}
		}
	case Isolated:
		for _, req := range plan.Requests {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := x.performIsolated(ctx, img, req, sink); err != nil {
				logging.Debug("%s: %s failed in isolation: %v", sink.photoID, req.Kind, err)
			}
		}
	default:
		return fmt.Errorf("unknown execution strategy %s", plan.Strategy)
	}

	if len(sink.Outcome().FeatureVector) == 0 {
		return ErrNoFeatureVector
	}
	return nil
}

func (x *Executor) performIsolated(ctx context.Context, img image.Image, req Request, sink *Sink) (err error) {
	defer func() {
		if r, ok := x.engine.(Releaser); ok {
			r.Release()
		}
	}()
	defer func() {
		if v := recover(); v != nil {
			err = &PanicError{Value: v}
		}
	}()

	obs, err := x.engine.Perform(ctx, img, []Request{req})
	if err != nil {
		return err
	}
	for _, o := range obs {
		sink.Put(o)
	}
	return nil
}
