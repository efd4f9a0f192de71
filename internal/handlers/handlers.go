package handlers

import (
	"time"

	"photo-curator/internal/analysis"
	"photo-curator/internal/cache"
	"photo-curator/internal/duplicates"
	"photo-curator/internal/pipeline"
)

// Curator is the analysis pipeline as seen by the HTTP layer.
type Curator interface {
	Start() bool
	ForceReanalysis()
	ClearCache() <-chan struct{}
	Status() pipeline.Update
	DuplicateGroups() []duplicates.Group
	Categories() map[analysis.Category][]string
	Result(id string) (analysis.Result, bool)
	Assignment(id string) (analysis.Assignment, bool)
	LastRun() pipeline.RunStats
	CacheStats() cache.Stats
}

// Handlers serves the curator API.
type Handlers struct {
	curator   Curator
	startTime time.Time
}

// New creates handlers over a curator.
func New(c Curator) *Handlers {
	return &Handlers{
		curator:   c,
		startTime: time.Now(),
	}
}
