package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photo-curator/internal/cache"
	"photo-curator/internal/database"
	"photo-curator/internal/library"
	"photo-curator/internal/logging"
	"photo-curator/internal/media"
	"photo-curator/internal/memory"
	"photo-curator/internal/metrics"
	"photo-curator/internal/pipeline"
	"photo-curator/internal/startup"
	"photo-curator/internal/vision"
)

// app holds the components shared by the commands.
type app struct {
	config   *startup.Config
	db       *database.Database
	cache    *cache.Cache
	library  *library.Library
	monitor  *memory.Monitor
	pipeline *pipeline.Pipeline
}

// openDatabase loads configuration and opens the analysis cache database.
// Commands that only touch the cache stop here.
func openDatabase(ctx context.Context) (*app, error) {
	startup.LogMemoryConfig(memory.ConfigureFromEnv())

	config, err := startup.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("configuration error: %w", err)
	}

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	c, err := openCache(ctx, db)
	if err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logging.Warn("Failed to close database: %v", closeErr)
		}
		return nil, err
	}

	return &app{
		config: config,
		db:     db,
		cache:  c,
	}, nil
}

// openCache reads the persisted analysis cache so statistics are available
// before the first run. A missing or stale blob yields an empty cache.
func openCache(ctx context.Context, kv cache.KV) (*cache.Cache, error) {
	c := cache.New(kv)
	if err := c.Load(ctx); err != nil {
		if !errors.Is(err, cache.ErrCacheAbsent) {
			return nil, fmt.Errorf("failed to load analysis cache: %w", err)
		}
		logging.Debug("No usable analysis cache: %v", err)
	}
	return c, nil
}

// openApp wires the full analysis pipeline.
func openApp(ctx context.Context) (*app, error) {
	a, err := openDatabase(ctx)
	if err != nil {
		return nil, err
	}

	if a.config.VipsEnabled {
		media.InitVips(a.config.Workers)
	}
	startup.LogDecoderInit(a.config.VipsEnabled)

	a.monitor = memory.NewMonitor(memory.DefaultConfig())
	a.monitor.Start()

	metrics.InitializeMetrics()

	a.library = library.New(a.config.LibraryDir, library.DefaultConfig())

	pipelineConfig := a.config.PipelineConfig()
	startup.LogPipelineInit(pipelineConfig)
	a.pipeline = pipeline.New(pipelineConfig, pipeline.Deps{
		Source:   a.library,
		Store:    a.library,
		Engine:   vision.NewLocalEngine(),
		Cache:    a.cache,
		Memory:   a.monitor,
		Observer: metrics.NewPipelineObserver(),
	})

	return a, nil
}

// Close stops the pipeline and releases resources in reverse order of
// creation.
func (a *app) Close() {
	if a.pipeline != nil {
		a.pipeline.Close()
	}
	if a.monitor != nil {
		a.monitor.Stop()
	}
	media.ShutdownVips()
	if err := a.db.Close(); err != nil {
		logging.Warn("Failed to close database: %v", err)
	}
}
