package library

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"photo-curator/internal/logging"
	"photo-curator/internal/media"
	"photo-curator/internal/photo"
)

// fileJob is a photo file waiting to be read.
type fileJob struct {
	path    string
	relPath string
	info    fs.FileInfo
}

// fileResult is a processed file.
type fileResult struct {
	rec *photo.Record
	err error
}

// walker scans a directory tree with a fixed pool of workers.
type walker struct {
	root       string
	numWorkers int
	skipHidden bool

	jobs    chan fileJob
	results chan fileResult
	wg      sync.WaitGroup

	filesProcessed atomic.Int64
	errorsCount    atomic.Int64
}

func newWalker(root string, cfg Config) *walker {
	return &walker{
		root:       root,
		numWorkers: cfg.Workers,
		skipHidden: cfg.SkipHidden,
		jobs:       make(chan fileJob, cfg.ChannelBuffer),
		results:    make(chan fileResult, cfg.ChannelBuffer),
	}
}

// walk returns a record for every readable photo under root.
func (w *walker) walk(ctx context.Context) ([]photo.Record, error) {
	logging.Debug("Scanning %s with %d workers", w.root, w.numWorkers)
	startTime := time.Now()

	for i := 0; i < w.numWorkers; i++ {
		w.wg.Add(1)
		go w.worker(ctx)
	}

	var records []photo.Record
	var collectorWg sync.WaitGroup
	collectorWg.Add(1)
	go func() {
		defer collectorWg.Done()
		for result := range w.results {
			if result.err != nil {
				w.errorsCount.Add(1)
				logging.Debug("Error reading photo: %v", result.err)
				continue
			}
			records = append(records, *result.rec)
		}
	}()

	err := w.walkAndEnqueue(ctx)
	close(w.jobs)
	w.wg.Wait()
	close(w.results)
	collectorWg.Wait()

	logging.Debug("Scan complete: %d photos in %v (errors: %d)",
		w.filesProcessed.Load(), time.Since(startTime), w.errorsCount.Load())

	if err == nil {
		err = ctx.Err()
	}
	return records, err
}

func (w *walker) walkAndEnqueue(ctx context.Context) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			if path == w.root {
				return err
			}
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if w.skipHidden && path != w.root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsPhotoFile(d.Name()) {
			return nil
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			//nolint:nilerr // skip this file, keep walking
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Error getting info for %s: %v", path, err)
			return nil
		}

		select {
		case w.jobs <- fileJob{path: path, relPath: filepath.ToSlash(relPath), info: info}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

func (w *walker) worker(ctx context.Context) {
	defer w.wg.Done()

	for job := range w.jobs {
		if ctx.Err() != nil {
			continue
		}
		result := w.processFile(job)
		if result.err == nil {
			w.filesProcessed.Add(1)
		}
		w.results <- result
	}
}

// processFile builds the record for one photo file.
func (w *walker) processFile(job fileJob) fileResult {
	format, err := media.DetectFileFormat(job.path)
	if err != nil {
		return fileResult{err: err}
	}
	if format == media.FormatUnknown {
		return fileResult{err: &unsupportedError{path: job.relPath}}
	}

	rec := photo.Record{
		ID:         job.relPath,
		Path:       job.relPath,
		ModifiedAt: job.info.ModTime(),
		FileSize:   job.info.Size(),
		Format:     format,
	}

	exif := readEXIF(job.path)
	rec.CreatedAt = exif.DateTimeOriginal
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = job.info.ModTime()
	}
	rec.HasLocation = exif.HasGPS
	rec.Origin = originFor(job.relPath, exif.HasCamera())

	// HEIF headers are not readable without libvips; dimensions stay unknown.
	if dims, err := media.GetImageDimensions(job.path); err == nil {
		rec.Width, rec.Height = dims.Width, dims.Height
	}

	return fileResult{rec: &rec}
}

type unsupportedError struct {
	path string
}

func (e *unsupportedError) Error() string {
	return "unsupported image format: " + e.path
}
