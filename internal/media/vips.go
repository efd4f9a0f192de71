package media

import (
	"bytes"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"photo-curator/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

var (
	vipsMu        sync.Mutex
	vipsAvailable bool
)

// vipsLogging maps the application log level to the libvips threshold and a
// handler forwarding libvips messages into the application logger.
func vipsLogging(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	threshold := vips.LogLevelWarning
	switch level {
	case logging.LevelDebug:
		threshold = vips.LogLevelInfo
	case logging.LevelWarn:
		threshold = vips.LogLevelError
	case logging.LevelError:
		threshold = vips.LogLevelCritical
	}

	handler := func(domain string, l vips.LogLevel, msg string) {
		switch l {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}
	return threshold, handler
}

// InitVips initializes libvips. Call once at startup; later calls are no-ops.
// concurrency bounds the libvips worker pool per operation; the analysis
// pipeline already runs many decodes in parallel.
func InitVips(concurrency int) {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsAvailable {
		return
	}

	// Logging must be configured before Startup.
	threshold, handler := vipsLogging(logging.GetLevel())
	vips.LoggingSettings(handler, threshold)

	vips.Startup(&vips.Config{
		ConcurrencyLevel: max(1, concurrency),
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsAvailable {
		vips.Shutdown()
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsAvailable
}

// LoadImageWithVips loads and shrinks an image with libvips. JPEG and HEIF
// sources are shrunk during decode, so the full-size bitmap never exists.
func LoadImageWithVips(path string, targetWidth, targetHeight int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, fmt.Errorf("libvips not available")
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded %s: %dx%d, shrinking to fit %dx%d",
		filepath.Base(path), ref.Width(), ref.Height(), targetWidth, targetHeight)

	if ref.Width() > targetWidth || ref.Height() > targetHeight {
		if err := ref.Thumbnail(targetWidth, targetHeight, vips.InterestingNone); err != nil {
			return nil, fmt.Errorf("vips resize failed: %w", err)
		}
	}

	// Round-trip through JPEG to hand the pipeline a plain image.Image.
	imgBytes, _, err := ref.ExportJpeg(&vips.JpegExportParams{
		Quality:        92,
		OptimizeCoding: true,
	})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(imgBytes), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}

	return img, nil
}
