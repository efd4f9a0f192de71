package media

import (
	"fmt"
	"image"
	"math"

	"photo-curator/internal/filesystem"
	"photo-curator/internal/logging"
	"photo-curator/internal/metrics"

	// Image format decoders
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension is the maximum width or height we'll process.
	// Larger images are downscaled on load.
	MaxImageDimension = 4096

	// MaxImagePixels is the maximum total pixels (width * height) we'll process.
	// A 50MP image would be ~50,000,000 pixels, which uses ~200MB in RGBA.
	MaxImagePixels = 20_000_000
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// FitDimensions scales width x height down so that neither side exceeds
// maxDimension and the area does not exceed maxPixels, keeping the aspect
// ratio. Sizes already within bounds are returned unchanged.
func FitDimensions(width, height, maxDimension, maxPixels int) (int, int) {
	if width <= 0 || height <= 0 {
		return width, height
	}

	targetWidth, targetHeight := width, height

	if maxDimension > 0 && (width > maxDimension || height > maxDimension) {
		if width > height {
			targetWidth = maxDimension
			targetHeight = max(1, height*maxDimension/width)
		} else {
			targetHeight = maxDimension
			targetWidth = max(1, width*maxDimension/height)
		}
	}

	if maxPixels > 0 && targetWidth*targetHeight > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(targetWidth*targetHeight))
		targetWidth = max(1, int(float64(targetWidth)*scale))
		targetHeight = max(1, int(float64(targetHeight)*scale))
	}

	return targetWidth, targetHeight
}

// DecodeFile decodes the image at path so that its longest side is at most
// maxDimension. libvips is used when it is initialized, which shrinks during
// decode and also covers HEIF; otherwise the image is decoded with imaging
// and resized.
func DecodeFile(path string, maxDimension int) (image.Image, error) {
	if maxDimension <= 0 {
		maxDimension = MaxImageDimension
	}

	format, err := DetectFileFormat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if IsVipsAvailable() {
		img, err := LoadImageWithVips(path, maxDimension, maxDimension)
		if err == nil {
			metrics.ThumbnailDecodeByFormat.WithLabelValues(format, "vips").Inc()
			return img, nil
		}
		logging.Debug("vips decode failed for %s: %v, falling back to imaging", path, err)
	}

	if NeedsVips(format) {
		return nil, fmt.Errorf("%s image %s requires libvips", format, path)
	}

	img, err := loadImageConstrained(path, maxDimension, MaxImagePixels)
	if err != nil {
		return nil, err
	}
	metrics.ThumbnailDecodeByFormat.WithLabelValues(format, "imaging").Inc()
	return img, nil
}

// loadImageConstrained loads an image, downscaling if it exceeds size limits.
func loadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	targetWidth, targetHeight := FitDimensions(width, height, maxDimension, maxPixels)
	if targetWidth == width && targetHeight == height {
		return img, nil
	}

	logging.Debug("Constraining %s from %dx%d to %dx%d", path, width, height, targetWidth, targetHeight)
	return imaging.Resize(img, targetWidth, targetHeight, imaging.Lanczos), nil
}
