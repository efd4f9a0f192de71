package media

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"reflect"

	"photo-curator/internal/metrics"
)

// ErrInvalidImage is returned by ImageValidator for images that must not
// reach the vision engine.
var ErrInvalidImage = errors.New("invalid image")

// ImageValidator runs cheap checks on a decoded image before analysis.
type ImageValidator struct {
	MinDimension int
	MaxDimension int
	MaxPixels    int
}

// NewImageValidator returns a validator with the default bounds.
func NewImageValidator() ImageValidator {
	return ImageValidator{
		MinDimension: 8,
		MaxDimension: MaxImageDimension,
		MaxPixels:    MaxImagePixels,
	}
}

// Validate returns nil if img is safe to analyze, otherwise an error
// wrapping ErrInvalidImage.
func (v ImageValidator) Validate(img image.Image) error {
	if isNilImage(img) {
		return v.reject("nil", "image is nil")
	}

	model, b, err := inspect(img)
	if err != nil {
		return v.reject("unreadable", err.Error())
	}
	if model == nil {
		return v.reject("color_model", "image has no color model")
	}

	w, h := b.Dx(), b.Dy()
	switch {
	case w <= 0 || h <= 0:
		return v.reject("empty", fmt.Sprintf("empty bounds %v", b))
	case w < v.MinDimension || h < v.MinDimension:
		return v.reject("too_small", fmt.Sprintf("%dx%d below %d", w, h, v.MinDimension))
	case v.MaxDimension > 0 && (w > v.MaxDimension || h > v.MaxDimension):
		return v.reject("too_large", fmt.Sprintf("%dx%d above %d", w, h, v.MaxDimension))
	case v.MaxPixels > 0 && w*h > v.MaxPixels:
		return v.reject("too_large", fmt.Sprintf("%d pixels above %d", w*h, v.MaxPixels))
	}
	return nil
}

func (v ImageValidator) reject(reason, detail string) error {
	metrics.ImageValidationFailures.WithLabelValues(reason).Inc()
	return fmt.Errorf("%w: %s", ErrInvalidImage, detail)
}

// isNilImage reports whether img is nil, including a nil pointer held in a
// non-nil interface.
func isNilImage(img image.Image) bool {
	if img == nil {
		return true
	}
	rv := reflect.ValueOf(img)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

// inspect reads the color model and bounds of img, converting a panic from
// a malformed image into an error.
func inspect(img image.Image) (model color.Model, bounds image.Rectangle, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("image header panic: %v", r)
		}
	}()
	return img.ColorModel(), img.Bounds(), nil
}
