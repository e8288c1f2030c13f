// Package scale resizes sheets and frames. Pixel-art assets usually want
// nearest-neighbor so hard edges survive; the other filters exist for
// painted sprites and preview thumbnails.
package scale

import (
	"image"

	"github.com/nfnt/resize"

	"github.com/pixelmill/spritepack/pkg/errors"
)

// Filter names an interpolation kernel.
type Filter string

// Supported filters.
const (
	FilterNearest  Filter = "nearest"
	FilterBilinear Filter = "bilinear"
	FilterBicubic  Filter = "bicubic"
	FilterLanczos  Filter = "lanczos"
)

// DefaultFilter is used when no filter is given.
const DefaultFilter = FilterNearest

func interpolation(f Filter) (resize.InterpolationFunction, error) {
	switch f {
	case FilterNearest, "":
		return resize.NearestNeighbor, nil
	case FilterBilinear:
		return resize.Bilinear, nil
	case FilterBicubic:
		return resize.Bicubic, nil
	case FilterLanczos:
		return resize.Lanczos3, nil
	default:
		return 0, errors.New(errors.ErrCodeInvalidInput, "unknown scale filter %q", f)
	}
}

// ByFactor scales img uniformly. The factor must be positive.
func ByFactor(img image.Image, factor float64, filter Filter) (image.Image, error) {
	if factor <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scale factor must be positive, got %g", factor)
	}
	interp, err := interpolation(filter)
	if err != nil {
		return nil, err
	}
	w := uint(float64(img.Bounds().Dx()) * factor)
	h := uint(float64(img.Bounds().Dy()) * factor)
	if w == 0 || h == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scale factor %g collapses image to zero size", factor)
	}
	return resize.Resize(w, h, img, interp), nil
}

// ToSize scales img to width x height. Passing zero for one dimension
// preserves the aspect ratio; passing zero for both is an error.
func ToSize(img image.Image, width, height int, filter Filter) (image.Image, error) {
	if width < 0 || height < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "target size %dx%d is negative", width, height)
	}
	if width == 0 && height == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "target size requires at least one dimension")
	}
	interp, err := interpolation(filter)
	if err != nil {
		return nil, err
	}
	return resize.Resize(uint(width), uint(height), img, interp), nil
}
