// Package gifenc turns an animation's frame sequence into an animated
// GIF preview. Frames are quantized with a median-cut palette and a
// transparent slot is reserved so sprite transparency survives encoding.
package gifenc

import (
	"image"
	"image/color"
	"image/draw"
	"image/gif"
	"os"
	"path/filepath"

	"github.com/andybons/gogif"

	"github.com/pixelmill/spritepack/pkg/errors"
	"github.com/pixelmill/spritepack/pkg/sheet"
)

// Options control animation playback in the encoded GIF.
type Options struct {
	// DelayCS is the per-frame delay in hundredths of a second.
	// Defaults to 10 (10 fps) when zero.
	DelayCS int

	// LoopCount is the number of times the animation repeats.
	// Zero loops forever, -1 plays once.
	LoopCount int
}

func (o *Options) delay() int {
	if o == nil || o.DelayCS <= 0 {
		return 10
	}
	return o.DelayCS
}

func (o *Options) loopCount() int {
	if o == nil {
		return 0
	}
	return o.LoopCount
}

// Encode assembles frames into an animated GIF document. Frame order is
// playback order. At least one frame is required.
func Encode(frames []sheet.Frame, opts *Options) (*gif.GIF, error) {
	if len(frames) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "animation has no frames to encode")
	}

	g := &gif.GIF{}
	// 255 colors from the quantizer plus one slot for transparency.
	quantizer := gogif.MedianCutQuantizer{NumColor: 255}

	for _, frame := range frames {
		bounds := frame.Image.Bounds()
		pal := image.NewPaletted(bounds, nil)
		quantizer.Quantize(pal, bounds, frame.Image, image.Point{})

		// Rebuild the paletted frame with color.Transparent at index 0 so
		// uncovered pixels default to it.
		palTransparent := image.NewPaletted(bounds,
			append(color.Palette{color.Transparent}, pal.Palette...))
		draw.Draw(palTransparent, bounds, frame.Image, bounds.Min, draw.Over)

		g.Image = append(g.Image, palTransparent)
		g.Delay = append(g.Delay, opts.delay())
		g.Disposal = append(g.Disposal, gif.DisposalBackground)
	}
	g.BackgroundIndex = 0
	g.LoopCount = opts.loopCount()

	return g, nil
}

// EncodeFile encodes frames and writes the GIF to path atomically.
func EncodeFile(frames []sheet.Frame, path string, opts *Options) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}

	g, err := Encode(frames, opts)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "create directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "write %s", path)
	}
	tmpName := tmp.Name()
	if err := gif.EncodeAll(tmp, g); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "write %s", path)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "write %s", path)
	}
	return nil
}
