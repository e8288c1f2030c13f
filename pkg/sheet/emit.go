package sheet

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"golang.org/x/image/font/basicfont"

	"github.com/pixelmill/spritepack/pkg/errors"
	"github.com/pixelmill/spritepack/pkg/raster"
)

// Descriptor is the machine-readable layout document a game engine
// consumes next to the sheet texture. Frame i of an animation lives at the
// pixel rectangle (i*frame_width, row*frame_height, frame_width,
// frame_height).
type Descriptor struct {
	Texture     string                         `json:"texture"`
	FrameWidth  int                            `json:"frame_width"`
	FrameHeight int                            `json:"frame_height"`
	Cols        int                            `json:"cols"`
	Rows        int                            `json:"rows"`
	Animations  map[string]DescriptorAnimation `json:"animations"`
}

// DescriptorAnimation locates one animation's row inside the sheet.
type DescriptorAnimation struct {
	Row         int `json:"row"`
	Frames      int `json:"frames"`
	StartColumn int `json:"start_column"`
}

// FrameRect computes the pixel rectangle of frame i of the named
// animation. ok is false for unknown animations or out-of-range indices.
func (d *Descriptor) FrameRect(animation string, i int) (image.Rectangle, bool) {
	anim, ok := d.Animations[animation]
	if !ok || i < 0 || i >= anim.Frames {
		return image.Rectangle{}, false
	}
	x := (anim.StartColumn + i) * d.FrameWidth
	y := anim.Row * d.FrameHeight
	return image.Rect(x, y, x+d.FrameWidth, y+d.FrameHeight), true
}

// NewDescriptor builds the descriptor for a config and its sheet texture.
func NewDescriptor(cfg *LayoutConfig, texturePath string) *Descriptor {
	d := &Descriptor{
		Texture:     texturePath,
		FrameWidth:  cfg.FrameWidth,
		FrameHeight: cfg.FrameHeight,
		Cols:        cfg.Cols,
		Rows:        cfg.Rows,
		Animations:  make(map[string]DescriptorAnimation, len(cfg.Animations)),
	}
	for _, anim := range cfg.Animations {
		d.Animations[anim.Name] = DescriptorAnimation{Row: anim.Row, Frames: anim.Frames}
	}
	return d
}

// SpriteSheet is the finished output pair: the composited canvas and its
// layout descriptor. The canvas must not be mutated after construction.
type SpriteSheet struct {
	Canvas     *image.NRGBA
	Descriptor *Descriptor
}

// Emitter writes sheets, descriptors and previews to disk. Every write is
// all-or-nothing: a failure never leaves a truncated file behind that
// could pass for a valid output.
type Emitter struct {
	IO raster.Encoder
}

// NewEmitter creates an emitter using the given raster encoder.
func NewEmitter(io raster.Encoder) *Emitter {
	return &Emitter{IO: io}
}

// EmitSheet writes the primary canvas to path.
func (e *Emitter) EmitSheet(canvas *image.NRGBA, path string) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}
	return e.IO.Encode(canvas, path)
}

// EmitDescriptor writes the layout descriptor as indented JSON to path,
// atomically.
func (e *Emitter) EmitDescriptor(d *Descriptor, path string) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}

	data, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "marshal descriptor")
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "create directory %s", dir)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(errors.ErrCodeOutputWrite, err, "write %s", path)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
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

var (
	previewGrid  = color.NRGBA{R: 255, G: 255, B: 255, A: 128}
	previewLabel = color.NRGBA{R: 255, G: 255, B: 0, A: 255}
)

// EmitPreview renders the canvas with 1px grid lines on every cell
// boundary and the animation name at the left edge of its row, then writes
// it to path. The preview draws on a copy; the primary canvas is never
// touched.
func (e *Emitter) EmitPreview(cfg *LayoutConfig, canvas *image.NRGBA, path string) error {
	if err := errors.ValidateOutputPath(path); err != nil {
		return err
	}

	w, h := cfg.SheetWidth(), cfg.SheetHeight()
	dc := gg.NewContext(w, h)
	dc.DrawImage(canvas, 0, 0)

	dc.SetColor(previewGrid)
	dc.SetLineWidth(1)
	for col := 0; col <= cfg.Cols; col++ {
		x := float64(col*cfg.FrameWidth) + 0.5
		dc.DrawLine(x, 0, x, float64(h))
		dc.Stroke()
	}
	for row := 0; row <= cfg.Rows; row++ {
		y := float64(row*cfg.FrameHeight) + 0.5
		dc.DrawLine(0, y, float64(w), y)
		dc.Stroke()
	}

	dc.SetFontFace(basicfont.Face7x13)
	dc.SetColor(previewLabel)
	for _, anim := range cfg.Animations {
		y := float64(anim.Row*cfg.FrameHeight) + 12
		dc.DrawString(anim.Name, 2, y)
	}

	return e.IO.Encode(dc.Image(), path)
}
