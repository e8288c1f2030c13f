package sheet

import (
	"image"
	"image/draw"
)

// Composite renders the packed grid onto a single canvas of exact size
// cols*frameWidth x rows*frameHeight. Every pixel starts as the configured
// background; occupied cells are overwritten verbatim with draw.Src, so
// frame alpha is preserved rather than blended. The canvas is straight
// alpha (NRGBA): copying through a premultiplied representation would
// round channel values on every semi-transparent pixel, and identical
// layouts must produce byte-identical canvases.
func Composite(cfg *LayoutConfig, layout *GridLayout) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, cfg.SheetWidth(), cfg.SheetHeight()))
	bg := cfg.Background
	for i := 0; i < len(canvas.Pix); i += 4 {
		canvas.Pix[i] = bg.R
		canvas.Pix[i+1] = bg.G
		canvas.Pix[i+2] = bg.B
		canvas.Pix[i+3] = bg.A
	}

	for row := 0; row < cfg.Rows; row++ {
		for col := 0; col < cfg.Cols; col++ {
			frame, ok := layout.Frame(row, col)
			if !ok {
				continue
			}
			cell := image.Rect(
				col*cfg.FrameWidth,
				row*cfg.FrameHeight,
				(col+1)*cfg.FrameWidth,
				(row+1)*cfg.FrameHeight,
			)
			draw.Draw(canvas, cell, frame.Image, frame.Image.Bounds().Min, draw.Src)
		}
	}

	return canvas
}

// CanvasFromImage converts a decoded image back to the canvas
// representation, copying pixels verbatim.
func CanvasFromImage(img image.Image) *image.NRGBA {
	if canvas, ok := img.(*image.NRGBA); ok {
		return canvas
	}
	canvas := image.NewNRGBA(img.Bounds())
	draw.Draw(canvas, canvas.Bounds(), img, img.Bounds().Min, draw.Src)
	return canvas
}
