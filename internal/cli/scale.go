package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixelmill/spritepack/pkg/raster"
	"github.com/pixelmill/spritepack/pkg/scale"
)

// scaleCommand creates the scale command for resizing images.
func (c *CLI) scaleCommand() *cobra.Command {
	var (
		output string
		factor float64
		width  int
		height int
		filter string
	)

	cmd := &cobra.Command{
		Use:   "scale [image]",
		Short: "Resize an image by factor or target size",
		Long: `Resize an image by factor or target size.

Either --factor or --width/--height must be given. Specifying only one of
width and height preserves the aspect ratio. The default nearest filter
keeps pixel-art edges hard; use bilinear, bicubic or lanczos for painted
art.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if factor == 0 && width == 0 && height == 0 {
				return fmt.Errorf("one of --factor, --width or --height is required")
			}
			if factor != 0 && (width != 0 || height != 0) {
				return fmt.Errorf("--factor and --width/--height are mutually exclusive")
			}
			if output == "" {
				output = scaledPath(args[0])
			}
			return c.runScale(args[0], output, factor, width, height, scale.Filter(filter))
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: <name>_scaled<ext>)")
	cmd.Flags().Float64Var(&factor, "factor", 0, "uniform scale factor")
	cmd.Flags().IntVar(&width, "width", 0, "target width in pixels")
	cmd.Flags().IntVar(&height, "height", 0, "target height in pixels")
	cmd.Flags().StringVar(&filter, "filter", string(scale.DefaultFilter), "interpolation: nearest, bilinear, bicubic, lanczos")

	return cmd
}

func (c *CLI) runScale(input, output string, factor float64, width, height int, filter scale.Filter) error {
	io := raster.New()
	img, err := io.Decode(input)
	if err != nil {
		return err
	}

	p := newProgress(c.Logger)
	scaled := img
	if factor != 0 {
		scaled, err = scale.ByFactor(img, factor, filter)
	} else {
		scaled, err = scale.ToSize(img, width, height, filter)
	}
	if err != nil {
		return err
	}
	if err := io.Encode(scaled, output); err != nil {
		return err
	}
	p.done(fmt.Sprintf("Scaled %dx%d to %dx%d",
		img.Bounds().Dx(), img.Bounds().Dy(),
		scaled.Bounds().Dx(), scaled.Bounds().Dy()))

	printSuccess("Scaled image")
	printFile(output)
	return nil
}

// scaledPath derives the default output path from the input path.
func scaledPath(input string) string {
	ext := filepath.Ext(input)
	return strings.TrimSuffix(input, ext) + "_scaled" + ext
}
