package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixelmill/spritepack/pkg/gifenc"
	"github.com/pixelmill/spritepack/pkg/raster"
	"github.com/pixelmill/spritepack/pkg/sheet"
)

// gifCommand creates the gif command for animated previews.
func (c *CLI) gifCommand() *cobra.Command {
	var (
		output string
		delay  int
		loop   int
	)

	cmd := &cobra.Command{
		Use:   "gif [frame-dir]",
		Short: "Encode a frame directory as an animated GIF",
		Long: `Encode a frame directory as an animated GIF.

Frames are numbered files (1.png, 2.png, ...) played in numeric order,
the same convention the compose command resolves. Transparency is
preserved through a reserved palette slot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = filepath.Base(filepath.Clean(args[0])) + ".gif"
			}
			return c.runGIF(cmd.Context(), args[0], output, delay, loop)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output GIF path (default: <dir>.gif)")
	cmd.Flags().IntVar(&delay, "delay", 10, "per-frame delay in hundredths of a second")
	cmd.Flags().IntVar(&loop, "loop", 0, "loop count (0 loops forever, -1 plays once)")

	return cmd
}

func (c *CLI) runGIF(ctx context.Context, dir, output string, delay, loop int) error {
	frames, err := loadNumberedFrames(dir)
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no numbered frames in %s", dir)
	}

	p := newProgress(loggerFromContext(ctx))
	if err := gifenc.EncodeFile(frames, output, &gifenc.Options{DelayCS: delay, LoopCount: loop}); err != nil {
		return err
	}
	p.done(fmt.Sprintf("Encoded %d frames", len(frames)))

	printSuccess("Wrote animated GIF")
	printFile(output)
	return nil
}

// loadNumberedFrames decodes integer-named frame files in numeric order.
func loadNumberedFrames(dir string) ([]sheet.Frame, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read frame directory %s: %w", dir, err)
	}

	type numbered struct {
		ordinal int
		path    string
	}
	var files []numbered
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		stem := strings.TrimSuffix(entry.Name(), filepath.Ext(entry.Name()))
		n, err := strconv.Atoi(stem)
		if err != nil {
			continue
		}
		files = append(files, numbered{ordinal: n, path: filepath.Join(dir, entry.Name())})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].ordinal < files[j].ordinal })

	io := raster.New()
	frames := make([]sheet.Frame, 0, len(files))
	for _, f := range files {
		img, err := io.Decode(f.path)
		if err != nil {
			return nil, err
		}
		frames = append(frames, sheet.Frame{Path: f.path, Image: img})
	}
	return frames, nil
}
