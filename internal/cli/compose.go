package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixelmill/spritepack/pkg/pipeline"
	"github.com/pixelmill/spritepack/pkg/sheet"
)

// composeCommand creates the compose command, the main pipeline entry.
func (c *CLI) composeCommand() *cobra.Command {
	var (
		opts    pipeline.Options
		preview bool
	)

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose animation frames into a sprite sheet",
		Long: `Compose animation frames into a sprite sheet.

The compose command reads a layout configuration (TOML, JSON or YAML),
resolves numbered frame files from one subdirectory per animation, packs
each animation into its configured grid row, and writes the sheet texture
together with a JSON descriptor locating every frame.

The run is all-or-nothing: configuration and input problems are reported
together and nothing is written unless every animation resolves cleanly.

Results are cached locally; unchanged inputs skip recomposition.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if preview {
				opts.PreviewPath = previewPath(opts.Output)
			}
			return c.runCompose(cmd.Context(), opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "layout configuration file (required)")
	cmd.Flags().StringVarP(&opts.InputDir, "input", "i", "", "directory with one subdirectory per animation (required)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "sheet texture path (required)")
	cmd.Flags().StringVar(&opts.DescriptorPath, "descriptor", "", "descriptor path (default: output with .json)")
	cmd.Flags().BoolVar(&preview, "preview", false, "also write an annotated preview image")
	cmd.Flags().BoolVar(&opts.NoCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&opts.Refresh, "refresh", false, "recompose even when a cached sheet exists")
	_ = cmd.MarkFlagRequired("config")
	_ = cmd.MarkFlagRequired("input")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}

// runCompose executes the pipeline and reports the outcome.
func (c *CLI) runCompose(ctx context.Context, opts pipeline.Options) error {
	runner, err := c.newRunner(opts.NoCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	opts.Logger = c.Logger
	// Validate up front so defaults like the descriptor path are visible
	// when reporting the written files below.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Composing sheet...")
	spinner.Start()

	result, err := runner.Execute(ctx, opts)
	if err != nil {
		spinner.StopWithError("Composition failed")
		printIssues(err)
		return err
	}
	spinner.Stop()

	printSuccess("Composed %s sheet", fmt.Sprintf("%dx%d",
		result.Config.SheetWidth(), result.Config.SheetHeight()))
	printStats(result.Stats.Animations, result.Stats.Frames, result.CacheInfo.SheetHit)
	printFile(opts.Output)
	printFile(opts.DescriptorPath)
	if opts.PreviewPath != "" {
		printFile(opts.PreviewPath)
	}
	return nil
}

// printIssues lists every collected resolution issue, one line each.
func printIssues(err error) {
	var resolveErr *sheet.ResolveError
	if !errors.As(err, &resolveErr) {
		return
	}
	for _, issue := range resolveErr.Issues {
		printDetail("%s", issue.Error())
	}
}

// previewPath derives the preview image path from the sheet path.
func previewPath(output string) string {
	if output == "" {
		return ""
	}
	if idx := strings.LastIndex(output, "."); idx > 0 {
		return output[:idx] + "_preview" + output[idx:]
	}
	return output + "_preview.png"
}
