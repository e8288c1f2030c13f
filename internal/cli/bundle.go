package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixelmill/spritepack/pkg/bundle"
	"github.com/pixelmill/spritepack/pkg/raster"
	"github.com/pixelmill/spritepack/pkg/sheet"
)

// bundleCommand creates the bundle command group.
func (c *CLI) bundleCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bundle",
		Short: "Manage sprite sheet resource files",
	}

	cmd.AddCommand(c.bundleAddCommand())
	cmd.AddCommand(c.bundleListCommand())

	return cmd
}

// bundleAddCommand creates the "bundle add" subcommand.
func (c *CLI) bundleAddCommand() *cobra.Command {
	var (
		output string
		name   string
	)

	cmd := &cobra.Command{
		Use:   "add [sheet.png] [sheet.json]",
		Short: "Add a sheet and its descriptor to a resource file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			return c.runBundleAdd(output, name, args[0], args[1])
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "resources.dat", "resource file path")
	cmd.Flags().StringVar(&name, "name", "", "sheet name in the bundle (default: texture filename)")

	return cmd
}

func (c *CLI) runBundleAdd(bundlePath, name, texturePath, descriptorPath string) error {
	img, err := raster.New().Decode(texturePath)
	if err != nil {
		return err
	}
	descriptorData, err := os.ReadFile(descriptorPath)
	if err != nil {
		return fmt.Errorf("read descriptor %s: %w", descriptorPath, err)
	}
	var descriptor sheet.Descriptor
	if err := json.Unmarshal(descriptorData, &descriptor); err != nil {
		return fmt.Errorf("parse descriptor %s: %w", descriptorPath, err)
	}

	b, err := bundle.Open(bundlePath)
	if err != nil {
		return err
	}
	defer b.Close()

	s := &sheet.SpriteSheet{Canvas: sheet.CanvasFromImage(img), Descriptor: &descriptor}
	if err := b.Put(name, s); err != nil {
		return err
	}

	printSuccess("Bundled sheet %q", name)
	printFile(bundlePath)
	return nil
}

// bundleListCommand creates the "bundle list" subcommand.
func (c *CLI) bundleListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list [resource-file]",
		Short: "List the sheets stored in a resource file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := bundle.Open(args[0])
			if err != nil {
				return err
			}
			defer b.Close()

			names, err := b.List()
			if err != nil {
				return err
			}
			if len(names) == 0 {
				printInfo("Bundle is empty")
				return nil
			}
			for _, name := range names {
				s, err := b.Get(name)
				if err != nil {
					return err
				}
				printKeyValue(name, fmt.Sprintf("%dx%d, %d animations",
					s.Canvas.Bounds().Dx(), s.Canvas.Bounds().Dy(),
					len(s.Descriptor.Animations)))
			}
			return nil
		},
	}
}
