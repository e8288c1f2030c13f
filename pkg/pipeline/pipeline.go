// Package pipeline provides the core sheet composition pipeline.
//
// This package implements the complete load → resolve → compose → emit
// pipeline that can be used by CLI and API components. By centralizing
// this logic, we ensure consistent behavior across all entry points and
// avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Parse and validate the layout configuration
//  2. Resolve: Discover and decode frame files from the input directory
//  3. Compose: Assign frames to grid cells and paint the canvas
//  4. Emit: Write the sheet texture, descriptor, and optional preview
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, logger)
//	opts := pipeline.Options{
//	    ConfigPath: "character.toml",
//	    InputDir:   "./frames",
//	    Output:     "character.png",
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
package pipeline

import (
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pixelmill/spritepack/pkg/errors"
	"github.com/pixelmill/spritepack/pkg/sheet"
)

// Cache TTLs per artifact kind. Sheets are keyed by content hash, so
// entries never serve stale data; the TTL only bounds disk usage.
const (
	TTLSheet      = 7 * 24 * time.Hour
	TTLDescriptor = 7 * 24 * time.Hour
)

// Options contains all configuration for the composition pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// ConfigPath is the layout configuration file (TOML, JSON or YAML).
	ConfigPath string `json:"config_path"`

	// InputDir is the directory holding one subdirectory per animation.
	InputDir string `json:"input_dir"`

	// Output is the sheet texture path. The extension picks the codec.
	Output string `json:"output"`

	// DescriptorPath is the JSON descriptor path. Defaults to Output
	// with a .json extension.
	DescriptorPath string `json:"descriptor,omitempty"`

	// PreviewPath, when set, also writes an annotated preview image.
	PreviewPath string `json:"preview,omitempty"`

	// NoCache disables artifact caching for this run.
	NoCache bool `json:"no_cache,omitempty"`

	// Refresh recomposes even when a cached sheet exists and overwrites
	// the cache entry.
	Refresh bool `json:"refresh,omitempty"`

	// Concurrency bounds parallel frame decoding. Zero means NumCPU.
	Concurrency int `json:"concurrency,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.ConfigPath == "" {
		return errors.New(errors.ErrCodeInvalidInput, "config path is required")
	}
	if o.InputDir == "" {
		return errors.New(errors.ErrCodeInvalidInput, "input directory is required")
	}
	if o.Output == "" {
		return errors.New(errors.ErrCodeInvalidInput, "output path is required")
	}
	if err := errors.ValidateOutputPath(o.Output); err != nil {
		return err
	}
	if o.DescriptorPath == "" {
		o.DescriptorPath = strings.TrimSuffix(o.Output, filepath.Ext(o.Output)) + ".json"
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// Outputs lists every path this run will write.
func (o *Options) Outputs() []string {
	outputs := []string{o.Output, o.DescriptorPath}
	if o.PreviewPath != "" {
		outputs = append(outputs, o.PreviewPath)
	}
	return outputs
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Config is the validated layout configuration.
	Config *sheet.LayoutConfig

	// Sheet is the composed canvas and its descriptor.
	Sheet *sheet.SpriteSheet

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	Animations  int
	Frames      int
	LoadTime    time.Duration
	ResolveTime time.Duration
	ComposeTime time.Duration
	EmitTime    time.Duration
}

// CacheInfo tracks cache hits for the run.
type CacheInfo struct {
	SheetHit bool // Whether the composed sheet came from cache
}
