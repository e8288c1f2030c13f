package sheet

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/pixelmill/spritepack/pkg/errors"
	"github.com/pixelmill/spritepack/pkg/raster"
)

// Frame is a decoded animation frame handle, owned by the resolver until
// the compositor consumes it.
type Frame struct {
	Path  string
	Image image.Image
}

// FrameSet holds one animation's frames, ordered by ascending numeric
// ordinal parsed from the filename stem.
type FrameSet struct {
	Animation string
	Frames    []Frame
}

// frameExts are the raster extensions the resolver considers. Anything
// else in an animation directory is ignored, as are files whose stem is
// not a plain integer.
var frameExts = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".bmp":  true,
	".tif":  true,
	".tiff": true,
}

// Resolver discovers and validates per-animation frame files.
type Resolver struct {
	IO raster.Decoder

	// Concurrency bounds the number of animations resolved in parallel.
	// Zero means one worker per CPU.
	Concurrency int
}

// NewResolver creates a resolver using the given raster decoder.
func NewResolver(io raster.Decoder) *Resolver {
	return &Resolver{IO: io}
}

// Resolve finds and validates the frames of every animation declared in
// cfg under inputDir/<animation>/<ordinal>.<ext>.
//
// Animations resolve concurrently but failures are merged in config
// declaration order, so identical inputs always produce the identical
// error report. If any animation fails, Resolve returns a *ResolveError
// carrying every collected issue and no frame sets at all.
func (r *Resolver) Resolve(ctx context.Context, inputDir string, cfg *LayoutConfig) (map[string]*FrameSet, error) {
	if _, err := os.Stat(inputDir); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "input directory %s not found", inputDir)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "stat input directory %s", inputDir)
	}

	sets := make([]*FrameSet, len(cfg.Animations))
	issues := make([][]error, len(cfg.Animations))

	g, ctx := errgroup.WithContext(ctx)
	limit := r.Concurrency
	if limit <= 0 {
		limit = runtime.NumCPU()
	}
	g.SetLimit(limit)

	for i, anim := range cfg.Animations {
		i, anim := i, anim
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sets[i], issues[i] = r.resolveAnimation(inputDir, cfg, anim)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var collected []error
	for _, animIssues := range issues {
		collected = append(collected, animIssues...)
	}
	if len(collected) > 0 {
		return nil, &ResolveError{Issues: collected}
	}

	out := make(map[string]*FrameSet, len(sets))
	for _, fs := range sets {
		out[fs.Animation] = fs
	}
	return out, nil
}

// resolveAnimation loads one animation's directory. It reports every
// problem it can find in a single pass: each mis-sized frame plus a count
// mismatch, not just the first failure.
func (r *Resolver) resolveAnimation(inputDir string, cfg *LayoutConfig, anim Animation) (*FrameSet, []error) {
	dir := filepath.Join(inputDir, anim.Name)
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, []error{&MissingAnimationDirError{Animation: anim.Name, Dir: dir}}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, []error{errors.Wrap(errors.ErrCodeInvalidInput, err, "read directory %s", dir)}
	}

	type ordinalFile struct {
		ordinal int
		name    string
	}
	var files []ordinalFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !frameExts[ext] {
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		ordinal, err := strconv.Atoi(stem)
		if err != nil {
			// Not part of the naming convention; never a count contributor.
			continue
		}
		files = append(files, ordinalFile{ordinal: ordinal, name: name})
	}

	// Numeric sort: 2.png before 10.png. Name breaks ties like 1.png
	// vs 01.png so the order stays stable.
	sort.Slice(files, func(a, b int) bool {
		if files[a].ordinal != files[b].ordinal {
			return files[a].ordinal < files[b].ordinal
		}
		return files[a].name < files[b].name
	})

	var issues []error
	fs := &FrameSet{Animation: anim.Name, Frames: make([]Frame, 0, len(files))}
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		img, err := r.IO.Decode(path)
		if err != nil {
			issues = append(issues, err)
			continue
		}
		bounds := img.Bounds()
		if bounds.Dx() != cfg.FrameWidth || bounds.Dy() != cfg.FrameHeight {
			issues = append(issues, &FrameDimensionError{
				Animation: anim.Name,
				Path:      path,
				WantW:     cfg.FrameWidth,
				WantH:     cfg.FrameHeight,
				GotW:      bounds.Dx(),
				GotH:      bounds.Dy(),
			})
			continue
		}
		fs.Frames = append(fs.Frames, Frame{Path: path, Image: img})
	}

	if len(files) != anim.Frames {
		issues = append(issues, &FrameCountError{
			Animation: anim.Name,
			Expected:  anim.Frames,
			Found:     len(files),
		})
	}

	if len(issues) > 0 {
		return nil, issues
	}
	return fs, nil
}
