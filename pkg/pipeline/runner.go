package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/png"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/pixelmill/spritepack/pkg/cache"
	"github.com/pixelmill/spritepack/pkg/observability"
	"github.com/pixelmill/spritepack/pkg/raster"
	"github.com/pixelmill/spritepack/pkg/sheet"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
	IO     raster.IO
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
		IO:     raster.New(),
	}
}

// Execute runs the complete load → resolve → compose → emit pipeline.
// Nothing is written unless every stage succeeds.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load
	loadStart := time.Now()
	cfg, err := sheet.LoadConfig(opts.ConfigPath)
	if err != nil {
		return nil, err
	}
	result.Config = cfg
	result.Stats.LoadTime = time.Since(loadStart)
	result.Stats.Animations = len(cfg.Animations)

	configHash, err := fileHash(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("loaded layout",
		"animations", len(cfg.Animations),
		"grid", fmt.Sprintf("%dx%d", cfg.Cols, cfg.Rows),
		"duration", result.Stats.LoadTime)

	// Stage 2: Resolve
	resolveStart := time.Now()
	observability.Pipeline().OnResolveStart(ctx, opts.InputDir, len(cfg.Animations))
	resolver := sheet.NewResolver(r.IO)
	resolver.Concurrency = opts.Concurrency
	sets, err := resolver.Resolve(ctx, opts.InputDir, cfg)
	result.Stats.ResolveTime = time.Since(resolveStart)
	for _, set := range sets {
		result.Stats.Frames += len(set.Frames)
	}
	observability.Pipeline().OnResolveComplete(ctx, opts.InputDir, result.Stats.Frames, result.Stats.ResolveTime, err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("resolved frames",
		"frames", result.Stats.Frames,
		"duration", result.Stats.ResolveTime)

	// Stage 3: Compose, with content-addressed caching. A cached sheet
	// is only valid if both the config bytes and every resolved frame
	// file are unchanged.
	composeStart := time.Now()
	framesHash := framesFingerprint(sets, cfg)
	s, hit, err := r.composeWithCache(ctx, cfg, sets, configHash, framesHash, opts)
	result.Stats.ComposeTime = time.Since(composeStart)
	if err != nil {
		return nil, err
	}
	result.Sheet = s
	result.CacheInfo.SheetHit = hit

	opts.Logger.Info("composed sheet",
		"size", fmt.Sprintf("%dx%d", cfg.SheetWidth(), cfg.SheetHeight()),
		"cached", hit,
		"duration", result.Stats.ComposeTime)

	// Stage 4: Emit
	emitStart := time.Now()
	outputs := opts.Outputs()
	observability.Pipeline().OnEmitStart(ctx, outputs)
	err = r.emit(cfg, s, opts)
	result.Stats.EmitTime = time.Since(emitStart)
	observability.Pipeline().OnEmitComplete(ctx, outputs, result.Stats.EmitTime, err)
	if err != nil {
		return nil, err
	}

	opts.Logger.Info("wrote outputs",
		"paths", outputs,
		"duration", result.Stats.EmitTime)

	return result, nil
}

// composeWithCache returns the composed sheet, either from cache or by
// running pack + composite, and reports whether the cache was hit.
func (r *Runner) composeWithCache(ctx context.Context, cfg *sheet.LayoutConfig, sets map[string]*sheet.FrameSet, configHash, framesHash string, opts Options) (*sheet.SpriteSheet, bool, error) {
	cacheable := !opts.NoCache && framesHash != ""
	sheetKey := r.Keyer.SheetKey(configHash, framesHash)
	descriptorKey := r.Keyer.DescriptorKey(configHash, framesHash)

	if cacheable && !opts.Refresh {
		if s, ok := r.cachedSheet(ctx, sheetKey, descriptorKey); ok {
			observability.Cache().OnCacheHit(ctx, "sheet")
			return s, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "sheet")
	}

	observability.Pipeline().OnComposeStart(ctx, cfg.Cols, cfg.Rows)
	start := time.Now()
	layout, err := sheet.Pack(cfg, sets)
	if err != nil {
		observability.Pipeline().OnComposeComplete(ctx, time.Since(start), err)
		return nil, false, err
	}
	canvas := sheet.Composite(cfg, layout)
	observability.Pipeline().OnComposeComplete(ctx, time.Since(start), nil)

	s := &sheet.SpriteSheet{
		Canvas:     canvas,
		Descriptor: sheet.NewDescriptor(cfg, opts.Output),
	}

	if cacheable {
		r.storeSheet(ctx, sheetKey, descriptorKey, s)
	}
	return s, false, nil
}

// cachedSheet loads a composed sheet from the cache. Corrupt entries are
// treated as misses.
func (r *Runner) cachedSheet(ctx context.Context, sheetKey, descriptorKey string) (*sheet.SpriteSheet, bool) {
	pngData, hit, err := r.Cache.Get(ctx, sheetKey)
	if err != nil || !hit {
		return nil, false
	}
	descriptorData, hit, err := r.Cache.Get(ctx, descriptorKey)
	if err != nil || !hit {
		return nil, false
	}

	img, err := png.Decode(bytes.NewReader(pngData))
	if err != nil {
		return nil, false
	}
	var descriptor sheet.Descriptor
	if err := json.Unmarshal(descriptorData, &descriptor); err != nil {
		return nil, false
	}
	return &sheet.SpriteSheet{Canvas: sheet.CanvasFromImage(img), Descriptor: &descriptor}, true
}

// storeSheet writes a composed sheet into the cache. Failures are logged
// and ignored; caching is best effort.
func (r *Runner) storeSheet(ctx context.Context, sheetKey, descriptorKey string, s *sheet.SpriteSheet) {
	var pngData bytes.Buffer
	if err := png.Encode(&pngData, s.Canvas); err != nil {
		return
	}
	descriptorData, err := json.Marshal(s.Descriptor)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, sheetKey, pngData.Bytes(), TTLSheet); err != nil {
		r.Logger.Debug("cache sheet", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "sheet", pngData.Len())
	if err := r.Cache.Set(ctx, descriptorKey, descriptorData, TTLDescriptor); err != nil {
		r.Logger.Debug("cache descriptor", "err", err)
		return
	}
	observability.Cache().OnCacheSet(ctx, "descriptor", len(descriptorData))
}

// emit writes every requested output.
func (r *Runner) emit(cfg *sheet.LayoutConfig, s *sheet.SpriteSheet, opts Options) error {
	emitter := sheet.NewEmitter(r.IO)
	if err := emitter.EmitSheet(s.Canvas, opts.Output); err != nil {
		return err
	}
	if err := emitter.EmitDescriptor(s.Descriptor, opts.DescriptorPath); err != nil {
		return err
	}
	if opts.PreviewPath != "" {
		if err := emitter.EmitPreview(cfg, s.Canvas, opts.PreviewPath); err != nil {
			return err
		}
	}
	return nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

// fileHash hashes a file's contents.
func fileHash(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// framesFingerprint digests the identity of every resolved frame file in
// declaration order: path, size, and modification time. An empty string
// disables caching for the run (frames without backing files).
func framesFingerprint(sets map[string]*sheet.FrameSet, cfg *sheet.LayoutConfig) string {
	var buf bytes.Buffer
	for _, anim := range cfg.Animations {
		set, ok := sets[anim.Name]
		if !ok {
			return ""
		}
		for _, frame := range set.Frames {
			if frame.Path == "" {
				return ""
			}
			info, err := os.Stat(frame.Path)
			if err != nil {
				return ""
			}
			fmt.Fprintf(&buf, "%s|%d|%d\n", frame.Path, info.Size(), info.ModTime().UnixNano())
		}
	}
	return cache.Hash(buf.Bytes())
}
