package sheet

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v2"

	"github.com/pixelmill/spritepack/pkg/errors"
)

// Animation is one named frame sequence occupying a single grid row.
type Animation struct {
	Name   string
	Row    int
	Frames int
}

// LayoutConfig is the validated, immutable layout description every
// pipeline stage operates on. Downstream stages never re-validate it.
type LayoutConfig struct {
	FrameWidth  int
	FrameHeight int
	Cols        int
	Rows        int
	Background  color.NRGBA

	// Animations in config declaration order. Placement and error
	// reporting iterate this slice, never a map, so output is
	// reproducible across platforms.
	Animations []Animation

	byName map[string]int
}

// SheetWidth returns the pixel width of the composed sheet.
func (c *LayoutConfig) SheetWidth() int { return c.Cols * c.FrameWidth }

// SheetHeight returns the pixel height of the composed sheet.
func (c *LayoutConfig) SheetHeight() int { return c.Rows * c.FrameHeight }

// Animation looks up an animation by name.
func (c *LayoutConfig) Animation(name string) (Animation, bool) {
	i, ok := c.byName[name]
	if !ok {
		return Animation{}, false
	}
	return c.Animations[i], true
}

// rawConfig is the untyped on-disk shape shared by all config formats.
// It only exists during load; everything downstream uses LayoutConfig.
type rawConfig struct {
	FrameWidth  int                     `toml:"frame_width" json:"frame_width"`
	FrameHeight int                     `toml:"frame_height" json:"frame_height"`
	Cols        int                     `toml:"cols" json:"cols"`
	Rows        int                     `toml:"rows" json:"rows"`
	Background  []int                   `toml:"background_color" json:"background_color"`
	Animations  map[string]rawAnimation `toml:"animations" json:"animations"`

	// Animation names in declaration order, recovered per format.
	order []string
}

type rawAnimation struct {
	Row    int `toml:"row" json:"row"`
	Frames int `toml:"frames" json:"frames"`
}

// LoadConfig reads and validates a layout configuration. The format is
// chosen by extension: .toml, .json, or .yml/.yaml.
func LoadConfig(path string) (*LayoutConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s not found", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	var raw rawConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		raw, err = parseTOML(data)
	case ".json":
		raw, err = parseJSON(data)
	case ".yml", ".yaml":
		raw, err = parseYAML(data)
	default:
		return nil, errors.New(errors.ErrCodeUnsupported, "unsupported config format %q", ext)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config %s", path)
	}

	cfg, err := buildConfig(raw)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

func parseTOML(data []byte) (rawConfig, error) {
	var raw rawConfig
	md, err := toml.Decode(string(data), &raw)
	if err != nil {
		return rawConfig{}, err
	}
	// MetaData.Keys preserves declaration order; animation entries show
	// up as two-element keys under the animations table.
	for _, key := range md.Keys() {
		if len(key) == 2 && key[0] == "animations" {
			raw.order = append(raw.order, key[1])
		}
	}
	return raw, nil
}

func parseJSON(data []byte) (rawConfig, error) {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return rawConfig{}, err
	}
	order, err := jsonAnimationOrder(data)
	if err != nil {
		return rawConfig{}, err
	}
	raw.order = order
	return raw, nil
}

// jsonAnimationOrder re-scans the document with a token decoder to recover
// the declaration order of the animations object, which encoding/json maps
// discard.
func jsonAnimationOrder(data []byte) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	// Expect the top-level object.
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		if key != "animations" {
			// Skip this key's value entirely.
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
			continue
		}

		if _, err := dec.Token(); err != nil { // opening brace
			return nil, err
		}
		var order []string
		for dec.More() {
			tok, err := dec.Token()
			if err != nil {
				return nil, err
			}
			name, ok := tok.(string)
			if !ok {
				return nil, fmt.Errorf("unexpected animations key %v", tok)
			}
			order = append(order, name)
			var skip json.RawMessage
			if err := dec.Decode(&skip); err != nil {
				return nil, err
			}
		}
		return order, nil
	}
	return nil, nil
}

func parseYAML(data []byte) (rawConfig, error) {
	var doc struct {
		FrameWidth  int           `yaml:"frame_width"`
		FrameHeight int           `yaml:"frame_height"`
		Cols        int           `yaml:"cols"`
		Rows        int           `yaml:"rows"`
		Background  []int         `yaml:"background_color"`
		Animations  yaml.MapSlice `yaml:"animations"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return rawConfig{}, err
	}

	raw := rawConfig{
		FrameWidth:  doc.FrameWidth,
		FrameHeight: doc.FrameHeight,
		Cols:        doc.Cols,
		Rows:        doc.Rows,
		Background:  doc.Background,
		Animations:  make(map[string]rawAnimation, len(doc.Animations)),
	}
	for _, item := range doc.Animations {
		name, ok := item.Key.(string)
		if !ok {
			return rawConfig{}, fmt.Errorf("animation key %v is not a string", item.Key)
		}
		fields, ok := item.Value.(yaml.MapSlice)
		if !ok {
			return rawConfig{}, fmt.Errorf("animation %q is not a mapping", name)
		}
		var anim rawAnimation
		for _, f := range fields {
			switch f.Key {
			case "row":
				anim.Row, ok = f.Value.(int)
			case "frames":
				anim.Frames, ok = f.Value.(int)
			default:
				continue
			}
			if !ok {
				return rawConfig{}, fmt.Errorf("animation %q: field %v is not an integer", name, f.Key)
			}
		}
		raw.Animations[name] = anim
		raw.order = append(raw.order, name)
	}
	return raw, nil
}

// buildConfig validates the raw document and constructs the immutable
// LayoutConfig. All grid invariants are enforced here, before any frame
// I/O happens; later stages rely on them without re-checking.
func buildConfig(raw rawConfig) (*LayoutConfig, error) {
	if raw.FrameWidth <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "frame_width must be a positive integer, got %d", raw.FrameWidth)
	}
	if raw.FrameHeight <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "frame_height must be a positive integer, got %d", raw.FrameHeight)
	}
	if raw.Cols <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "cols must be a positive integer, got %d", raw.Cols)
	}
	if raw.Rows <= 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "rows must be a positive integer, got %d", raw.Rows)
	}

	bg, err := parseBackground(raw.Background)
	if err != nil {
		return nil, err
	}

	cfg := &LayoutConfig{
		FrameWidth:  raw.FrameWidth,
		FrameHeight: raw.FrameHeight,
		Cols:        raw.Cols,
		Rows:        raw.Rows,
		Background:  bg,
		byName:      make(map[string]int, len(raw.order)),
	}

	rowOwner := make(map[int]string, len(raw.order))
	for _, name := range raw.order {
		anim, ok := raw.Animations[name]
		if !ok {
			return nil, errors.New(errors.ErrCodeInternal, "animation %q in order but not parsed", name)
		}
		if err := errors.ValidateAnimationName(name); err != nil {
			return nil, err
		}
		if _, dup := cfg.byName[name]; dup {
			return nil, errors.New(errors.ErrCodeInvalidConfig, "animation %q declared twice", name)
		}
		if anim.Row < 0 || anim.Row >= raw.Rows {
			return nil, errors.New(errors.ErrCodeInvalidConfig,
				"animation %q: row %d outside grid [0,%d)", name, anim.Row, raw.Rows)
		}
		if anim.Frames < 0 {
			return nil, errors.New(errors.ErrCodeInvalidConfig,
				"animation %q: frames must not be negative, got %d", name, anim.Frames)
		}
		if anim.Frames > raw.Cols {
			return nil, errors.New(errors.ErrCodeCapacityExceeded,
				"animation %q: %d frames exceed the %d columns of its row", name, anim.Frames, raw.Cols)
		}
		if owner, taken := rowOwner[anim.Row]; taken {
			return nil, errors.New(errors.ErrCodeInvalidConfig,
				"animations %q and %q both declare row %d", owner, name, anim.Row)
		}
		rowOwner[anim.Row] = name

		cfg.byName[name] = len(cfg.Animations)
		cfg.Animations = append(cfg.Animations, Animation{Name: name, Row: anim.Row, Frames: anim.Frames})
	}

	return cfg, nil
}

// parseBackground converts the 4-tuple channel list to a color. A missing
// list defaults to fully transparent.
func parseBackground(channels []int) (color.NRGBA, error) {
	if channels == nil {
		return color.NRGBA{}, nil
	}
	if len(channels) != 4 {
		return color.NRGBA{}, errors.New(errors.ErrCodeInvalidConfig,
			"background_color must have exactly 4 channels (RGBA), got %d", len(channels))
	}
	for i, v := range channels {
		if v < 0 || v > 255 {
			return color.NRGBA{}, errors.New(errors.ErrCodeInvalidConfig,
				"background_color channel %d out of range [0,255]: %d", i, v)
		}
	}
	return color.NRGBA{
		R: uint8(channels[0]),
		G: uint8(channels[1]),
		B: uint8(channels[2]),
		A: uint8(channels[3]),
	}, nil
}
