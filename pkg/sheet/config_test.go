package sheet

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pixelmill/spritepack/pkg/errors"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

const validTOML = `
frame_width = 64
frame_height = 96
cols = 8
rows = 2
background_color = [0, 0, 0, 0]

[animations.idle_down]
row = 0
frames = 8

[animations.walk_left]
row = 1
frames = 4
`

func TestLoadConfigTOML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "sheet.toml", validTOML))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.FrameWidth != 64 || cfg.FrameHeight != 96 {
		t.Errorf("frame size = %dx%d, want 64x96", cfg.FrameWidth, cfg.FrameHeight)
	}
	if cfg.Cols != 8 || cfg.Rows != 2 {
		t.Errorf("grid = %dx%d, want 8x2", cfg.Cols, cfg.Rows)
	}
	if cfg.SheetWidth() != 512 || cfg.SheetHeight() != 192 {
		t.Errorf("sheet size = %dx%d, want 512x192", cfg.SheetWidth(), cfg.SheetHeight())
	}
	if cfg.Background.A != 0 {
		t.Errorf("background alpha = %d, want 0", cfg.Background.A)
	}

	want := []Animation{
		{Name: "idle_down", Row: 0, Frames: 8},
		{Name: "walk_left", Row: 1, Frames: 4},
	}
	if len(cfg.Animations) != len(want) {
		t.Fatalf("animations = %d, want %d", len(cfg.Animations), len(want))
	}
	for i, anim := range want {
		if cfg.Animations[i] != anim {
			t.Errorf("animation %d = %+v, want %+v", i, cfg.Animations[i], anim)
		}
	}

	if _, ok := cfg.Animation("walk_left"); !ok {
		t.Error("Animation(walk_left) not found")
	}
	if _, ok := cfg.Animation("missing"); ok {
		t.Error("Animation(missing) should not be found")
	}
}

func TestLoadConfigJSONPreservesOrder(t *testing.T) {
	// Keys deliberately out of row order: declaration order must win.
	cfg, err := LoadConfig(writeConfig(t, "sheet.json", `{
		"frame_width": 16,
		"frame_height": 16,
		"cols": 4,
		"rows": 3,
		"background_color": [10, 20, 30, 255],
		"animations": {
			"walk": {"row": 2, "frames": 4},
			"attack": {"row": 0, "frames": 2},
			"idle": {"row": 1, "frames": 3}
		}
	}`))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	wantOrder := []string{"walk", "attack", "idle"}
	for i, name := range wantOrder {
		if cfg.Animations[i].Name != name {
			t.Errorf("animation %d = %q, want %q", i, cfg.Animations[i].Name, name)
		}
	}
	if cfg.Background.R != 10 || cfg.Background.G != 20 || cfg.Background.B != 30 || cfg.Background.A != 255 {
		t.Errorf("background = %+v, want 10/20/30/255", cfg.Background)
	}
}

func TestLoadConfigYAML(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "sheet.yml", `
frame_width: 32
frame_height: 32
cols: 6
rows: 2
background_color: [0, 0, 0, 0]
animations:
  run_left:
    row: 1
    frames: 6
  run_right:
    row: 0
    frames: 5
`))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Animations[0].Name != "run_left" || cfg.Animations[1].Name != "run_right" {
		t.Errorf("declaration order not preserved: %+v", cfg.Animations)
	}
	if cfg.Animations[0].Frames != 6 {
		t.Errorf("run_left frames = %d, want 6", cfg.Animations[0].Frames)
	}
}

func TestLoadConfigMissingBackgroundDefaultsTransparent(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "sheet.toml", `
frame_width = 8
frame_height = 8
cols = 2
rows = 1

[animations.idle]
row = 0
frames = 2
`))
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Background.R != 0 || cfg.Background.A != 0 {
		t.Errorf("background = %+v, want transparent", cfg.Background)
	}
}

func TestLoadConfigRejects(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantCode errors.Code
	}{
		{
			name: "duplicate row",
			content: `
frame_width = 8
frame_height = 8
cols = 4
rows = 2

[animations.idle]
row = 0
frames = 2

[animations.walk]
row = 0
frames = 2
`,
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name: "frames exceed cols",
			content: `
frame_width = 8
frame_height = 8
cols = 4
rows = 1

[animations.idle]
row = 0
frames = 5
`,
			wantCode: errors.ErrCodeCapacityExceeded,
		},
		{
			name: "row outside grid",
			content: `
frame_width = 8
frame_height = 8
cols = 4
rows = 2

[animations.idle]
row = 2
frames = 1
`,
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name: "zero cols",
			content: `
frame_width = 8
frame_height = 8
cols = 0
rows = 1

[animations.idle]
row = 0
frames = 0
`,
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name: "negative frame width",
			content: `
frame_width = -8
frame_height = 8
cols = 4
rows = 1

[animations.idle]
row = 0
frames = 1
`,
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name: "background wrong arity",
			content: `
frame_width = 8
frame_height = 8
cols = 4
rows = 1
background_color = [0, 0, 0]

[animations.idle]
row = 0
frames = 1
`,
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name: "background channel out of range",
			content: `
frame_width = 8
frame_height = 8
cols = 4
rows = 1
background_color = [0, 0, 0, 300]

[animations.idle]
row = 0
frames = 1
`,
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name: "negative frames",
			content: `
frame_width = 8
frame_height = 8
cols = 4
rows = 1

[animations.idle]
row = 0
frames = -1
`,
			wantCode: errors.ErrCodeInvalidConfig,
		},
		{
			name: "malformed document",
			content: `frame_width = [not toml`,
			wantCode: errors.ErrCodeInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, "sheet.toml", tt.content))
			if err == nil {
				t.Fatal("LoadConfig should fail")
			}
			if !errors.Is(err, tt.wantCode) {
				t.Errorf("error code = %v, want %v (err: %v)", errors.GetCode(err), tt.wantCode, err)
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err == nil {
		t.Fatal("LoadConfig should fail")
	}
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error code = %v, want FILE_NOT_FOUND", errors.GetCode(err))
	}
}

func TestLoadConfigUnsupportedExtension(t *testing.T) {
	_, err := LoadConfig(writeConfig(t, "sheet.ini", "frame_width=8"))
	if err == nil {
		t.Fatal("LoadConfig should fail")
	}
	if !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("error code = %v, want UNSUPPORTED", errors.GetCode(err))
	}
}
