package sheet

import (
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pixelmill/spritepack/pkg/errors"
	"github.com/pixelmill/spritepack/pkg/raster"
)

// writeFrame writes a solid-colored PNG of the given size.
func writeFrame(t *testing.T, path string, w, h int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func testConfig(t *testing.T, toml string) *LayoutConfig {
	t.Helper()
	cfg, err := LoadConfig(writeConfig(t, "sheet.toml", toml))
	if err != nil {
		t.Fatal(err)
	}
	return cfg
}

const twoAnimTOML = `
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

func populate(t *testing.T, inputDir string, animation string, frames int, w, h int) {
	t.Helper()
	for i := 1; i <= frames; i++ {
		writeFrame(t, filepath.Join(inputDir, animation, frameName(i)), w, h,
			color.NRGBA{R: uint8(i * 10), A: 255})
	}
}

// frameName renders ordinals as zero-padded stems ("001.png"), matching
// the usual export convention; the resolver accepts any integer stem.
func frameName(i int) string {
	return fmt.Sprintf("%03d.png", i)
}

func TestResolveHappyPath(t *testing.T) {
	cfg := testConfig(t, twoAnimTOML)
	inputDir := t.TempDir()
	populate(t, inputDir, "idle_down", 8, 64, 96)
	populate(t, inputDir, "walk_left", 4, 64, 96)

	sets, err := NewResolver(raster.New()).Resolve(context.Background(), inputDir, cfg)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	if len(sets) != 2 {
		t.Fatalf("frame sets = %d, want 2", len(sets))
	}
	if got := len(sets["idle_down"].Frames); got != 8 {
		t.Errorf("idle_down frames = %d, want 8", got)
	}
	if got := len(sets["walk_left"].Frames); got != 4 {
		t.Errorf("walk_left frames = %d, want 4", got)
	}
}

func TestResolveNumericOrdering(t *testing.T) {
	cfg := testConfig(t, `
frame_width = 4
frame_height = 4
cols = 12
rows = 1

[animations.walk]
row = 0
frames = 3
`)
	inputDir := t.TempDir()
	// Lexicographic order would put 10 before 2.
	for _, stem := range []string{"1", "2", "10"} {
		writeFrame(t, filepath.Join(inputDir, "walk", stem+".png"), 4, 4, color.NRGBA{A: 255})
	}

	sets, err := NewResolver(raster.New()).Resolve(context.Background(), inputDir, cfg)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}

	frames := sets["walk"].Frames
	wantOrder := []string{"1.png", "2.png", "10.png"}
	for i, want := range wantOrder {
		if got := filepath.Base(frames[i].Path); got != want {
			t.Errorf("frame %d = %s, want %s", i, got, want)
		}
	}
}

func TestResolveIgnoresNonConventionFiles(t *testing.T) {
	cfg := testConfig(t, `
frame_width = 4
frame_height = 4
cols = 4
rows = 1

[animations.walk]
row = 0
frames = 2
`)
	inputDir := t.TempDir()
	populate(t, inputDir, "walk", 2, 4, 4)
	// Extras outside the naming convention must not contribute to the count.
	writeFrame(t, filepath.Join(inputDir, "walk", "thumbnail.png"), 4, 4, color.NRGBA{})
	writeFrame(t, filepath.Join(inputDir, "walk", "2x.png"), 4, 4, color.NRGBA{})
	if err := os.WriteFile(filepath.Join(inputDir, "walk", "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(inputDir, "walk", "3"), 0o755); err != nil {
		t.Fatal(err)
	}

	sets, err := NewResolver(raster.New()).Resolve(context.Background(), inputDir, cfg)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got := len(sets["walk"].Frames); got != 2 {
		t.Errorf("frames = %d, want 2", got)
	}
}

func TestResolveFrameCountMismatch(t *testing.T) {
	cfg := testConfig(t, twoAnimTOML)
	inputDir := t.TempDir()
	populate(t, inputDir, "idle_down", 8, 64, 96)
	populate(t, inputDir, "walk_left", 3, 64, 96) // declared 4

	_, err := NewResolver(raster.New()).Resolve(context.Background(), inputDir, cfg)
	if err == nil {
		t.Fatal("Resolve should fail")
	}

	var countErr *FrameCountError
	if !stderrors.As(err, &countErr) {
		t.Fatalf("error %v is not a FrameCountError", err)
	}
	if countErr.Animation != "walk_left" || countErr.Expected != 4 || countErr.Found != 3 {
		t.Errorf("FrameCountError = %+v, want walk_left expected=4 found=3", countErr)
	}
	if !errors.Is(err, errors.ErrCodeFrameCountMismatch) {
		t.Errorf("error code = %v, want FRAME_COUNT_MISMATCH", errors.GetCode(err))
	}
}

func TestResolveFrameDimensionMismatch(t *testing.T) {
	cfg := testConfig(t, twoAnimTOML)
	inputDir := t.TempDir()
	populate(t, inputDir, "idle_down", 8, 64, 96)
	populate(t, inputDir, "walk_left", 3, 64, 96)
	// Fourth frame has the wrong height.
	writeFrame(t, filepath.Join(inputDir, "walk_left", "004.png"), 64, 90, color.NRGBA{A: 255})

	_, err := NewResolver(raster.New()).Resolve(context.Background(), inputDir, cfg)
	if err == nil {
		t.Fatal("Resolve should fail")
	}

	var dimErr *FrameDimensionError
	if !stderrors.As(err, &dimErr) {
		t.Fatalf("error %v is not a FrameDimensionError", err)
	}
	if !strings.HasSuffix(dimErr.Path, "004.png") {
		t.Errorf("offending path = %s, want .../004.png", dimErr.Path)
	}
	if dimErr.GotW != 64 || dimErr.GotH != 90 || dimErr.WantW != 64 || dimErr.WantH != 96 {
		t.Errorf("FrameDimensionError = %+v", dimErr)
	}
}

func TestResolveCollectsAllIssuesInDeclarationOrder(t *testing.T) {
	cfg := testConfig(t, twoAnimTOML)
	inputDir := t.TempDir()
	// idle_down missing entirely; walk_left short one frame. Both must be
	// reported in one pass, idle_down first.
	populate(t, inputDir, "walk_left", 3, 64, 96)

	_, err := NewResolver(raster.New()).Resolve(context.Background(), inputDir, cfg)
	if err == nil {
		t.Fatal("Resolve should fail")
	}

	var resolveErr *ResolveError
	if !stderrors.As(err, &resolveErr) {
		t.Fatalf("error %v is not a ResolveError", err)
	}
	if len(resolveErr.Issues) != 2 {
		t.Fatalf("issues = %d, want 2: %v", len(resolveErr.Issues), resolveErr)
	}

	var missingErr *MissingAnimationDirError
	if !stderrors.As(resolveErr.Issues[0], &missingErr) || missingErr.Animation != "idle_down" {
		t.Errorf("issue 0 = %v, want MissingAnimationDirError for idle_down", resolveErr.Issues[0])
	}
	var countErr *FrameCountError
	if !stderrors.As(resolveErr.Issues[1], &countErr) || countErr.Animation != "walk_left" {
		t.Errorf("issue 1 = %v, want FrameCountError for walk_left", resolveErr.Issues[1])
	}
}

func TestResolveZeroFrameAnimation(t *testing.T) {
	cfg := testConfig(t, `
frame_width = 4
frame_height = 4
cols = 4
rows = 1

[animations.empty]
row = 0
frames = 0
`)
	inputDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(inputDir, "empty"), 0o755); err != nil {
		t.Fatal(err)
	}

	sets, err := NewResolver(raster.New()).Resolve(context.Background(), inputDir, cfg)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if got := len(sets["empty"].Frames); got != 0 {
		t.Errorf("frames = %d, want 0", got)
	}
}

func TestResolveMissingInputDir(t *testing.T) {
	cfg := testConfig(t, twoAnimTOML)
	_, err := NewResolver(raster.New()).Resolve(context.Background(), filepath.Join(t.TempDir(), "nope"), cfg)
	if err == nil {
		t.Fatal("Resolve should fail")
	}
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("error code = %v, want FILE_NOT_FOUND", errors.GetCode(err))
	}
}
