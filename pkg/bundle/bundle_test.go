package bundle

import (
	"image"
	"image/color"
	"path/filepath"
	"testing"

	"github.com/pixelmill/spritepack/pkg/errors"
	"github.com/pixelmill/spritepack/pkg/sheet"
)

func testSheet(t *testing.T) *sheet.SpriteSheet {
	t.Helper()
	canvas := image.NewNRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			canvas.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 8), G: uint8(y * 16), A: 255})
		}
	}
	// A soft-edge pixel must survive storage byte-for-byte.
	canvas.SetNRGBA(5, 5, color.NRGBA{R: 200, G: 100, B: 50, A: 10})
	return &sheet.SpriteSheet{
		Canvas: canvas,
		Descriptor: &sheet.Descriptor{
			Texture:     "hero.png",
			FrameWidth:  16,
			FrameHeight: 16,
			Cols:        2,
			Rows:        1,
			Animations: map[string]sheet.DescriptorAnimation{
				"idle": {Row: 0, Frames: 2},
			},
		},
	}
}

func openBundle(t *testing.T) *Bundle {
	t.Helper()
	b, err := Open(filepath.Join(t.TempDir(), "resources.dat"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { b.Close() })
	return b
}

func TestBundleRoundTrip(t *testing.T) {
	b := openBundle(t)
	want := testSheet(t)

	if err := b.Put("hero", want); err != nil {
		t.Fatalf("Put error: %v", err)
	}

	got, err := b.Get("hero")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if got.Canvas.Bounds() != want.Canvas.Bounds() {
		t.Errorf("canvas bounds = %v, want %v", got.Canvas.Bounds(), want.Canvas.Bounds())
	}
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			if got.Canvas.At(x, y) != want.Canvas.At(x, y) {
				t.Fatalf("pixel (%d,%d) differs after round trip", x, y)
			}
		}
	}
	if got.Descriptor.Texture != "hero.png" || got.Descriptor.Animations["idle"].Frames != 2 {
		t.Errorf("descriptor = %+v", got.Descriptor)
	}
}

func TestBundleList(t *testing.T) {
	b := openBundle(t)
	s := testSheet(t)
	for _, name := range []string{"zombie", "hero", "coin"} {
		if err := b.Put(name, s); err != nil {
			t.Fatal(err)
		}
	}

	names, err := b.List()
	if err != nil {
		t.Fatal(err)
	}
	// bbolt iterates keys in byte order.
	want := []string{"coin", "hero", "zombie"}
	if len(names) != len(want) {
		t.Fatalf("names = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %s, want %s", i, names[i], want[i])
		}
	}
}

func TestBundleDelete(t *testing.T) {
	b := openBundle(t)
	if err := b.Put("hero", testSheet(t)); err != nil {
		t.Fatal(err)
	}
	if err := b.Delete("hero"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	if _, err := b.Get("hero"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("Get after delete: code = %v, want NOT_FOUND", errors.GetCode(err))
	}

	// Deleting again is fine.
	if err := b.Delete("hero"); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestBundleGetMissing(t *testing.T) {
	b := openBundle(t)
	if _, err := b.Get("nope"); !errors.Is(err, errors.ErrCodeNotFound) {
		t.Errorf("code = %v, want NOT_FOUND", errors.GetCode(err))
	}
}

func TestBundlePutRejectsBadName(t *testing.T) {
	b := openBundle(t)
	if err := b.Put("../escape", testSheet(t)); err == nil {
		t.Error("Put should reject path-traversal names")
	}
}
