package assets

import (
	"errors"
	"image"
	"image/color"
	"image/color/palette"
	"image/gif"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/teslashibe/phoneguard/internal/log"
)

func writePNG(t *testing.T, path string, w, h int, c color.Color) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
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

func writeGIF(t *testing.T, path string, frames int) {
	t.Helper()
	g := &gif.GIF{}
	for i := 0; i < frames; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 8, 8), palette.Plan9)
		frame.SetColorIndex(i, i, uint8(10+i))
		g.Image = append(g.Image, frame)
		g.Delay = append(g.Delay, 10)
		g.Disposal = append(g.Disposal, gif.DisposalNone)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := gif.EncodeAll(f, g); err != nil {
		t.Fatal(err)
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "b.png"), 10, 10, color.White)
	writePNG(t, filepath.Join(dir, "a.png"), 20, 10, color.Black)
	writeGIF(t, filepath.Join(dir, "c.gif"), 3)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644)
	os.Mkdir(filepath.Join(dir, "sub.png"), 0o755)

	l := NewLoader(dir, 500, log.Discard())
	imgs, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(imgs) != 5 {
		t.Fatalf("images: got %d, want 5 (2 png + 3 gif frames)", len(imgs))
	}
	// Name order: a.png first.
	if imgs[0].Bounds().Dx() != 20 {
		t.Errorf("first image width: got %d, want 20 (a.png)", imgs[0].Bounds().Dx())
	}
	for i := 2; i < 5; i++ {
		if b := imgs[i].Bounds(); b.Dx() != 8 || b.Dy() != 8 {
			t.Errorf("gif frame %d: bounds %v", i-2, b)
		}
	}
}

func TestLoader_SkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "ok.png"), 4, 4, color.White)
	os.WriteFile(filepath.Join(dir, "broken.png"), []byte("not a png"), 0o644)

	imgs, err := NewLoader(dir, 0, log.Discard()).Load()
	if len(imgs) != 1 {
		t.Errorf("images: got %d, want 1", len(imgs))
	}
	var lerr *LoadError
	if !errors.As(err, &lerr) || filepath.Base(lerr.Path) != "broken.png" {
		t.Errorf("err: got %v, want LoadError for broken.png", err)
	}
}

func TestLoader_MissingFolder(t *testing.T) {
	l := NewLoader(filepath.Join(t.TempDir(), "horse of wisdom"), 500, log.Discard())

	if _, err := l.Load(); !errors.Is(err, ErrFolderNotFound) {
		t.Errorf("Load: got %v, want ErrFolderNotFound", err)
	}
	if imgs := l.Images(); len(imgs) != 0 {
		t.Errorf("Images: got %d, want none", len(imgs))
	}
}

func TestLoader_ReloadsOnEveryCall(t *testing.T) {
	dir := t.TempDir()
	l := NewLoader(dir, 0, log.Discard())
	if len(l.Images()) != 0 {
		t.Fatal("expected an empty folder")
	}
	writePNG(t, filepath.Join(dir, "new.png"), 4, 4, color.White)
	if len(l.Images()) != 1 {
		t.Error("new image not picked up")
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		name     string
		w, h     int
		maxWidth int
		wantW    int
		wantH    int
	}{
		{"fits", 400, 300, 500, 400, 300},
		{"exact", 500, 300, 500, 500, 300},
		{"too wide", 1000, 600, 500, 500, 300},
		{"disabled", 1000, 600, 0, 1000, 600},
		{"very flat", 1000, 1, 500, 500, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			img := image.NewRGBA(image.Rect(0, 0, tc.w, tc.h))
			b := Scale(img, tc.maxWidth).Bounds()
			if b.Dx() != tc.wantW || b.Dy() != tc.wantH {
				t.Errorf("Scale: got %dx%d, want %dx%d", b.Dx(), b.Dy(), tc.wantW, tc.wantH)
			}
		})
	}
}

func TestFrames_DisposalBackground(t *testing.T) {
	g := &gif.GIF{Config: image.Config{Width: 4, Height: 4}}
	for i := 0; i < 2; i++ {
		frame := image.NewPaletted(image.Rect(0, 0, 4, 4), palette.Plan9)
		frame.SetColorIndex(i, 0, 100)
		g.Image = append(g.Image, frame)
	}
	g.Disposal = []byte{gif.DisposalBackground, gif.DisposalNone}

	frames := Frames(g)
	if len(frames) != 2 {
		t.Fatalf("frames: got %d, want 2", len(frames))
	}
	if frames[0].Bounds() != frames[1].Bounds() {
		t.Error("all frames share the canvas size")
	}
}

func TestResolveSound(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "alert.mp3")
	os.WriteFile(path, []byte("ID3"), 0o644)

	if got, ok := ResolveSound(path); !ok || got != path {
		t.Errorf("existing: got %q/%v", got, ok)
	}
	if _, ok := ResolveSound(filepath.Join(dir, "missing.mp3")); ok {
		t.Error("missing file reported as found")
	}
	if _, ok := ResolveSound(""); ok {
		t.Error("empty path reported as found")
	}
}

func TestSupported(t *testing.T) {
	for name, want := range map[string]bool{
		"a.png": true, "b.GIF": true, "c.jpeg": true, "d.JPG": true,
		"e.bmp": false, "f": false, "g.png.txt": false,
	} {
		if got := Supported(name); got != want {
			t.Errorf("Supported(%q): got %v, want %v", name, got, want)
		}
	}
}
