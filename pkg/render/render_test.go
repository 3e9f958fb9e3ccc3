package render

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"testing"
	"time"

	"github.com/teslashibe/phoneguard/pkg/detection"
	"github.com/teslashibe/phoneguard/pkg/focus"
)

func solid(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
	return img
}

func newSession(t *testing.T) *focus.Session {
	t.Helper()
	s, err := focus.NewSession([]image.Image{
		solid(100, 80, color.RGBA{255, 0, 0, 255}),
		solid(60, 120, color.RGBA{0, 0, 255, 255}),
	}, 2*time.Second, 800*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestLayout_FitsLargestImage(t *testing.T) {
	s := newSession(t)
	l := Layout(s, DefaultAlertOptions())

	if l.Picture.Dx() != 100 || l.Picture.Dy() != 120 {
		t.Errorf("picture area: got %v, want 100x120", l.Picture)
	}
	for name, r := range map[string]image.Rectangle{"picture": l.Picture, "continue": l.Continue, "quit": l.Quit} {
		if !r.In(l.Size) {
			t.Errorf("%s %v outside frame %v", name, r, l.Size)
		}
	}
	if l.Continue.Overlaps(l.Quit) {
		t.Error("buttons overlap")
	}
}

func TestAlert_Steady(t *testing.T) {
	s := newSession(t)
	opts := DefaultAlertOptions()
	img := Alert(s, opts)
	l := Layout(s, opts)

	if img.Bounds() != l.Size {
		t.Fatalf("bounds: got %v, want %v", img.Bounds(), l.Size)
	}
	// Center of the picture area shows the first (red) image.
	c := img.RGBAAt((l.Picture.Min.X+l.Picture.Max.X)/2, (l.Picture.Min.Y+l.Picture.Max.Y)/2)
	if c.R != 255 || c.B != 0 {
		t.Errorf("center pixel: got %v, want red", c)
	}
}

func TestAlert_TransitionIsDeterministic(t *testing.T) {
	a, b := newSession(t), newSession(t)
	for _, s := range []*focus.Session{a, b} {
		s.Tick(2 * time.Second)
		s.Tick(300 * time.Millisecond)
	}

	ia, ib := Alert(a, DefaultAlertOptions()), Alert(b, DefaultAlertOptions())
	if !bytes.Equal(ia.Pix, ib.Pix) {
		t.Error("same session state rendered differently")
	}
}

func TestAlert_TransitionShowsBothImages(t *testing.T) {
	s := newSession(t)
	s.Tick(2 * time.Second)
	s.Tick(400 * time.Millisecond) // halfway

	opts := DefaultAlertOptions()
	img := Alert(s, opts)
	l := Layout(s, opts)
	y := (l.Picture.Min.Y + l.Picture.Max.Y) / 2

	left := img.RGBAAt(l.Picture.Min.X+5, y)
	right := img.RGBAAt(l.Picture.Max.X-5, y)
	if left.R == 0 || left.B != 0 {
		t.Errorf("left half: got %v, want the outgoing red image", left)
	}
	if right.B == 0 || right.R != 0 {
		t.Errorf("right half: got %v, want the incoming blue image", right)
	}
}

func TestAnnotateJPEG(t *testing.T) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(320, 240, color.Gray{128}), nil); err != nil {
		t.Fatal(err)
	}

	dets := []detection.ObjectDetection{{
		Detection: detection.Detection{X: 0.25, Y: 0.25, W: 0.5, H: 0.5, Confidence: 0.87},
		ClassID:   detection.CellPhone,
		ClassName: "cell phone",
	}}
	out, err := AnnotateJPEG(buf.Bytes(), dets, Status{Count: 4, Threshold: 30, QuitKey: "q"}, 85)
	if err != nil {
		t.Fatalf("AnnotateJPEG: %v", err)
	}

	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if img.Bounds().Dx() != 320 || img.Bounds().Dy() != 240 {
		t.Errorf("size changed: %v", img.Bounds())
	}
	// The box edge at (80, 120) is green.
	r, g, b, _ := img.At(80, 120).RGBA()
	if g>>8 < r>>8+30 || g>>8 < b>>8+30 {
		t.Errorf("box edge pixel: got %d,%d,%d", r>>8, g>>8, b>>8)
	}
}

func TestAnnotateJPEG_BadInput(t *testing.T) {
	if _, err := AnnotateJPEG([]byte("nope"), nil, Status{}, 80); err == nil {
		t.Error("expected a decode error")
	}
}
