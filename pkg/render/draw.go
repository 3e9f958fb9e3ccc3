// Package render draws the monitoring overlay and the alert carousel as
// plain images. It has no window or OpenCV dependency; the display and the
// dashboard both consume its output.
package render

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// Palette used across frames.
var (
	Red        = color.RGBA{230, 40, 40, 255}
	Yellow     = color.RGBA{255, 220, 0, 255}
	Green      = color.RGBA{40, 200, 90, 255}
	White      = color.RGBA{255, 255, 255, 255}
	Background = color.RGBA{24, 24, 28, 255}
	LabelBG    = color.RGBA{0, 0, 0, 180}
)

var face = basicfont.Face7x13

// textWidth returns the advance of s in pixels.
func textWidth(s string) int {
	return font.MeasureString(face, s).Round()
}

// drawText draws s with its baseline-left at (x, y).
func drawText(img draw.Image, x, y int, s string, c color.Color) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.Point26_6{X: fixed.I(x), Y: fixed.I(y)},
	}
	d.DrawString(s)
}

// drawLabel draws text on a translucent background, clamped into the image.
func drawLabel(img draw.Image, x, y int, label string, c color.Color) {
	if y < 12 {
		y = 12
	}
	if x < 0 {
		x = 0
	}
	bg := image.Rect(x-2, y-11, x+textWidth(label)+2, y+3)
	draw.Draw(img, bg.Intersect(img.Bounds()), image.NewUniform(LabelBG), image.Point{}, draw.Over)
	drawText(img, x, y, label, c)
}

// drawBox outlines r with the given thickness, clipped to the image.
func drawBox(img draw.Image, r image.Rectangle, c color.Color, thickness int) {
	src := image.NewUniform(c)
	b := img.Bounds()
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(img, e.Intersect(b), src, image.Point{}, draw.Src)
	}
}

func fill(img draw.Image, r image.Rectangle, c color.Color) {
	draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(c), image.Point{}, draw.Src)
}

// centerText draws s horizontally centered in r, vertically centered too.
func centerText(img draw.Image, r image.Rectangle, s string, c color.Color) {
	x := r.Min.X + (r.Dx()-textWidth(s))/2
	y := r.Min.Y + (r.Dy()+face.Ascent-face.Descent)/2
	drawText(img, x, y, s, c)
}
