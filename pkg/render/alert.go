package render

import (
	"image"
	"image/color"
	"image/draw"

	xdraw "golang.org/x/image/draw"

	"github.com/teslashibe/phoneguard/pkg/focus"
)

// AlertOptions configures the alert frame.
type AlertOptions struct {
	Title        string
	ContinueText string // Dismiss button
	QuitText     string // Quit button
	Warning      string // E.g. "Audio file missing!"
	Margin       int
}

// DefaultAlertOptions mirrors the stock button texts.
func DefaultAlertOptions() AlertOptions {
	return AlertOptions{
		Title:        "Put the phone down!",
		ContinueText: "[W] I'm working!",
		QuitText:     "[D] Done for the day",
		Margin:       20,
	}
}

const (
	titleHeight  = 30
	buttonHeight = 36
	buttonWidth  = 180
	footerHeight = 20
)

// AlertLayout gives the geometry of an alert frame.
type AlertLayout struct {
	Size     image.Rectangle
	Picture  image.Rectangle // Carousel area
	Continue image.Rectangle // Dismiss button
	Quit     image.Rectangle // Quit button
}

// Layout computes the frame geometry for a session. The picture area fits
// the largest image so the frame does not jump between images.
func Layout(s *focus.Session, opts AlertOptions) AlertLayout {
	var pw, ph int
	for i := 0; i < s.Len(); i++ {
		b := s.ImageAt(i).Bounds()
		pw = max(pw, b.Dx())
		ph = max(ph, b.Dy())
	}
	m := opts.Margin
	w := max(pw+2*m, 2*buttonWidth+3*m)
	h := titleHeight + m + ph + m + buttonHeight + m + footerHeight

	picture := image.Rect((w-pw)/2, titleHeight+m, (w-pw)/2+pw, titleHeight+m+ph)
	by := picture.Max.Y + m
	gap := (w - 2*buttonWidth) / 3
	return AlertLayout{
		Size:     image.Rect(0, 0, w, h),
		Picture:  picture,
		Continue: image.Rect(gap, by, gap+buttonWidth, by+buttonHeight),
		Quit:     image.Rect(2*gap+buttonWidth, by, 2*gap+2*buttonWidth, by+buttonHeight),
	}
}

// Alert renders the session's current carousel state. While transitioning
// the outgoing image folds away to the left as the incoming one unfolds
// from the right, like the faces of a turning cube seen edge-on. The
// result depends only on the session state.
func Alert(s *focus.Session, opts AlertOptions) *image.RGBA {
	l := Layout(s, opts)
	img := image.NewRGBA(l.Size)
	fill(img, l.Size, Background)

	centerText(img, image.Rect(0, 0, l.Size.Dx(), titleHeight+opts.Margin/2), opts.Title, Yellow)

	state, p := s.Transition()
	if state == focus.Transitioning && s.Previous() != s.Index() {
		split := l.Picture.Min.X + int(float64(l.Picture.Dx())*(1-p))
		out := image.Rect(l.Picture.Min.X, l.Picture.Min.Y, split, l.Picture.Max.Y)
		in := image.Rect(split, l.Picture.Min.Y, l.Picture.Max.X, l.Picture.Max.Y)
		placeScaled(img, out, s.ImageAt(s.Previous()), shade(p))
		placeScaled(img, in, s.Image(), shade(1-p))
	} else {
		placeCentered(img, l.Picture, s.Image())
	}

	button(img, l.Continue, opts.ContinueText, Green)
	button(img, l.Quit, opts.QuitText, Red)

	if opts.Warning != "" {
		centerText(img, image.Rect(0, l.Size.Max.Y-footerHeight, l.Size.Dx(), l.Size.Max.Y), opts.Warning, Red)
	}
	return img
}

func button(img draw.Image, r image.Rectangle, label string, c color.RGBA) {
	fill(img, r, c)
	drawBox(img, r, White, 1)
	centerText(img, r, label, White)
}

// placeCentered draws src unscaled, centered within r.
func placeCentered(dst draw.Image, r image.Rectangle, src image.Image) {
	b := src.Bounds()
	off := image.Pt(r.Min.X+(r.Dx()-b.Dx())/2, r.Min.Y+(r.Dy()-b.Dy())/2)
	draw.Draw(dst, b.Sub(b.Min).Add(off).Intersect(r), src, b.Min, draw.Over)
}

// placeScaled squeezes src into r horizontally, keeping its height, and
// darkens it by the given alpha.
func placeScaled(dst draw.Image, r image.Rectangle, src image.Image, darken uint8) {
	if r.Dx() <= 0 {
		return
	}
	b := src.Bounds()
	h := min(b.Dy(), r.Dy())
	target := image.Rect(r.Min.X, r.Min.Y+(r.Dy()-h)/2, r.Max.X, r.Min.Y+(r.Dy()-h)/2+h)
	xdraw.ApproxBiLinear.Scale(dst, target, src, b, xdraw.Over, nil)
	if darken > 0 {
		draw.Draw(dst, target, image.NewUniform(color.RGBA{0, 0, 0, darken}), image.Point{}, draw.Over)
	}
}

// shade maps how far a face has turned away (0-1) to an overlay alpha.
func shade(turned float64) uint8 {
	return uint8(turned * 160)
}
