package render

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"

	"github.com/teslashibe/phoneguard/pkg/detection"
)

// Status is what the monitoring overlay shows besides the boxes.
type Status struct {
	Count     int
	Threshold int
	QuitKey   string
	Warning   string // Shown at the bottom, e.g. after a failed alert
}

// Annotate draws target boxes and the status text onto img.
func Annotate(img draw.Image, dets []detection.ObjectDetection, st Status) {
	b := img.Bounds()
	for _, d := range dets {
		r := image.Rect(
			b.Min.X+int(d.X*float64(b.Dx())),
			b.Min.Y+int(d.Y*float64(b.Dy())),
			b.Min.X+int((d.X+d.W)*float64(b.Dx())),
			b.Min.Y+int((d.Y+d.H)*float64(b.Dy())),
		)
		drawBox(img, r, Green, 2)
		drawLabel(img, r.Min.X, r.Min.Y-4, fmt.Sprintf("%s %.0f%%", d.ClassName, d.Confidence*100), Green)
	}

	if st.QuitKey != "" {
		drawLabel(img, b.Min.X+10, b.Min.Y+30, fmt.Sprintf("Press '%s' to quit", st.QuitKey), Red)
	}
	if st.Count > 0 {
		drawLabel(img, b.Min.X+10, b.Min.Y+60, fmt.Sprintf("Detection: %d/%d", st.Count, st.Threshold), Yellow)
	}
	if st.Warning != "" {
		drawLabel(img, b.Min.X+10, b.Max.Y-10, st.Warning, Red)
	}
}

// AnnotateJPEG decodes a camera frame, annotates it and encodes it again.
func AnnotateJPEG(frame []byte, dets []detection.ObjectDetection, st Status, quality int) ([]byte, error) {
	src, err := jpeg.Decode(bytes.NewReader(frame))
	if err != nil {
		return nil, fmt.Errorf("render: decode frame: %w", err)
	}

	b := src.Bounds()
	rgba := image.NewRGBA(b)
	draw.Draw(rgba, b, src, b.Min, draw.Src)
	Annotate(rgba, dets, st)

	return EncodeJPEG(rgba, quality)
}

// EncodeJPEG encodes img at the given quality (1-100).
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("render: encode: %w", err)
	}
	return buf.Bytes(), nil
}
