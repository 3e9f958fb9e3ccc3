// Package assets loads the alert images and locates the alert sound.
package assets

import (
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	xdraw "golang.org/x/image/draw"

	"github.com/teslashibe/phoneguard/internal/log"
)

// Loader reads the alert image set from a folder. It satisfies
// focus.ImageSource and reads the folder again on every call, so images
// added while the program runs are picked up by the next alert.
type Loader struct {
	Folder   string
	MaxWidth int // Wider images are scaled down; 0 disables scaling

	logger *slog.Logger
}

// NewLoader creates a loader. A nil logger uses the global one.
func NewLoader(folder string, maxWidth int, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = log.L()
	}
	return &Loader{
		Folder:   folder,
		MaxWidth: maxWidth,
		logger:   logger.With("component", "assets"),
	}
}

// Images returns the current image set, logging problems instead of
// returning them. An empty result makes the controller report NoImages.
func (l *Loader) Images() []image.Image {
	imgs, err := l.Load()
	if err != nil {
		l.logger.Warn("alert images unavailable", "folder", l.Folder, "error", err)
	}
	return imgs
}

// Load decodes every supported file in name order. Animated GIFs contribute
// one image per frame. Files that fail to decode are skipped and reported
// in the joined error alongside whatever loaded successfully.
func (l *Loader) Load() ([]image.Image, error) {
	entries, err := os.ReadDir(l.Folder)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrFolderNotFound, l.Folder)
		}
		return nil, fmt.Errorf("assets: read %s: %w", l.Folder, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !Supported(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var (
		images []image.Image
		errs   []error
	)
	for _, name := range names {
		path := filepath.Join(l.Folder, name)
		frames, err := decodeFile(path)
		if err != nil {
			errs = append(errs, &LoadError{Path: path, Err: err})
			continue
		}
		for _, f := range frames {
			images = append(images, Scale(f, l.MaxWidth))
		}
	}

	l.logger.Debug("alert images loaded", "files", len(names), "images", len(images))
	return images, errors.Join(errs...)
}

// Supported reports whether name has an image extension the loader reads.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png", ".gif", ".jpg", ".jpeg":
		return true
	}
	return false
}

func decodeFile(path string) ([]image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".gif":
		g, err := gif.DecodeAll(f)
		if err != nil {
			return nil, err
		}
		return Frames(g), nil
	case ".png":
		img, err := png.Decode(f)
		if err != nil {
			return nil, err
		}
		return []image.Image{img}, nil
	case ".jpg", ".jpeg":
		img, err := jpeg.Decode(f)
		if err != nil {
			return nil, err
		}
		return []image.Image{img}, nil
	}
	return nil, ErrUnsupported
}

// Frames renders every frame of an animated GIF onto a full canvas,
// honouring each frame's disposal method.
func Frames(g *gif.GIF) []image.Image {
	if len(g.Image) == 0 {
		return nil
	}

	bounds := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if bounds.Empty() {
		bounds = g.Image[0].Bounds()
	}
	canvas := image.NewRGBA(bounds)
	out := make([]image.Image, 0, len(g.Image))

	for i, frame := range g.Image {
		var saved *image.RGBA
		disposal := byte(0)
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		if disposal == gif.DisposalPrevious {
			saved = image.NewRGBA(bounds)
			draw.Draw(saved, bounds, canvas, bounds.Min, draw.Src)
		}

		draw.Draw(canvas, frame.Bounds(), frame, frame.Bounds().Min, draw.Over)

		snapshot := image.NewRGBA(bounds)
		draw.Draw(snapshot, bounds, canvas, bounds.Min, draw.Src)
		out = append(out, snapshot)

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, frame.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			canvas = saved
		}
	}
	return out
}

// Scale shrinks img to maxWidth preserving the aspect ratio. Images that
// already fit, and maxWidth <= 0, return img unchanged.
func Scale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := b.Dy() * maxWidth / b.Dx()
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)
	return dst
}
