package guard

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/teslashibe/phoneguard/internal/config"
	"github.com/teslashibe/phoneguard/pkg/assets"
	"github.com/teslashibe/phoneguard/pkg/detection"
)

// Check is the result of one startup check.
type Check struct {
	Name   string
	Fatal  bool // A failure stops the program
	Err    error
	Detail string
}

// OK reports whether the check passed.
func (c Check) OK() bool { return c.Err == nil }

// Report collects startup checks.
type Report []Check

// Preflight verifies the files the detector needs before anything is
// opened. The camera is checked by the caller when it opens the device.
func Preflight(cfg *config.Config) Report {
	var r Report

	model := Check{Name: "model", Fatal: true, Detail: cfg.Detection.ModelPath}
	if info, err := os.Stat(cfg.Detection.ModelPath); err != nil || info.IsDir() {
		model.Err = fmt.Errorf("%w: %s (download yolo11n.onnx into models/)", detection.ErrModelNotFound, cfg.Detection.ModelPath)
	}
	r = append(r, model)

	images := Check{Name: "images", Detail: cfg.Alert.ImagesFolder}
	imgs, err := assets.NewLoader(cfg.Alert.ImagesFolder, 0, nil).Load()
	switch {
	case errors.Is(err, assets.ErrFolderNotFound):
		images.Err = err
	case len(imgs) == 0:
		images.Err = fmt.Errorf("no images in %s", cfg.Alert.ImagesFolder)
	default:
		images.Detail = fmt.Sprintf("%s (%d images)", cfg.Alert.ImagesFolder, len(imgs))
	}
	r = append(r, images)

	sound := Check{Name: "sound", Detail: cfg.Alert.AudioFile}
	if path, ok := assets.ResolveSound(cfg.Alert.AudioFile); !ok {
		sound.Err = fmt.Errorf("audio file missing: %s (beep fallback)", cfg.Alert.AudioFile)
	} else {
		sound.Detail = path
	}
	r = append(r, sound)

	return r
}

// Add appends a check result.
func (r *Report) Add(c Check) {
	*r = append(*r, c)
}

// Err joins the errors of the failed fatal checks. It is nil when every
// fatal check passed.
func (r Report) Err() error {
	var errs []error
	for _, c := range r {
		if c.Fatal && !c.OK() {
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, c.Err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPreflight, errors.Join(errs...))
}

// Warnings lists the failed non-fatal checks.
func (r Report) Warnings() []string {
	var out []string
	for _, c := range r {
		if !c.Fatal && !c.OK() {
			out = append(out, c.Err.Error())
		}
	}
	return out
}

// Log writes every check at the matching level.
func (r Report) Log(logger *slog.Logger) {
	for _, c := range r {
		switch {
		case c.OK():
			logger.Info("preflight ok", "check", c.Name, "detail", c.Detail)
		case c.Fatal:
			logger.Error("preflight failed", "check", c.Name, "error", c.Err)
		default:
			logger.Warn("preflight warning", "check", c.Name, "error", c.Err)
		}
	}
}
