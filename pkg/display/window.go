package display

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/phoneguard/internal/log"
	"github.com/teslashibe/phoneguard/pkg/focus"
)

// Config names the windows and sets the refresh rate.
type Config struct {
	PreviewName string
	AlertName   string
	FPS         int
	QuitKey     string
}

// Desktop owns the highgui windows. It must be used from the main
// goroutine.
type Desktop struct {
	cfg    Config
	keys   Keymap
	logger *slog.Logger

	preview *gocv.Window
	alert   *gocv.Window

	previewSeq uint64
	alertSeq   uint64
}

// NewDesktop opens the preview window.
func NewDesktop(cfg Config, logger *slog.Logger) *Desktop {
	if logger == nil {
		logger = log.L()
	}
	if cfg.FPS <= 0 {
		cfg.FPS = 60
	}
	return &Desktop{
		cfg:     cfg,
		keys:    NewKeymap(cfg.QuitKey),
		logger:  logger.With("component", "display"),
		preview: gocv.NewWindow(cfg.PreviewName),
	}
}

// Run refreshes the windows at the configured rate until ctx is done,
// dispatching user actions to src.
func (d *Desktop) Run(ctx context.Context, src Source) error {
	ticker := time.NewTicker(time.Second / time.Duration(d.cfg.FPS))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		action, err := d.Step(src.View())
		if err != nil {
			d.logger.Warn("display frame failed", "error", err)
		}
		if action != ActionNone {
			d.logger.Info("user action", "action", action)
			Dispatch(src, action)
			if action == ActionQuit {
				return nil
			}
		}
	}
}

// Step draws v and polls the keyboard once.
func (d *Desktop) Step(v View) (Action, error) {
	var drawErr error
	if v.Preview != nil && v.PreviewSeq != d.previewSeq {
		d.previewSeq = v.PreviewSeq
		drawErr = d.showPreview(v.Preview)
	}

	if v.Mode == focus.Alerting && v.Alert != nil {
		if d.alert == nil {
			d.alert = gocv.NewWindow(d.cfg.AlertName)
			d.alertSeq = 0
		}
		if v.AlertSeq != d.alertSeq {
			d.alertSeq = v.AlertSeq
			if err := d.showAlert(v); err != nil {
				drawErr = err
			}
		}
	} else if d.alert != nil {
		d.closeAlert()
	}

	key := d.preview.WaitKey(1)
	if a := d.keys.Action(v.Mode, key); a != ActionNone {
		return a, drawErr
	}
	return Closed(v.Mode, visible(d.preview), d.alert == nil || visible(d.alert)), drawErr
}

func (d *Desktop) showPreview(frame []byte) error {
	mat, err := gocv.IMDecode(frame, gocv.IMReadColor)
	if err != nil {
		return fmt.Errorf("display: decode preview: %w", err)
	}
	defer mat.Close()
	if mat.Empty() {
		return fmt.Errorf("display: empty preview frame")
	}
	d.preview.IMShow(mat)
	return nil
}

func (d *Desktop) showAlert(v View) error {
	mat, err := gocv.ImageToMatRGB(v.Alert)
	if err != nil {
		return fmt.Errorf("display: convert alert frame: %w", err)
	}
	defer mat.Close()
	d.alert.IMShow(mat)
	return nil
}

func (d *Desktop) closeAlert() {
	d.alert.Close()
	d.alert = nil
}

// Close destroys all windows.
func (d *Desktop) Close() error {
	if d.alert != nil {
		d.closeAlert()
	}
	d.preview.Close()
	return nil
}

func visible(w *gocv.Window) bool {
	return w.GetWindowProperty(gocv.WindowPropertyVisible) >= 1
}
