// Package guard runs the detector: it captures frames, turns detections into
// samples for the focus controller, and drives the alert sound, the windows
// and the dashboard from the controller's events.
package guard

import (
	"time"

	"github.com/teslashibe/phoneguard/internal/config"
	"github.com/teslashibe/phoneguard/pkg/detection"
	"github.com/teslashibe/phoneguard/pkg/focus"
	"github.com/teslashibe/phoneguard/pkg/render"
)

// Config holds the runtime settings of an App.
type Config struct {
	Focus  focus.Config
	Target detection.Target
	Alert  render.AlertOptions

	QuitKey           string
	TickInterval      time.Duration // Controller clock and alert redraw
	DetectionInterval time.Duration // Minimum spacing between detector runs; 0 runs at camera rate
	WebFrameInterval  time.Duration // Minimum spacing between alert frames sent to the dashboard
	JPEGQuality       int
	ImagesFolder      string // Named in the warning shown when no images load
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		Focus:            focus.DefaultConfig(),
		Target:           detection.DefaultTarget(),
		Alert:            render.DefaultAlertOptions(),
		QuitKey:          "q",
		TickInterval:     time.Second / 60,
		WebFrameInterval: 100 * time.Millisecond,
		JPEGQuality:      80,
	}
}

// FromConfig derives the runtime settings from the application config.
func FromConfig(c *config.Config) Config {
	cfg := DefaultConfig()
	cfg.Focus = c.Focus()
	cfg.Target = c.Target()
	cfg.QuitKey = c.UI.QuitKey
	cfg.TickInterval = c.FrameInterval()
	cfg.DetectionInterval = c.DetectionInterval()
	cfg.JPEGQuality = c.Camera.Quality
	cfg.ImagesFolder = c.Alert.ImagesFolder
	cfg.Alert.ContinueText = "[W] " + c.UI.ContinueButtonText
	cfg.Alert.QuitText = "[D] " + c.UI.QuitButtonText
	cfg.Alert.Title = c.UI.AlertWindowName
	return cfg
}
