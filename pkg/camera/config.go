// Package camera provides runtime-configurable webcam settings and capture.
package camera

import "fmt"

// Config holds all camera configuration parameters.
// These can be modified via the dashboard at runtime.
type Config struct {
	Device    int  `json:"device" yaml:"device"`       // OpenCV device index
	Width     int  `json:"width" yaml:"width"`         // Frame width in pixels
	Height    int  `json:"height" yaml:"height"`       // Frame height in pixels
	Framerate int  `json:"framerate" yaml:"framerate"` // Requested FPS
	Quality   int  `json:"quality" yaml:"quality"`     // JPEG quality 1-100
	Mirror    bool `json:"mirror" yaml:"mirror"`       // Flip horizontally, like a mirror
}

// Limits accepted by Validate.
const (
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 120
)

// DefaultConfig returns VGA at 30 FPS, which keeps YOLO inference real-time
// on a laptop CPU.
func DefaultConfig() Config {
	return Config{
		Device:    0,
		Width:     640,
		Height:    480,
		Framerate: 30,
		Quality:   80,
		Mirror:    true,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.Device < 0 {
		errors = append(errors, "device must not be negative")
	}
	if c.Width < 160 || c.Width > MaxWidth {
		errors = append(errors, fmt.Sprintf("width must be between 160 and %d", MaxWidth))
	}
	if c.Height < 120 || c.Height > MaxHeight {
		errors = append(errors, fmt.Sprintf("height must be between 120 and %d", MaxHeight))
	}
	if c.Framerate < 1 || c.Framerate > MaxFramerate {
		errors = append(errors, fmt.Sprintf("framerate must be between 1 and %d", MaxFramerate))
	}
	if c.Quality < 1 || c.Quality > 100 {
		errors = append(errors, "quality must be between 1 and 100")
	}

	return errors
}
