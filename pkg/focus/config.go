package focus

import (
	"errors"
	"time"
)

// Config holds the tunables of the debounce and alert timing.
type Config struct {
	Threshold          int           // Consecutive qualifying samples needed to raise an alert
	ConfidenceFloor    float64       // Minimum detector confidence for a sample to qualify
	SwitchInterval     time.Duration // Time each carousel image stays on screen
	TransitionDuration time.Duration // Length of the animation between two images
}

// DefaultConfig returns the values the detector ships with.
func DefaultConfig() Config {
	return Config{
		Threshold:          30, // ~1s of continuous phone at 30 FPS
		ConfidenceFloor:    0.5,
		SwitchInterval:     2000 * time.Millisecond,
		TransitionDuration: 800 * time.Millisecond,
	}
}

// Validate returns a *ConfigError for the first out-of-range field.
func (c Config) Validate() error {
	if c.Threshold < 1 {
		return &ConfigError{Field: "threshold", Err: ErrInvalidThreshold}
	}
	if !(c.ConfidenceFloor >= 0 && c.ConfidenceFloor <= 1) {
		return &ConfigError{Field: "confidence_floor", Err: ErrInvalidConfidence}
	}
	if c.SwitchInterval <= 0 {
		return &ConfigError{Field: "switch_interval", Err: errors.New("must be positive")}
	}
	if c.TransitionDuration < 0 {
		return &ConfigError{Field: "transition_duration", Err: errors.New("must not be negative")}
	}
	return nil
}
