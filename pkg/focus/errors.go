package focus

import "errors"

var (
	// ErrNoImages is returned when an alert session is requested with an empty image set.
	// Callers treat it as recoverable: monitoring continues.
	ErrNoImages = errors.New("focus: no alert images available")

	// ErrInvalidThreshold is returned for a persistence threshold below 1.
	ErrInvalidThreshold = errors.New("focus: threshold must be positive")

	// ErrInvalidConfidence is returned for a confidence floor outside [0,1].
	ErrInvalidConfidence = errors.New("focus: confidence floor must be within [0,1]")
)

// ConfigError reports which field of a Config failed validation.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return "focus: invalid " + e.Field + ": " + e.Err.Error()
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}
