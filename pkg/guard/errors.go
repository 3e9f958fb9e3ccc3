package guard

import "errors"

var (
	// ErrPreflight is wrapped by Report.Err when a fatal check failed.
	ErrPreflight = errors.New("guard: preflight failed")

	// ErrCameraUnavailable reports a webcam that could not be opened.
	ErrCameraUnavailable = errors.New("guard: camera unavailable")

	// ErrStopped is returned by actions sent after Run has returned.
	ErrStopped = errors.New("guard: stopped")
)
