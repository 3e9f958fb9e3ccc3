// Package focus implements the distraction debounce and the alert lifecycle.
//
// A Controller turns a stream of per-frame Samples into a stable decision:
// after Threshold consecutive qualifying samples it leaves MONITORING and
// opens an alert Session, which stays until the user dismisses it (back to
// MONITORING) or quits (terminate the application).
//
// Nothing in this package is safe for concurrent use. One goroutine owns the
// Controller and everything it hands out.
package focus

import "math"

// Sample is one frame's observation of the watched object.
type Sample struct {
	Present    bool    // Target class seen in the frame
	Confidence float64 // Highest confidence among target detections (0-1)
}

// Absent is the sample for a frame without the target.
var Absent = Sample{}

// Valid reports whether the confidence is a finite number within [0,1].
func (s Sample) Valid() bool {
	return !math.IsNaN(s.Confidence) && s.Confidence >= 0 && s.Confidence <= 1
}

// Qualifies reports whether the sample counts towards the threshold.
// Malformed samples never qualify.
func (s Sample) Qualifies(floor float64) bool {
	return s.Present && s.Valid() && s.Confidence >= floor
}
