// Package detection turns detector output into focus samples and hosts the
// YOLO object detector.
package detection

import (
	"github.com/teslashibe/phoneguard/pkg/focus"
)

// Detection is a bounding box in normalized image coordinates.
type Detection struct {
	X, Y       float64 // Top-left corner (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
}

// Center returns the center point of the detection
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box
func (d Detection) Area() float64 {
	return d.W * d.H
}

// ObjectDetection is a detection with its COCO class.
type ObjectDetection struct {
	Detection
	ClassID   int    // COCO class ID
	ClassName string // Human-readable class name
}

// Detector finds objects in a JPEG frame.
type Detector interface {
	Detect(jpeg []byte) ([]ObjectDetection, error)
	Close() error
}

// Target selects which detections feed the debounce.
type Target struct {
	ClassID int     // COCO class to watch
	Floor   float64 // Minimum confidence for a detection to count
}

// DefaultTarget watches for a cell phone at 50% confidence.
func DefaultTarget() Target {
	return Target{ClassID: CellPhone, Floor: 0.5}
}

// Filter returns the detections of the target class at or above the floor.
func (t Target) Filter(dets []ObjectDetection) []ObjectDetection {
	var out []ObjectDetection
	for _, d := range dets {
		if d.ClassID == t.ClassID && d.Confidence >= t.Floor {
			out = append(out, d)
		}
	}
	return out
}

// Strongest returns the highest-confidence detection, or nil.
func Strongest(dets []ObjectDetection) *ObjectDetection {
	var best *ObjectDetection
	for i := range dets {
		if best == nil || dets[i].Confidence > best.Confidence {
			best = &dets[i]
		}
	}
	return best
}

// Sample reduces one frame's detections to a focus.Sample: present when at
// least one target detection meets the floor, with the best confidence.
func (t Target) Sample(dets []ObjectDetection) focus.Sample {
	best := Strongest(t.Filter(dets))
	if best == nil {
		return focus.Absent
	}
	return focus.Sample{Present: true, Confidence: best.Confidence}
}
