package camera

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gocv.io/x/gocv"

	"github.com/teslashibe/phoneguard/internal/log"
)

var (
	// ErrNotOpened is returned when the capture device cannot be opened.
	ErrNotOpened = errors.New("camera: device not opened")

	// ErrNoFrame is returned when the device delivers no frame.
	ErrNoFrame = errors.New("camera: no frame")
)

// Webcam captures frames from a local OpenCV video device.
type Webcam struct {
	mu     sync.Mutex
	cap    *gocv.VideoCapture
	frame  gocv.Mat
	config Config
	logger *slog.Logger
}

// OpenWebcam opens cfg.Device and applies the resolution and framerate.
func OpenWebcam(cfg Config, logger *slog.Logger) (*Webcam, error) {
	if logger == nil {
		logger = log.L()
	}
	w := &Webcam{
		frame:  gocv.NewMat(),
		logger: logger.With("component", "webcam"),
	}
	if err := w.open(cfg); err != nil {
		w.frame.Close()
		return nil, err
	}
	return w, nil
}

func (w *Webcam) open(cfg Config) error {
	vc, err := gocv.OpenVideoCapture(cfg.Device)
	if err != nil {
		return fmt.Errorf("%w: device %d: %v", ErrNotOpened, cfg.Device, err)
	}
	if !vc.IsOpened() {
		vc.Close()
		return fmt.Errorf("%w: device %d", ErrNotOpened, cfg.Device)
	}

	vc.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	vc.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	vc.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))

	w.cap = vc
	w.config = cfg
	w.logger.Info("camera opened",
		"device", cfg.Device,
		"width", vc.Get(gocv.VideoCaptureFrameWidth),
		"height", vc.Get(gocv.VideoCaptureFrameHeight),
		"fps", vc.Get(gocv.VideoCaptureFPS))
	return nil
}

// Apply reconfigures the device. Switching devices reopens the capture.
// It has the signature of Manager.OnConfigChange.
func (w *Webcam) Apply(cfg Config) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap == nil || cfg.Device != w.config.Device {
		old := w.cap
		if err := w.open(cfg); err != nil {
			return err
		}
		if old != nil {
			old.Close()
		}
		return nil
	}

	w.cap.Set(gocv.VideoCaptureFrameWidth, float64(cfg.Width))
	w.cap.Set(gocv.VideoCaptureFrameHeight, float64(cfg.Height))
	w.cap.Set(gocv.VideoCaptureFPS, float64(cfg.Framerate))
	w.config = cfg
	return nil
}

// CaptureJPEG reads one frame and returns it JPEG-encoded.
func (w *Webcam) CaptureJPEG() ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cap == nil {
		return nil, ErrNotOpened
	}
	if ok := w.cap.Read(&w.frame); !ok || w.frame.Empty() {
		return nil, ErrNoFrame
	}
	if w.config.Mirror {
		gocv.Flip(w.frame, &w.frame, 1)
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, w.frame, []int{gocv.IMWriteJpegQuality, w.config.Quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	// GetBytes aliases C memory that Close frees.
	return bytes.Clone(buf.GetBytes()), nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	var err error
	if w.cap != nil {
		err = w.cap.Close()
		w.cap = nil
	}
	w.frame.Close()
	return err
}
