package guard

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/teslashibe/phoneguard/internal/log"
	"github.com/teslashibe/phoneguard/pkg/detection"
	"github.com/teslashibe/phoneguard/pkg/focus"
)

type fakeCamera struct {
	frame  []byte
	fail   atomic.Bool
	closed atomic.Int32
}

func newFakeCamera(t *testing.T) *fakeCamera {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return &fakeCamera{frame: buf.Bytes()}
}

func (c *fakeCamera) CaptureJPEG() ([]byte, error) {
	time.Sleep(time.Millisecond)
	if c.fail.Load() {
		return nil, errors.New("unplugged")
	}
	return c.frame, nil
}

func (c *fakeCamera) Close() error {
	c.closed.Add(1)
	return nil
}

type fakeDetector struct {
	present atomic.Bool
	closed  atomic.Int32
}

func (d *fakeDetector) Detect([]byte) ([]detection.ObjectDetection, error) {
	if !d.present.Load() {
		return nil, nil
	}
	return []detection.ObjectDetection{
		{Detection: detection.Detection{X: 0.1, Y: 0.1, W: 0.3, H: 0.3, Confidence: 0.9}, ClassID: detection.CellPhone, ClassName: "cell phone"},
		{Detection: detection.Detection{X: 0.5, Y: 0.5, W: 0.2, H: 0.2, Confidence: 0.95}, ClassID: 0, ClassName: "person"},
	}, nil
}

func (d *fakeDetector) Close() error {
	d.closed.Add(1)
	return nil
}

type fakeSound struct {
	mu      sync.Mutex
	plays   int
	playing bool
}

func (s *fakeSound) Play(ctx context.Context) error {
	s.mu.Lock()
	s.plays++
	s.playing = true
	s.mu.Unlock()

	<-ctx.Done()

	s.mu.Lock()
	s.playing = false
	s.mu.Unlock()
	return nil
}

func (s *fakeSound) state() (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plays, s.playing
}

func redImages() focus.StaticImages {
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	img.Set(0, 0, color.RGBA{255, 0, 0, 255})
	return focus.StaticImages{img, img}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Focus.Threshold = 3
	cfg.TickInterval = 5 * time.Millisecond
	cfg.ImagesFolder = "horse of wisdom"
	return cfg
}

type harness struct {
	app    *App
	cam    *fakeCamera
	det    *fakeDetector
	sound  *fakeSound
	result chan error
	cancel context.CancelFunc
}

func start(t *testing.T, cfg Config, images focus.ImageSource) *harness {
	t.Helper()
	h := &harness{
		cam:    newFakeCamera(t),
		det:    &fakeDetector{},
		sound:  &fakeSound{},
		result: make(chan error, 1),
	}
	app, err := New(cfg, Deps{
		Camera:   h.cam,
		Detector: h.det,
		Images:   images,
		Sound:    h.sound,
		Logger:   log.Discard(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	h.app = app

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.result <- app.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-app.Done()
	})
	return h
}

func (h *harness) wait(t *testing.T) error {
	t.Helper()
	select {
	case err := <-h.result:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
		return nil
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(testConfig(), Deps{Detector: &fakeDetector{}}); !errors.Is(err, ErrCameraUnavailable) {
		t.Errorf("missing camera: got %v", err)
	}
	if _, err := New(testConfig(), Deps{Camera: &fakeCamera{}}); err == nil {
		t.Error("missing detector: expected error")
	}

	cfg := testConfig()
	cfg.Focus.Threshold = 0
	if _, err := New(cfg, Deps{Camera: &fakeCamera{}, Detector: &fakeDetector{}}); !errors.Is(err, focus.ErrInvalidThreshold) {
		t.Errorf("bad threshold: got %v", err)
	}
}

func TestApp_AlertDismissAndQuit(t *testing.T) {
	h := start(t, testConfig(), redImages())

	waitFor(t, "preview frames", func() bool { return h.app.View().PreviewSeq > 0 })
	if h.app.Next() {
		t.Error("Next while monitoring should be refused")
	}

	h.det.present.Store(true)
	waitFor(t, "alert", func() bool { return h.app.Snapshot().Mode == focus.Alerting })
	waitFor(t, "alert sound", func() bool { _, playing := h.sound.state(); return playing })

	v := h.app.View()
	if v.Mode != focus.Alerting || v.Alert == nil || v.AlertSeq == 0 {
		t.Errorf("view during alert: mode=%v alert=%v seq=%d", v.Mode, v.Alert != nil, v.AlertSeq)
	}
	if snap := h.app.Snapshot(); snap.Alert == nil || snap.Alert.Images != 2 {
		t.Errorf("snapshot alert: %+v", snap.Alert)
	}
	if !h.app.Next() {
		t.Error("Next during alert should be accepted")
	}

	h.det.present.Store(false)
	if !h.app.Dismiss() {
		t.Fatal("Dismiss during alert should be accepted")
	}
	waitFor(t, "resume", func() bool { return h.app.Snapshot().Mode == focus.Monitoring })
	waitFor(t, "sound stop", func() bool { _, playing := h.sound.state(); return !playing })

	if v := h.app.View(); v.Mode != focus.Monitoring || v.Alert != nil {
		t.Errorf("view after dismiss: mode=%v alert=%v", v.Mode, v.Alert != nil)
	}
	if h.app.Dismiss() {
		t.Error("second Dismiss should be refused")
	}

	h.app.Quit()
	if err := h.wait(t); err != nil {
		t.Fatalf("Run: %v", err)
	}

	m := h.app.Metrics()
	if got := m.AlertsStarted.Load(); got != 1 {
		t.Errorf("alerts started: got %d, want 1", got)
	}
	if got := m.Dismissals.Load(); got != 1 {
		t.Errorf("dismissals: got %d, want 1", got)
	}
	if got := m.Quits.Load(); got != 1 {
		t.Errorf("quits: got %d, want 1", got)
	}
	if h.cam.closed.Load() != 1 || h.det.closed.Load() != 1 {
		t.Errorf("closed: camera=%d detector=%d", h.cam.closed.Load(), h.det.closed.Load())
	}
	if plays, _ := h.sound.state(); plays != 1 {
		t.Errorf("sound plays: got %d, want 1", plays)
	}
}

func TestApp_QuitDuringAlert(t *testing.T) {
	h := start(t, testConfig(), redImages())

	h.det.present.Store(true)
	waitFor(t, "alert", func() bool { return h.app.Snapshot().Mode == focus.Alerting })

	h.app.Quit()
	if err := h.wait(t); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !h.app.Snapshot().Terminated {
		t.Error("snapshot should report termination")
	}
	if _, playing := h.sound.state(); playing {
		t.Error("sound still playing after quit")
	}
	if h.app.Dismiss() {
		t.Error("actions after Run returned should be refused")
	}
}

func TestApp_NoImagesKeepsMonitoring(t *testing.T) {
	h := start(t, testConfig(), focus.StaticImages{})

	h.det.present.Store(true)
	waitFor(t, "failed alert", func() bool { return h.app.Metrics().AlertsFailed.Load() >= 1 })

	if mode := h.app.Snapshot().Mode; mode != focus.Monitoring {
		t.Errorf("mode after failed alert: %v", mode)
	}
	if plays, _ := h.sound.state(); plays != 0 {
		t.Errorf("sound played %d times without an alert", plays)
	}
	if h.app.Metrics().AlertsStarted.Load() != 0 {
		t.Error("no alert should start without images")
	}
}

func TestApp_ContextCancel(t *testing.T) {
	h := start(t, testConfig(), redImages())
	h.cam.fail.Store(true)

	waitFor(t, "capture errors", func() bool { return h.app.Metrics().CaptureErrors.Load() > 0 })
	h.cancel()

	if err := h.wait(t); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if h.cam.closed.Load() != 1 {
		t.Error("camera not closed")
	}
	if h.app.Metrics().FramesCaptured.Load() != 0 {
		t.Error("failing camera should not count frames")
	}
}

func TestApp_SamplesDiscardedWhileAlerting(t *testing.T) {
	h := start(t, testConfig(), redImages())

	h.det.present.Store(true)
	waitFor(t, "alert", func() bool { return h.app.Snapshot().Mode == focus.Alerting })
	waitFor(t, "discarded samples", func() bool { return h.app.Metrics().SamplesDiscarded.Load() >= 3 })

	if snap := h.app.Snapshot(); snap.Count != 0 || snap.Alert.Outcome != focus.Pending {
		t.Errorf("samples during alert changed state: %+v", snap)
	}
}
