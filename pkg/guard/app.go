package guard

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/phoneguard/internal/log"
	"github.com/teslashibe/phoneguard/pkg/audio"
	"github.com/teslashibe/phoneguard/pkg/detection"
	"github.com/teslashibe/phoneguard/pkg/display"
	"github.com/teslashibe/phoneguard/pkg/focus"
	"github.com/teslashibe/phoneguard/pkg/metrics"
	"github.com/teslashibe/phoneguard/pkg/render"
	"github.com/teslashibe/phoneguard/pkg/web"
)

// FrameSource delivers JPEG camera frames. *camera.Webcam implements it.
type FrameSource interface {
	CaptureJPEG() ([]byte, error)
	Close() error
}

// Deps are the components an App drives. Camera and Detector are required.
type Deps struct {
	Camera       FrameSource
	Detector     detection.Detector
	Images       focus.ImageSource
	Sound        audio.Sound // Nil keeps alerts silent
	AudioMissing bool        // Shows the missing-audio warning on alerts
	Web          *web.Server // Optional dashboard
	Metrics      *metrics.Metrics
	Logger       *slog.Logger
}

// observation is one analysed camera frame.
type observation struct {
	frame  []byte
	dets   []detection.ObjectDetection
	sample focus.Sample
}

type command struct {
	action display.Action
	reply  chan bool
}

// statusKey is the part of the state whose changes are pushed to the
// dashboard. Transition progress is left out so transitions do not flood
// the status feed.
type statusKey struct {
	mode       focus.Mode
	count      int
	session    string
	index      int
	transition focus.TransitionState
	outcome    focus.Outcome
	warning    string
}

// App owns the focus controller. All controller access happens on the
// goroutine running Run; other goroutines talk to it through channels and
// read the published View and Snapshot.
type App struct {
	cfg     Config
	deps    Deps
	logger  *slog.Logger
	ctrl    *focus.Controller
	alarm   *audio.Alarm
	metrics *metrics.Metrics

	samples  chan observation
	commands chan command
	done     chan struct{}
	cancel   context.CancelFunc

	warning     string
	lastStatus  statusKey
	lastWebSend time.Time

	mu       sync.RWMutex
	view     display.View
	snapshot focus.Snapshot
}

// New creates an App. The controller is built from cfg.Focus.
func New(cfg Config, deps Deps) (*App, error) {
	if deps.Camera == nil {
		return nil, fmt.Errorf("%w: no frame source", ErrCameraUnavailable)
	}
	if deps.Detector == nil {
		return nil, errors.New("guard: no detector")
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = time.Second / 60
	}
	if cfg.JPEGQuality <= 0 {
		cfg.JPEGQuality = 80
	}

	ctrl, err := focus.NewController(cfg.Focus, deps.Images)
	if err != nil {
		return nil, err
	}

	logger := deps.Logger
	if logger == nil {
		logger = log.L()
	}
	logger = logger.With("component", "guard")

	m := deps.Metrics
	if m == nil {
		m = metrics.New()
	}
	ctrl.AddListener(m.OnEvent)

	a := &App{
		cfg:      cfg,
		deps:     deps,
		logger:   logger,
		ctrl:     ctrl,
		alarm:    audio.NewAlarm(deps.Sound, logger),
		metrics:  m,
		samples:  make(chan observation, 1),
		commands: make(chan command, 8),
		done:     make(chan struct{}),
	}
	a.snapshot = ctrl.Snapshot()
	a.view.Mode = focus.Monitoring

	if deps.Web != nil {
		deps.Web.OnDismiss = a.Dismiss
		deps.Web.OnNext = a.Next
		deps.Web.OnQuit = a.Quit
	}
	return a, nil
}

// Run captures and analyses frames until ctx is cancelled or the user
// quits. Components in Deps are closed before it returns.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	defer close(a.done)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		a.capture(ctx)
	}()

	a.logger.Info("detection started",
		"threshold", a.cfg.Focus.Threshold,
		"confidence", a.cfg.Focus.ConfidenceFloor,
		"quit_key", a.cfg.QuitKey)
	a.publish()

	ticker := time.NewTicker(a.cfg.TickInterval)
	defer ticker.Stop()
	last := time.Now()

	for !a.ctrl.Terminated() {
		select {
		case <-ctx.Done():
			a.logger.Info("stopping", "reason", context.Cause(ctx))
			cancel()
			wg.Wait()
			return a.shutdown()

		case obs := <-a.samples:
			a.observe(ctx, obs)

		case cmd := <-a.commands:
			cmd.reply <- a.apply(cmd.action)
			a.publish()

		case <-ticker.C:
			now := time.Now()
			dt := now.Sub(last)
			last = now
			a.handle(ctx, a.ctrl.Tick(dt))
			a.redrawAlert()
		}
	}

	cancel()
	wg.Wait()
	return a.shutdown()
}

// Done is closed when Run has returned.
func (a *App) Done() <-chan struct{} {
	return a.done
}

// Dismiss asks to close the live alert. It reports false when no alert is
// pending.
func (a *App) Dismiss() bool { return a.send(display.ActionDismiss) }

// Next shows the next alert image. It reports false while monitoring.
func (a *App) Next() bool { return a.send(display.ActionNext) }

// Quit asks the App to stop after the current tick.
func (a *App) Quit() { a.send(display.ActionQuit) }

// View returns what the desktop windows should show.
func (a *App) View() display.View {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.view
}

// Snapshot returns the controller state as of the last change.
func (a *App) Snapshot() focus.Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.snapshot
}

// Metrics returns the metrics the App records into.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

func (a *App) send(action display.Action) bool {
	reply := make(chan bool, 1)
	select {
	case a.commands <- command{action: action, reply: reply}:
	case <-a.done:
		return false
	}
	select {
	case ok := <-reply:
		return ok
	case <-a.done:
		return false
	}
}

func (a *App) apply(action display.Action) bool {
	switch action {
	case display.ActionDismiss:
		ok := a.ctrl.Dismiss()
		if ok {
			a.logger.Info("alert dismissed, back to work")
		}
		return ok
	case display.ActionNext:
		return a.ctrl.Next()
	case display.ActionQuit:
		a.logger.Info("quit requested")
		a.ctrl.Quit()
		return true
	}
	return false
}

// capture reads frames and runs detection until ctx is done. Only the newest
// observation is kept when the event loop falls behind.
func (a *App) capture(ctx context.Context) {
	var lastErr time.Time
	var lastRun time.Time

	for ctx.Err() == nil {
		if wait := a.cfg.DetectionInterval - time.Since(lastRun); wait > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
		lastRun = time.Now()

		frame, err := a.deps.Camera.CaptureJPEG()
		if err != nil {
			a.metrics.CaptureErrors.Add(1)
			if time.Since(lastErr) > 5*time.Second {
				a.logger.Warn("failed to read frame", "error", err)
				lastErr = time.Now()
			}
			select {
			case <-ctx.Done():
				return
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		a.metrics.FramesCaptured.Add(1)

		start := time.Now()
		dets, err := a.deps.Detector.Detect(frame)
		a.metrics.ObserveDetection(time.Since(start))
		if err != nil {
			a.metrics.DetectionErrors.Add(1)
			a.logger.Debug("detection failed", "error", err)
			continue
		}

		targets := a.cfg.Target.Filter(dets)
		a.offer(observation{frame: frame, dets: targets, sample: a.cfg.Target.Sample(targets)})
	}
}

func (a *App) offer(obs observation) {
	select {
	case a.samples <- obs:
		return
	default:
	}
	select {
	case <-a.samples:
		a.metrics.FramesDropped.Add(1)
	default:
	}
	select {
	case a.samples <- obs:
	default:
		a.metrics.FramesDropped.Add(1)
	}
}

func (a *App) observe(ctx context.Context, obs observation) {
	wasAlerting := a.ctrl.Mode() == focus.Alerting
	ev := a.ctrl.Observe(obs.sample)
	if wasAlerting {
		a.metrics.SamplesDiscarded.Add(1)
	} else {
		a.metrics.ObserveSample(obs.sample, a.ctrl.Counter().Count())
		if obs.sample.Present {
			a.logger.Debug("phone detected",
				"confidence", obs.sample.Confidence,
				"count", a.ctrl.Counter().Count(),
				"threshold", a.ctrl.Counter().Threshold())
		}
	}
	a.handle(ctx, ev)
	a.updatePreview(obs)
}

// handle reacts to a controller event.
func (a *App) handle(ctx context.Context, ev focus.Event) {
	switch ev.Kind {
	case focus.EventNone:
		a.publish()
		return

	case focus.EventAlertStarted:
		a.logger.Warn("phone detected, triggering alert", "session", ev.SessionID)
		a.warning = ""
		a.alarm.Start(ctx)
		a.redrawAlert()

	case focus.EventAlertFailed:
		a.warning = "No images found"
		if a.cfg.ImagesFolder != "" {
			a.warning = fmt.Sprintf("No images in '%s'", a.cfg.ImagesFolder)
		}
		a.logger.Error("cannot show alert", "error", ev.Err)

	case focus.EventResumed:
		a.logger.Info("resuming monitoring", "session", ev.SessionID)
		a.alarm.Stop()
		a.clearAlert()

	case focus.EventTerminate:
		a.logger.Info("terminating", "session", ev.SessionID)
		a.alarm.Stop()
		a.clearAlert()
		if a.cancel != nil {
			a.cancel()
		}
	}
	a.publish()
}

func (a *App) updatePreview(obs observation) {
	st := render.Status{
		Count:     a.ctrl.Counter().Count(),
		Threshold: a.ctrl.Counter().Threshold(),
		QuitKey:   a.cfg.QuitKey,
		Warning:   a.warning,
	}
	frame, err := render.AnnotateJPEG(obs.frame, obs.dets, st, a.cfg.JPEGQuality)
	if err != nil {
		a.logger.Debug("annotate frame", "error", err)
		frame = obs.frame
	}

	a.mu.Lock()
	a.view.Preview = frame
	a.view.PreviewSeq++
	a.mu.Unlock()

	if a.deps.Web != nil {
		a.deps.Web.SendCameraFrame(frame)
	}
}

// redrawAlert renders the live session, if any.
func (a *App) redrawAlert() {
	s := a.ctrl.Session()
	if s == nil {
		return
	}
	opts := a.cfg.Alert
	if a.deps.AudioMissing {
		opts.Warning = "Audio file missing!"
	}
	img := render.Alert(s, opts)

	a.mu.Lock()
	a.view.Mode = focus.Alerting
	a.view.Alert = img
	a.view.AlertSeq++
	a.mu.Unlock()

	a.sendAlertFrame(img)
}

func (a *App) sendAlertFrame(img image.Image) {
	if a.deps.Web == nil || time.Since(a.lastWebSend) < a.cfg.WebFrameInterval {
		return
	}
	a.lastWebSend = time.Now()
	data, err := render.EncodeJPEG(img, a.cfg.JPEGQuality)
	if err != nil {
		a.logger.Debug("encode alert frame", "error", err)
		return
	}
	a.deps.Web.SendAlertFrame(data)
}

func (a *App) clearAlert() {
	a.mu.Lock()
	a.view.Mode = focus.Monitoring
	a.view.Alert = nil
	a.mu.Unlock()

	a.lastWebSend = time.Time{}
	if a.deps.Web != nil {
		a.deps.Web.SendAlertFrame(nil)
	}
}

// publish stores a fresh snapshot and pushes it to the dashboard when the
// visible state changed.
func (a *App) publish() {
	snap := a.ctrl.Snapshot()
	key := statusKey{mode: snap.Mode, count: snap.Count, warning: a.warning}
	if snap.Alert != nil {
		key.session = snap.Alert.SessionID
		key.index = snap.Alert.Index
		key.transition = snap.Alert.Transition
		key.outcome = snap.Alert.Outcome
	}

	a.mu.Lock()
	a.snapshot = snap
	a.mu.Unlock()

	if key == a.lastStatus {
		return
	}
	a.lastStatus = key
	if a.deps.Web != nil {
		a.deps.Web.UpdateState(web.State{
			Snapshot:     snap,
			Warning:      a.warning,
			AudioMissing: a.deps.AudioMissing,
		})
	}
}

// shutdown releases every component. Errors are joined.
func (a *App) shutdown() error {
	a.alarm.Stop()

	var errs []error
	if err := a.deps.Camera.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close camera: %w", err))
	}
	if err := a.deps.Detector.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close detector: %w", err))
	}
	if a.deps.Web != nil {
		if err := a.deps.Web.Shutdown(); err != nil {
			errs = append(errs, fmt.Errorf("stop dashboard: %w", err))
		}
	}

	a.logger.Info("detection stopped",
		"frames", a.metrics.FramesCaptured.Load(),
		"alerts", a.metrics.AlertsStarted.Load(),
		"discarded", a.ctrl.Discarded())
	return errors.Join(errs...)
}
