package focus

import (
	"image"
	"time"
)

// Mode is the controller's top-level state.
type Mode int

const (
	Monitoring Mode = iota
	Alerting
)

func (m Mode) String() string {
	if m == Alerting {
		return "alerting"
	}
	return "monitoring"
}

// MarshalText renders the mode by name in JSON snapshots.
func (m Mode) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

// MarshalText renders the transition state by name.
func (t TransitionState) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// MarshalText renders the outcome by name.
func (o Outcome) MarshalText() ([]byte, error) { return []byte(o.String()), nil }

// ImageSource supplies the alert image set. It is asked again every time an
// alert starts.
type ImageSource interface {
	Images() []image.Image
}

// StaticImages is an ImageSource over a fixed set.
type StaticImages []image.Image

// Images returns the fixed set.
func (s StaticImages) Images() []image.Image { return s }

// EventKind identifies what a controller step changed.
type EventKind int

const (
	EventNone EventKind = iota
	EventAlertStarted
	EventAlertFailed
	EventResumed
	EventTerminate
)

func (k EventKind) String() string {
	switch k {
	case EventAlertStarted:
		return "alert_started"
	case EventAlertFailed:
		return "alert_failed"
	case EventResumed:
		return "resumed"
	case EventTerminate:
		return "terminate"
	default:
		return "none"
	}
}

// Event is the observable result of a controller step.
type Event struct {
	Kind      EventKind
	SessionID string // Set for EventAlertStarted, EventResumed and EventTerminate from an alert
	Err       error  // Set for EventAlertFailed; wraps ErrNoImages
}

// modeState is the tagged union of the two modes. Exactly one variant is
// held at a time; only alertingState carries a session.
type modeState interface {
	mode() Mode
}

type monitoringState struct{}

func (monitoringState) mode() Mode { return Monitoring }

type alertingState struct {
	session *Session
}

func (alertingState) mode() Mode { return Alerting }

// Controller arbitrates between monitoring and alerting.
type Controller struct {
	cfg     Config
	counter *Counter
	images  ImageSource
	state   modeState

	quitRequested bool
	terminated    bool
	discarded     uint64

	listeners []func(Event)
}

// NewController creates a controller in MONITORING. A nil ImageSource is
// allowed and behaves as an empty folder.
func NewController(cfg Config, images ImageSource) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	counter, err := NewCounter(cfg.Threshold, cfg.ConfidenceFloor)
	if err != nil {
		return nil, err
	}
	return &Controller{
		cfg:     cfg,
		counter: counter,
		images:  images,
		state:   monitoringState{},
	}, nil
}

// AddListener registers fn to be called, on the owning goroutine, for every
// event other than EventNone.
func (c *Controller) AddListener(fn func(Event)) {
	c.listeners = append(c.listeners, fn)
}

// Mode returns the active mode.
func (c *Controller) Mode() Mode {
	return c.state.mode()
}

// Session returns the live alert session, or nil while monitoring.
func (c *Controller) Session() *Session {
	if a, ok := c.state.(alertingState); ok {
		return a.session
	}
	return nil
}

// Counter exposes the persistence counter for display. Callers must not
// mutate it.
func (c *Controller) Counter() *Counter {
	return c.counter
}

// Terminated reports whether a quit has been settled.
func (c *Controller) Terminated() bool {
	return c.terminated
}

// Discarded returns how many samples arrived while alerting.
func (c *Controller) Discarded() uint64 {
	return c.discarded
}

// Observe feeds one detection sample. While alerting the sample is dropped.
// A threshold crossing resets the counter and tries to open an alert; if no
// images are available the controller stays in MONITORING and reports
// EventAlertFailed.
func (c *Controller) Observe(s Sample) Event {
	if c.terminated {
		return Event{}
	}
	if _, ok := c.state.(alertingState); ok {
		c.discarded++
		return Event{}
	}
	if !c.counter.Observe(s) {
		return Event{}
	}

	c.counter.Reset()
	var imgs []image.Image
	if c.images != nil {
		imgs = c.images.Images()
	}
	session, err := NewSession(imgs, c.cfg.SwitchInterval, c.cfg.TransitionDuration)
	if err != nil {
		return c.emit(Event{Kind: EventAlertFailed, Err: err})
	}
	c.state = alertingState{session: session}
	return c.emit(Event{Kind: EventAlertStarted, SessionID: session.ID()})
}

// Tick settles any pending user action, then advances the live session's
// clock by dt.
func (c *Controller) Tick(dt time.Duration) Event {
	if ev := c.Settle(); ev.Kind != EventNone {
		return ev
	}
	if a, ok := c.state.(alertingState); ok {
		a.session.Tick(dt)
	}
	return Event{}
}

// Settle acts on a terminal outcome: a dismissed session is dropped and
// monitoring resumes; a quit (from either mode) yields EventTerminate.
func (c *Controller) Settle() Event {
	if c.terminated {
		return Event{}
	}

	var sessionID string
	quit := c.quitRequested
	if a, ok := c.state.(alertingState); ok {
		sessionID = a.session.ID()
		switch a.session.Outcome() {
		case Pending:
			if !quit {
				return Event{}
			}
		case Dismissed:
			if !quit {
				c.state = monitoringState{}
				c.counter.Reset()
				return c.emit(Event{Kind: EventResumed, SessionID: sessionID})
			}
		case Quit:
			quit = true
		}
	}
	if !quit {
		return Event{}
	}

	c.state = monitoringState{}
	c.counter.Reset()
	c.terminated = true
	return c.emit(Event{Kind: EventTerminate, SessionID: sessionID})
}

// Dismiss asks to close the live alert and resume monitoring. It reports
// false when there is no alert or its outcome is already set.
func (c *Controller) Dismiss() bool {
	if a, ok := c.state.(alertingState); ok {
		return a.session.Dismiss()
	}
	return false
}

// Quit asks to terminate the application. It is accepted in both modes and
// takes effect on the next Tick or Settle.
func (c *Controller) Quit() {
	if a, ok := c.state.(alertingState); ok {
		a.session.Quit()
		return
	}
	c.quitRequested = true
}

// Next advances the carousel by one image. It reports false while monitoring.
func (c *Controller) Next() bool {
	if a, ok := c.state.(alertingState); ok {
		a.session.Advance()
		return true
	}
	return false
}

func (c *Controller) emit(ev Event) Event {
	for _, fn := range c.listeners {
		fn(ev)
	}
	return ev
}

// Snapshot is a copy of the renderer-visible state.
type Snapshot struct {
	Mode       Mode           `json:"mode"`
	Count      int            `json:"count"`
	Threshold  int            `json:"threshold"`
	Terminated bool           `json:"terminated"`
	Alert      *AlertSnapshot `json:"alert,omitempty"`
}

// AlertSnapshot describes the live session.
type AlertSnapshot struct {
	SessionID  string          `json:"session_id"`
	Images     int             `json:"images"`
	Index      int             `json:"index"`
	Previous   int             `json:"previous"`
	Transition TransitionState `json:"transition"`
	Progress   float64         `json:"progress"`
	Outcome    Outcome         `json:"outcome"`
	ElapsedMS  int64           `json:"elapsed_ms"`
}

// Snapshot captures the current state.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		Mode:       c.Mode(),
		Count:      c.counter.Count(),
		Threshold:  c.counter.Threshold(),
		Terminated: c.terminated,
	}
	if s := c.Session(); s != nil {
		state, progress := s.Transition()
		snap.Alert = &AlertSnapshot{
			SessionID:  s.ID(),
			Images:     s.Len(),
			Index:      s.Index(),
			Previous:   s.Previous(),
			Transition: state,
			Progress:   progress,
			Outcome:    s.Outcome(),
			ElapsedMS:  s.Elapsed().Milliseconds(),
		}
	}
	return snap
}
