package focus

import (
	"image"
	"time"

	"github.com/google/uuid"
)

// TransitionState tells the renderer whether an image change is animating.
type TransitionState int

const (
	Steady TransitionState = iota
	Transitioning
)

func (t TransitionState) String() string {
	if t == Transitioning {
		return "transitioning"
	}
	return "steady"
}

// Outcome is how an alert session ended.
type Outcome int

const (
	Pending Outcome = iota
	Dismissed
	Quit
)

func (o Outcome) String() string {
	switch o {
	case Dismissed:
		return "dismissed"
	case Quit:
		return "quit"
	default:
		return "pending"
	}
}

// Session is one alert occurrence: an image carousel with timed rotation and
// a terminal outcome chosen by the user.
type Session struct {
	id     string
	images []image.Image

	switchInterval     time.Duration
	transitionDuration time.Duration

	index       int
	previous    int
	sinceSwitch time.Duration

	state         TransitionState
	sinceRotation time.Duration
	progress      float64

	outcome Outcome
}

// NewSession creates a session over images. It returns ErrNoImages when the
// set is empty. The slice is copied; the images themselves are shared.
func NewSession(images []image.Image, switchInterval, transitionDuration time.Duration) (*Session, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	imgs := make([]image.Image, len(images))
	copy(imgs, images)
	return &Session{
		id:                 uuid.NewString(),
		images:             imgs,
		switchInterval:     switchInterval,
		transitionDuration: transitionDuration,
		progress:           1,
	}, nil
}

// ID returns the unique session identifier.
func (s *Session) ID() string { return s.id }

// Len returns the number of images in the carousel.
func (s *Session) Len() int { return len(s.images) }

// Index returns the image currently shown.
func (s *Session) Index() int { return s.index }

// Previous returns the image shown before the last rotation. While
// transitioning the renderer animates from Previous to Index.
func (s *Session) Previous() int { return s.previous }

// Image returns the current image.
func (s *Session) Image() image.Image { return s.images[s.index] }

// ImageAt returns image i of the carousel.
func (s *Session) ImageAt(i int) image.Image { return s.images[i] }

// Elapsed returns the time since the last image change.
func (s *Session) Elapsed() time.Duration { return s.sinceSwitch }

// Transition returns the animation state and its progress in [0,1].
// Progress is 1 whenever the state is Steady.
func (s *Session) Transition() (TransitionState, float64) {
	return s.state, s.progress
}

// Outcome returns the terminal outcome, or Pending.
func (s *Session) Outcome() Outcome { return s.outcome }

// Tick advances the session clock by dt. A running transition progresses
// first; then, once the current image has been shown for the switch
// interval, the carousel rotates. At most one rotation happens per tick.
func (s *Session) Tick(dt time.Duration) {
	if dt < 0 {
		dt = 0
	}

	if s.state == Transitioning {
		s.sinceRotation += dt
		s.updateProgress()
	}

	s.sinceSwitch += dt
	if s.sinceSwitch >= s.switchInterval {
		s.rotate()
	}
}

// Advance moves to the next image immediately, exactly as an automatic
// rotation would.
func (s *Session) Advance() {
	s.rotate()
}

func (s *Session) rotate() {
	s.previous = s.index
	s.index = (s.index + 1) % len(s.images)
	s.sinceSwitch = 0
	s.sinceRotation = 0
	s.state = Transitioning
	s.progress = 0
	s.updateProgress()
}

func (s *Session) updateProgress() {
	if s.transitionDuration <= 0 {
		s.progress = 1
	} else {
		s.progress = float64(s.sinceRotation) / float64(s.transitionDuration)
	}
	if s.progress >= 1 {
		s.progress = 1
		s.state = Steady
	}
}

// Dismiss marks the session dismissed if no outcome was set yet.
// It reports whether the outcome changed.
func (s *Session) Dismiss() bool {
	if s.outcome != Pending {
		return false
	}
	s.outcome = Dismissed
	return true
}

// Quit marks the session as quit. Quit overrides a dismissal that has not
// been acted on yet; it reports whether the outcome changed.
func (s *Session) Quit() bool {
	if s.outcome == Quit {
		return false
	}
	s.outcome = Quit
	return true
}
