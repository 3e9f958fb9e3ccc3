// Package audio plays the alert sound.
package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/teslashibe/phoneguard/internal/log"
)

// ErrNoPlayer is returned when no command-line audio player is installed.
var ErrNoPlayer = errors.New("audio: no audio player found (install ffmpeg)")

// Sound is an effect that plays until ctx is cancelled.
type Sound interface {
	Play(ctx context.Context) error
}

// candidates are tried in order. The file path is appended as last argument.
var candidates = [][]string{
	{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet"},
	{"afplay"},
	{"paplay"},
	{"aplay", "-q"},
}

// Player loops an audio file through an external player process. When the
// file is missing it plays a synthesized beep instead.
type Player struct {
	file    string
	missing bool
	command []string
	logger  *slog.Logger

	beepOnce sync.Once
	beepPath string
	beepErr  error
}

// NewPlayer prepares playback of file. bin selects the player binary; an
// empty bin picks the first one installed.
func NewPlayer(file string, found bool, bin string, logger *slog.Logger) (*Player, error) {
	if logger == nil {
		logger = log.L()
	}
	logger = logger.With("component", "audio")

	command, err := findPlayer(bin)
	if err != nil {
		return nil, err
	}

	if !found {
		logger.Warn("audio file missing, using fallback beep", "file", file)
	}
	return &Player{
		file:    file,
		missing: !found,
		command: command,
		logger:  logger,
	}, nil
}

func findPlayer(bin string) ([]string, error) {
	for _, c := range candidates {
		if bin != "" && c[0] != bin {
			continue
		}
		if _, err := exec.LookPath(c[0]); err == nil {
			return c, nil
		}
	}
	if bin != "" {
		if _, err := exec.LookPath(bin); err == nil {
			return []string{bin}, nil
		}
	}
	return nil, ErrNoPlayer
}

// Missing reports whether the configured file was not found.
func (p *Player) Missing() bool {
	return p.missing
}

// Play loops the sound until ctx is cancelled. It returns nil on
// cancellation and an error if the player cannot run.
func (p *Player) Play(ctx context.Context) error {
	file := p.file
	if p.missing {
		path, err := p.beep()
		if err != nil {
			return err
		}
		file = path
	}

	for {
		args := append(append([]string{}, p.command[1:]...), file)
		cmd := exec.CommandContext(ctx, p.command[0], args...)
		err := cmd.Run()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			return fmt.Errorf("audio: %s: %w", p.command[0], err)
		}
	}
}

// Close removes the temporary beep file, if one was written.
func (p *Player) Close() error {
	if p.beepPath != "" {
		return os.RemoveAll(filepath.Dir(p.beepPath))
	}
	return nil
}

func (p *Player) beep() (string, error) {
	p.beepOnce.Do(func() {
		dir, err := os.MkdirTemp("", "phoneguard-")
		if err != nil {
			p.beepErr = err
			return
		}
		path := filepath.Join(dir, "beep.wav")
		if err := os.WriteFile(path, BeepWAV(), 0o600); err != nil {
			p.beepErr = err
			return
		}
		p.beepPath = path
	})
	return p.beepPath, p.beepErr
}

// Alarm runs a Sound in the background between Start and Stop.
type Alarm struct {
	sound  Sound
	logger *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewAlarm wraps sound. A nil sound makes Start and Stop no-ops.
func NewAlarm(sound Sound, logger *slog.Logger) *Alarm {
	if logger == nil {
		logger = log.L()
	}
	return &Alarm{sound: sound, logger: logger.With("component", "alarm")}
}

// Start begins playback unless it is already running.
func (a *Alarm) Start(ctx context.Context) {
	if a.sound == nil {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	a.cancel = cancel
	a.done = done

	go func() {
		defer close(done)
		if err := a.sound.Play(ctx); err != nil {
			a.logger.Warn("alert sound failed", "error", err)
		}
	}()
}

// Stop ends playback and waits up to a second for the player to exit.
func (a *Alarm) Stop() {
	a.mu.Lock()
	cancel, done := a.cancel, a.done
	a.cancel, a.done = nil, nil
	a.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		a.logger.Warn("alert sound did not stop in time")
	}
}

// Playing reports whether Start has been called without a matching Stop.
func (a *Alarm) Playing() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.cancel != nil
}
