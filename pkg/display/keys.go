// Package display shows the preview and alert windows on the desktop and
// turns key presses and closed windows into user actions.
package display

import (
	"strings"

	"github.com/teslashibe/phoneguard/pkg/focus"
)

// Action is a user request coming from the windows.
type Action int

const (
	ActionNone Action = iota
	ActionDismiss
	ActionNext
	ActionQuit
)

func (a Action) String() string {
	switch a {
	case ActionDismiss:
		return "dismiss"
	case ActionNext:
		return "next"
	case ActionQuit:
		return "quit"
	default:
		return "none"
	}
}

// KeyEscape is the code WaitKey returns for ESC.
const KeyEscape = 27

// Keymap maps key codes to actions.
type Keymap struct {
	QuitKey byte // Quits while monitoring
}

// NewKeymap uses the first character of quitKey, defaulting to 'q'.
func NewKeymap(quitKey string) Keymap {
	quitKey = strings.ToLower(quitKey)
	if quitKey == "" {
		return Keymap{QuitKey: 'q'}
	}
	return Keymap{QuitKey: quitKey[0]}
}

// Action maps a WaitKey result to an action for the given mode. A negative
// key means no key was pressed.
//
// Alert window: q or ESC and w dismiss, d quits, n shows the next image.
func (k Keymap) Action(mode focus.Mode, key int) Action {
	if key < 0 {
		return ActionNone
	}
	key &= 0xFF
	if 'A' <= key && key <= 'Z' {
		key += 'a' - 'A'
	}

	if mode == focus.Monitoring {
		if key == int(k.QuitKey) {
			return ActionQuit
		}
		return ActionNone
	}

	switch key {
	case 'q', 'w', KeyEscape:
		return ActionDismiss
	case 'd':
		return ActionQuit
	case 'n':
		return ActionNext
	}
	return ActionNone
}

// Closed maps closed windows to an action. Closing the preview window quits
// in any mode; closing the alert window quits the alert with "done for the
// day".
func Closed(mode focus.Mode, previewOpen, alertOpen bool) Action {
	if !previewOpen {
		return ActionQuit
	}
	if mode == focus.Alerting && !alertOpen {
		return ActionQuit
	}
	return ActionNone
}
