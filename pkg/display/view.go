package display

import (
	"image"

	"github.com/teslashibe/phoneguard/pkg/focus"
)

// View is what the windows should show right now. Seq fields change
// whenever the matching frame does, so unchanged frames are not redrawn.
type View struct {
	Mode       focus.Mode
	Preview    []byte // Annotated camera frame, JPEG
	PreviewSeq uint64
	Alert      image.Image // Rendered alert frame, nil while monitoring
	AlertSeq   uint64
}

// Handler receives the user's actions.
type Handler interface {
	Dismiss() bool
	Next() bool
	Quit()
}

// Source supplies views and handles actions.
type Source interface {
	Handler
	View() View
}

// Dispatch forwards a to h.
func Dispatch(h Handler, a Action) {
	switch a {
	case ActionDismiss:
		h.Dismiss()
	case ActionNext:
		h.Next()
	case ActionQuit:
		h.Quit()
	}
}
