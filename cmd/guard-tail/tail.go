package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/gorilla/websocket"

	"github.com/teslashibe/phoneguard/internal/log"
)

// status is the subset of the dashboard state the tail prints.
type status struct {
	Mode       string `json:"mode"`
	Count      int    `json:"count"`
	Threshold  int    `json:"threshold"`
	Terminated bool   `json:"terminated"`
	Warning    string `json:"warning"`
	UpdatedAt  string `json:"updated_at"`
	Alert      *struct {
		SessionID string `json:"session_id"`
		Images    int    `json:"images"`
		Index     int    `json:"index"`
		Outcome   string `json:"outcome"`
	} `json:"alert"`
}

// Tail prints status changes from a phoneguard status websocket.
type Tail struct {
	URL   string
	Raw   bool
	Out   io.Writer
	Retry time.Duration

	last string
}

// Run follows the feed until ctx is done, the detector terminates, or the
// connection drops and Retry is zero.
func (t *Tail) Run(ctx context.Context) error {
	for {
		done, err := t.follow(ctx)
		if done || ctx.Err() != nil {
			return nil
		}
		if t.Retry <= 0 {
			return err
		}
		log.Warn("status feed lost, reconnecting", "url", t.URL, "error", err)
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(t.Retry):
		}
	}
}

// follow reads one connection. It reports done once the detector has
// terminated.
func (t *Tail) follow(ctx context.Context) (bool, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	ws, _, err := dialer.DialContext(ctx, t.URL, nil)
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", t.URL, err)
	}
	defer ws.Close()

	go func() {
		<-ctx.Done()
		ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		ws.Close()
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return false, err
		}
		var st status
		if err := json.Unmarshal(data, &st); err != nil {
			log.Debug("skipping message", "error", err)
			continue
		}
		if t.Raw {
			fmt.Fprintln(t.Out, string(data))
		} else if line := Format(st); line != t.last {
			fmt.Fprintln(t.Out, line)
			t.last = line
		}
		if st.Terminated {
			return true, nil
		}
	}
}

// Format renders a status as one line.
func Format(st status) string {
	switch {
	case st.Terminated:
		return "terminated"
	case st.Mode == "alerting" && st.Alert != nil:
		return fmt.Sprintf("ALERT   image %d/%d (%s) session %s", st.Alert.Index+1, st.Alert.Images, st.Alert.Outcome, st.Alert.SessionID)
	case st.Warning != "":
		return fmt.Sprintf("monitor %d/%d  warning: %s", st.Count, st.Threshold, st.Warning)
	default:
		return fmt.Sprintf("monitor %d/%d", st.Count, st.Threshold)
	}
}
