package hub

import (
	"context"
	"testing"
	"time"

	"github.com/teslashibe/phoneguard/internal/log"
)

type chanSink chan Message

func (c chanSink) Outbox() chan Message { return c }

func recv(t *testing.T, c chanSink) Message {
	t.Helper()
	select {
	case m, ok := <-c:
		if !ok {
			t.Fatal("outbox closed")
		}
		return m
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for message")
	}
	return Message{}
}

func waitClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != n {
		if time.Now().After(deadline) {
			t.Fatalf("clients: got %d, want %d", h.ClientCount(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestHub_BroadcastAndReplay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test", log.Discard())
	go h.Run(ctx)

	a := make(chanSink, 4)
	h.Register(ctx, a)
	waitClients(t, h, 1)

	if err := h.BroadcastJSON(map[string]string{"mode": "alerting"}); err != nil {
		t.Fatal(err)
	}
	if m := recv(t, a); m.Type != JSONMessage || string(m.Data) != `{"mode":"alerting"}` {
		t.Errorf("got %v %q", m.Type, m.Data)
	}

	// A late joiner gets the last message straight away.
	b := make(chanSink, 4)
	h.Register(ctx, b)
	if m := recv(t, b); string(m.Data) != `{"mode":"alerting"}` {
		t.Errorf("replay: got %q", m.Data)
	}

	if last, ok := h.Last(); !ok || last.Type != JSONMessage {
		t.Errorf("Last: got %v/%v", last, ok)
	}
}

func TestHub_UnregisterClosesOutbox(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test", log.Discard())
	go h.Run(ctx)

	a := make(chanSink, 1)
	h.Register(ctx, a)
	h.Unregister(ctx, a)

	select {
	case _, ok := <-a:
		if ok {
			t.Error("expected closed outbox")
		}
	case <-time.After(time.Second):
		t.Fatal("outbox not closed")
	}
	waitClients(t, h, 0)
}

func TestHub_DropsSlowClient(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	h := New("test", log.Discard())
	go h.Run(ctx)

	slow := make(chanSink) // unbuffered and never read
	h.Register(ctx, slow)
	waitClients(t, h, 1)

	h.BroadcastBinary([]byte{1, 2, 3})
	waitClients(t, h, 0)
}

func TestHub_StopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	h := New("test", log.Discard())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	a := make(chanSink, 1)
	h.Register(ctx, a)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
	if h.IsRunning() {
		t.Error("hub still reports running")
	}
	if _, ok := <-a; ok {
		t.Error("client outbox should be closed on shutdown")
	}
}
