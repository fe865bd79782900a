package server

import (
	"strings"
	"testing"
	"time"
)

func TestBroadcastSkipsStalledClient(t *testing.T) {
	m := NewSSEManager()

	// An unbuffered channel nobody reads models a stalled connection.
	stalled := &SSEClient{Messages: make(chan string)}
	healthy := &SSEClient{Messages: make(chan string, 8)}
	m.Register(stalled)
	m.Register(healthy)

	done := make(chan struct{})
	go func() {
		m.SendToAll("status", map[string]int{"active": 1})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a stalled client")
	}

	select {
	case msg := <-healthy.Messages:
		if !strings.Contains(msg, "event: status") {
			t.Errorf("unexpected message: %q", msg)
		}
	default:
		t.Error("healthy client did not receive the update")
	}

	m.Unregister(stalled)
	m.Unregister(healthy)
}
