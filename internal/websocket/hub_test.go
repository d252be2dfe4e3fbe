package websocket

import (
	"bytes"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/thiago536/basedeconhecimento-atual-11-06--sub000/internal/metrics"
)

func newTestHub() *Hub {
	return NewHub(metrics.New(), zerolog.New(&bytes.Buffer{}))
}

func newTestClient(hub *Hub, id string, buffer int) *Client {
	return &Client{
		id:   id,
		hub:  hub,
		send: make(chan []byte, buffer),
	}
}

func receive(t *testing.T, c *Client) string {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatalf("%s: send channel closed", c.id)
		}
		return string(msg)
	case <-time.After(200 * time.Millisecond):
		t.Fatalf("%s did not receive a message", c.id)
	}
	return ""
}

func TestNewHub(t *testing.T) {
	hub := newTestHub()

	if hub.clients == nil {
		t.Error("expected clients map to be initialized")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("expected hub channels to be initialized")
	}
	if hub.latest != nil {
		t.Error("expected no snapshot before the first broadcast")
	}
}

func TestHubClientCount(t *testing.T) {
	hub := newTestHub()

	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.ClientCount())
	}

	hub.mu.Lock()
	hub.clients[&Client{id: "test1"}] = true
	hub.clients[&Client{id: "test2"}] = true
	hub.mu.Unlock()

	if hub.ClientCount() != 2 {
		t.Errorf("expected 2 clients, got %d", hub.ClientCount())
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := newTestHub()
	go hub.Run()

	client := newTestClient(hub, "test-client", 1)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 1 {
		t.Errorf("expected 1 client after register, got %d", hub.ClientCount())
	}

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)
	if hub.ClientCount() != 0 {
		t.Errorf("expected 0 clients after unregister, got %d", hub.ClientCount())
	}

	if _, ok := <-client.send; ok {
		t.Error("expected send channel to be closed on unregister")
	}
}

func TestHubBroadcastToMultipleClients(t *testing.T) {
	hub := newTestHub()
	go hub.Run()

	client1 := newTestClient(hub, "client1", 10)
	client2 := newTestClient(hub, "client2", 10)
	hub.register <- client1
	hub.register <- client2
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast([]byte(`{"type":"dashboard_snapshot"}`))

	for _, c := range []*Client{client1, client2} {
		if got := receive(t, c); got != `{"type":"dashboard_snapshot"}` {
			t.Errorf("%s got %s", c.id, got)
		}
	}
}

func TestHubReplaysLatestSnapshot(t *testing.T) {
	hub := newTestHub()
	go hub.Run()

	hub.Broadcast([]byte("first"))
	hub.Broadcast([]byte("second"))
	time.Sleep(10 * time.Millisecond)

	late := newTestClient(hub, "late", 4)
	hub.register <- late

	if got := receive(t, late); got != "second" {
		t.Errorf("expected the latest snapshot on connect, got %s", got)
	}
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := newTestHub()
	go hub.Run()

	slow := newTestClient(hub, "slow", 1)
	hub.register <- slow
	time.Sleep(10 * time.Millisecond)

	hub.Broadcast([]byte("one"))
	hub.Broadcast([]byte("two"))
	time.Sleep(20 * time.Millisecond)

	if hub.ClientCount() != 0 {
		t.Errorf("expected slow client to be removed, got %d clients", hub.ClientCount())
	}
}
