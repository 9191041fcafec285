package websocket

import (
	"testing"
	"time"
)

// echoHandler replies to every inbound message on the manager loop, the same
// shape the schedule handler uses for snapshots and pongs.
type echoHandler struct {
	manager *Manager
}

func (h *echoHandler) HandleWebSocketMessage(client *Client, msg *Message) error {
	return h.manager.SendToClient(client.ID, msg)
}

func waitForClients(t *testing.T, m *Manager, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if m.ClientCount() == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected %d clients, got %d", want, m.ClientCount())
}

func TestSendToClient_FullBufferDoesNotStallManager(t *testing.T) {
	manager := NewManager(time.Second, time.Second, time.Second)
	manager.SetMessageHandler(&echoHandler{manager: manager})
	go manager.Run()

	slow := NewClient("slow", "staff-1", nil, manager)
	manager.Register <- slow
	waitForClients(t, manager, 1)

	// No write pump is draining this client, so its buffer saturates.
	for i := 0; i < cap(slow.Send); i++ {
		slow.Send <- []byte("backlog")
	}

	// The reply to this message hits the full buffer from the manager's own
	// goroutine.
	manager.HandleMessage <- &ClientMessage{
		Client:  slow,
		Message: []byte(`{"type":"ping"}`),
	}

	registered := make(chan struct{})
	go func() {
		manager.Register <- NewClient("next", "staff-2", nil, manager)
		close(registered)
	}()

	select {
	case <-registered:
	case <-time.After(2 * time.Second):
		t.Fatal("manager stopped accepting registrations after a reply hit a full send buffer")
	}
	waitForClients(t, manager, 2)

	if len(slow.Send) != cap(slow.Send) {
		t.Fatalf("expected the reply to be dropped, buffer went from %d to %d", cap(slow.Send), len(slow.Send))
	}
}

func TestSendToClient_UnknownClientIsNoOp(t *testing.T) {
	manager := NewManager(time.Second, time.Second, time.Second)

	msg, err := NewMessage(TypePong, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := manager.SendToClient("nobody", msg); err != nil {
		t.Fatalf("expected nil for an unknown client, got %v", err)
	}
}
