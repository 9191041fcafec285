package websocket

import (
	"encoding/json"
	"log"
	"sync"
	"time"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

type MessageHandler interface {
	HandleWebSocketMessage(client *Client, msg *Message) error
}

// Manager tracks connected schedule clients. Subscription lifecycle hangs off
// it: the disconnect handler stops the client's watch before the send channel
// closes, so no snapshot is ever pushed at a dead connection.
type Manager struct {
	clients      map[string]*Client
	clientsMutex sync.RWMutex

	Register      chan *Client
	Unregister    chan *Client
	HandleMessage chan *ClientMessage

	writeWait  time.Duration
	pongWait   time.Duration
	pingPeriod time.Duration

	messageHandler    MessageHandler
	disconnectHandler func(clientID string)
}

func NewManager(writeWait, pongWait, pingPeriod time.Duration) *Manager {
	return &Manager{
		clients:       make(map[string]*Client),
		Register:      make(chan *Client),
		Unregister:    make(chan *Client),
		HandleMessage: make(chan *ClientMessage),
		writeWait:     writeWait,
		pongWait:      pongWait,
		pingPeriod:    pingPeriod,
	}
}

func (m *Manager) SetMessageHandler(handler MessageHandler) {
	m.messageHandler = handler
}

func (m *Manager) SetDisconnectHandler(handler func(clientID string)) {
	m.disconnectHandler = handler
}

func (m *Manager) Run() {
	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)
		}
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	m.clients[client.ID] = client

	log.Printf("client registered: %s (staff: %s)", client.ID, client.StaffID)
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	_, ok := m.clients[client.ID]
	if ok {
		delete(m.clients, client.ID)
	}
	m.clientsMutex.Unlock()

	if !ok {
		return
	}

	// Stop the watch first: once the handler returns no further snapshot can
	// race the channel close below.
	if m.disconnectHandler != nil {
		m.disconnectHandler(client.ID)
	}

	close(client.Send)
	log.Printf("client unregistered: %s", client.ID)
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		log.Printf("error unmarshaling message: %v", err)
		return
	}

	if m.messageHandler != nil {
		if err := m.messageHandler.HandleWebSocketMessage(clientMsg.Client, &msg); err != nil {
			log.Printf("error handling %s message: %v", msg.Type, err)
		}
	}
}

// SendToClient queues a message for one connection without ever blocking the
// caller; a full send buffer loses the message, not the manager.
func (m *Manager) SendToClient(clientID string, message *Message) error {
	m.clientsMutex.RLock()
	client, exists := m.clients[clientID]
	m.clientsMutex.RUnlock()

	if !exists {
		return nil
	}

	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	select {
	case client.Send <- messageBytes:
	default:
		// This path can run on the manager loop itself, so it must never
		// block or push an unregister back through that loop. Drop the
		// message; a dead connection is reaped by the read pump's pong
		// deadline, and the next snapshot carries the full set anyway.
		log.Printf("client %s send buffer full, dropping message", clientID)
	}

	return nil
}

func (m *Manager) ClientCount() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}
