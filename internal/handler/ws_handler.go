package handler

import (
	"log"
	"net/http"
	"time"

	"salon-sync-server/internal/domain"
	"salon-sync-server/internal/service"
	"salon-sync-server/internal/websocket"

	"github.com/google/uuid"
	ws "github.com/gorilla/websocket"
)

type WebSocketHandler struct {
	manager  *websocket.Manager
	upgrader ws.Upgrader
}

func NewWebSocketHandler(manager *websocket.Manager) *WebSocketHandler {
	return &WebSocketHandler{
		manager: manager,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
	}
}

func (h *WebSocketHandler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	staffID := r.URL.Query().Get("staff_id")
	if staffID == "" {
		staffID = "anonymous"
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[WebSocket] failed to upgrade connection: %v", err)
		return
	}

	clientID := uuid.New().String()
	client := websocket.NewClient(clientID, staffID, conn, h.manager)

	h.manager.Register <- client

	go client.WritePump()
	go client.ReadPump()
}

// ScheduleMessageHandler serves inbound watch requests: each one (re)starts
// the connection's schedule subscription, keyed by the client id, and answers
// immediately with the current snapshot so the client has state before the
// first change fires.
type ScheduleMessageHandler struct {
	reservations *service.ReservationService
	sync         *service.SyncService
	manager      *websocket.Manager
}

func NewScheduleMessageHandler(reservations *service.ReservationService, syncService *service.SyncService, manager *websocket.Manager) *ScheduleMessageHandler {
	return &ScheduleMessageHandler{
		reservations: reservations,
		sync:         syncService,
		manager:      manager,
	}
}

func (h *ScheduleMessageHandler) HandleWebSocketMessage(client *websocket.Client, msg *websocket.Message) error {
	switch msg.Type {
	case websocket.TypeWatchRequest:
		return h.handleWatchRequest(client, msg)

	case websocket.TypePing:
		return h.handlePing(client)

	default:
		log.Printf("unknown message type: %s", msg.Type)
	}

	return nil
}

func (h *ScheduleMessageHandler) handleWatchRequest(client *websocket.Client, msg *websocket.Message) error {
	var payload websocket.WatchRequestPayload
	if err := msg.UnmarshalPayload(&payload); err != nil {
		return err
	}

	start, end := payload.Start, payload.End
	if payload.Date != "" && start == "" && end == "" {
		start, end = payload.Date, payload.Date
	}

	if !validDate(start) || !validDate(end) {
		return h.sendError(client, "watch request needs dates in the form 2006-01-02")
	}

	clientID := client.ID
	err := h.sync.StartDateRangeSync(clientID, start, end, func(set []*domain.Reservation) {
		h.sendSnapshot(clientID, start, end, set)
	})
	if err != nil {
		return err
	}

	// Current state right away; the watch only fires on changes.
	set, err := h.reservations.GetByDateRange(start, end)
	if err != nil {
		return err
	}
	h.sendSnapshot(clientID, start, end, set)

	return nil
}

func (h *ScheduleMessageHandler) sendSnapshot(clientID, start, end string, set []*domain.Reservation) {
	snapshot, err := websocket.NewMessage(websocket.TypeScheduleSnapshot, &websocket.ScheduleSnapshotPayload{
		Start:        start,
		End:          end,
		Reservations: set,
		AsOf:         time.Now().UTC(),
	})
	if err != nil {
		log.Printf("failed to build snapshot message: %v", err)
		return
	}

	if err := h.manager.SendToClient(clientID, snapshot); err != nil {
		log.Printf("failed to send snapshot to %s: %v", clientID, err)
	}
}

func (h *ScheduleMessageHandler) sendError(client *websocket.Client, text string) error {
	errMsg, err := websocket.NewMessage(websocket.TypeError, &websocket.ErrorPayload{Error: text})
	if err != nil {
		return err
	}

	return h.manager.SendToClient(client.ID, errMsg)
}

func (h *ScheduleMessageHandler) handlePing(client *websocket.Client) error {
	pongMsg, err := websocket.NewMessage(websocket.TypePong, nil)
	if err != nil {
		return err
	}

	return h.manager.SendToClient(client.ID, pongMsg)
}
