package websocket

import (
	"encoding/json"
	"time"

	"salon-sync-server/internal/domain"
)

type MessageType string

const (
	// TypeWatchRequest (re)subscribes the connection to a date range; a second
	// request on the same connection replaces the first.
	TypeWatchRequest MessageType = "watch_request"
	// TypeScheduleSnapshot carries the full current set for the watched range.
	TypeScheduleSnapshot MessageType = "schedule_snapshot"
	TypeError            MessageType = "error"
	TypePing             MessageType = "ping"
	TypePong             MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type WatchRequestPayload struct {
	// Date is shorthand for a one-day range; Start/End take precedence.
	Date  string `json:"date,omitempty"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
}

type ScheduleSnapshotPayload struct {
	Start        string                `json:"start"`
	End          string                `json:"end"`
	Reservations []*domain.Reservation `json:"reservations"`
	AsOf         time.Time             `json:"as_of"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}
