package gateway

import (
	"encoding/json"
	"fmt"
)

// Client -> server events.
const (
	EvtJoinChat    = "joinChat"
	EvtLeaveChat   = "leaveChat"
	EvtTyping      = "typing"
	EvtStopTyping  = "stopTyping"
	EvtSetPresence = "setPresence"
)

// Server -> client events.
const (
	EvtConnected         = "connected"
	EvtNewMessage        = "newMessage"
	EvtMessageEdited     = "messageEdited"
	EvtUserTyping        = "userTyping"
	EvtUserStoppedTyping = "userStoppedTyping"
	EvtPresenceUpdate    = "userPresenceUpdate"
)

// Frame is the wire shape in both directions: {"event": ..., "data": ...}.
// Inbound data stays a raw map until the event's handler decodes it into
// its own payload type.
type Frame struct {
	Event string         `json:"event"`
	Data  map[string]any `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("unmarshal frame: %w", err)
	}
	if f.Event == "" {
		return nil, fmt.Errorf("frame missing event")
	}
	return &f, nil
}

// BuildEvent encodes an outbound frame. Data must be JSON-encodable; a
// failure here is a programming error and returns nil, which Broadcast
// ignores.
func BuildEvent(event string, data any) []byte {
	b, err := json.Marshal(struct {
		Event string `json:"event"`
		Data  any    `json:"data,omitempty"`
	}{Event: event, Data: data})
	if err != nil {
		return nil
	}
	return b
}

// Inbound payloads.

type RoomPayload struct {
	ChatID string `json:"chatId"`
}

type PresencePayload struct {
	Status string `json:"status"`
}

// Outbound payloads.

type TypingEvent struct {
	ChatID   string `json:"chatId"`
	UserID   string `json:"userId"`
	UserName string `json:"userName,omitempty"`
}

type PresenceEvent struct {
	UserID string `json:"userId"`
	Status string `json:"status"`
}

type ConnectedEvent struct {
	ConnID string `json:"connId"`
	UserID string `json:"userId"`
	NodeID string `json:"nodeId"`
}
