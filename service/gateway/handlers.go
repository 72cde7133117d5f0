package gateway

import (
	"EduChat/tools/decode"
	"EduChat/tools/errs"
)

// Event handlers. Each is a pure function of (connection, payload) against
// the registry; none of them persists anything — typing and presence are
// ephemeral by contract.

func handleJoinChat(s *Server, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[RoomPayload](data)
	if err != nil || p.ChatID == "" {
		return errs.ErrArgs.WithDetail("joinChat requires chatId")
	}
	s.reg.Join(p.ChatID, c)
	return nil
}

func handleLeaveChat(s *Server, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[RoomPayload](data)
	if err != nil || p.ChatID == "" {
		return errs.ErrArgs.WithDetail("leaveChat requires chatId")
	}
	s.reg.Leave(p.ChatID, c)
	return nil
}

// typing relays to everyone else in the room; the emitting connection is
// excluded, the emitter's other devices are not.
func handleTyping(s *Server, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[RoomPayload](data)
	if err != nil || p.ChatID == "" {
		return errs.ErrArgs.WithDetail("typing requires chatId")
	}
	s.RelayRoom(p.ChatID, c.ConnID, EvtUserTyping, TypingEvent{
		ChatID:   p.ChatID,
		UserID:   c.UserID,
		UserName: c.Name,
	})
	return nil
}

func handleStopTyping(s *Server, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[RoomPayload](data)
	if err != nil || p.ChatID == "" {
		return errs.ErrArgs.WithDetail("stopTyping requires chatId")
	}
	s.RelayRoom(p.ChatID, c.ConnID, EvtUserStoppedTyping, TypingEvent{
		ChatID: p.ChatID,
		UserID: c.UserID,
	})
	return nil
}

func handleSetPresence(s *Server, c *Client, data map[string]any) error {
	p, err := decode.DecodeMap[PresencePayload](data)
	if err != nil || p.Status == "" {
		return errs.ErrArgs.WithDetail("setPresence requires status")
	}
	s.PresenceChanged(c.UserID, p.Status)
	return nil
}

func registerHandlers(d *Dispatcher) {
	d.Register(EvtJoinChat, handleJoinChat)
	d.Register(EvtLeaveChat, handleLeaveChat)
	d.Register(EvtTyping, handleTyping)
	d.Register(EvtStopTyping, handleStopTyping)
	d.Register(EvtSetPresence, handleSetPresence)
}
