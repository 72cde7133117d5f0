package gateway

import (
	"fmt"
)

// HandlerFunc reacts to one inbound event: connection state in, outbound
// frames (via the server) out. Handlers never touch the chat store.
type HandlerFunc func(s *Server, c *Client, data map[string]any) error

// Dispatcher is the event table: one handler per event name, resolved per
// frame. Unknown events are an error the read loop logs and skips.
type Dispatcher struct {
	handlers map[string]HandlerFunc
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{handlers: make(map[string]HandlerFunc)}
}

func (d *Dispatcher) Register(event string, h HandlerFunc) {
	d.handlers[event] = h
}

func (d *Dispatcher) Dispatch(s *Server, c *Client, f *Frame) error {
	h, ok := d.handlers[f.Event]
	if !ok {
		return fmt.Errorf("no handler for event=%s", f.Event)
	}
	return h(s, c, f.Data)
}
