package gateway

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"EduChat/logger"
)

const writeDeadline = 5 * time.Second

// Client is one authenticated connection. A user may hold several clients
// at once (multi-device); each has its own send queue drained by a single
// writer goroutine, so fan-out never blocks on a slow socket.
type Client struct {
	ConnID string
	UserID string
	Name   string // display name snapshot for typing events

	WS   *websocket.Conn
	Send chan []byte

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func NewClient(connID, userID, name string, ws *websocket.Conn, sendQueueSize int) *Client {
	return &Client{
		ConnID: connID,
		UserID: userID,
		Name:   name,
		WS:     ws,
		Send:   make(chan []byte, sendQueueSize),
	}
}

// writePump is the only goroutine writing to the socket. It exits when Send
// is closed or a write fails; either way the socket is closed.
func (c *Client) writePump() {
	defer func() { _ = c.WS.Close() }()
	for payload := range c.Send {
		_ = c.WS.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := c.WS.WriteMessage(websocket.TextMessage, payload); err != nil {
			logger.Debugf("[gateway] write failed conn=%s err=%v", c.ConnID, err)
			return
		}
	}
}

// TrySend enqueues a frame without blocking. False means the frame was
// dropped: the queue is full or the connection is already closed.
func (c *Client) TrySend(payload []byte) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return false
	}
	select {
	case c.Send <- payload:
		return true
	default:
		return false
	}
}

// Close shuts the send queue exactly once; the write pump then closes the
// socket.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()
		close(c.Send)
	})
}
