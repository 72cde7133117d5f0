package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"EduChat/logger"
	midsec "EduChat/middleware/security"
	"EduChat/service/storage"
	"EduChat/tools/ids"
	"EduChat/tools/safe"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxFrameBytes bounds a single inbound frame; control events are tiny,
	// so anything near this size is abuse and closes the connection.
	maxFrameBytes = 64 << 10
)

// HandleWS is the /ws endpoint. The handshake fails closed: the credential
// is verified before the upgrade completes, so an unauthenticated peer
// never reaches the event loop and never emits presence.
func (s *Server) HandleWS(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		token = midsec.BearerToken(c.GetHeader)
	}
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	principal, err := s.resolver.ResolvePrincipal(c.Request.Context(), token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication failed"})
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[gateway] upgrade failed: %v", err)
		return
	}
	ws.SetReadLimit(maxFrameBytes)

	client := NewClient("conn_"+ids.GenerateString(), principal.UserID, principal.DisplayName(), ws, s.conf.SendQueueSize)
	s.reg.Add(client)
	safe.SafeGo(client.writePump)

	// presence: durable key + global online event
	{
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := storage.PresenceOnline(ctx, client.UserID, s.conf.NodeID, presenceTTL); err != nil {
			logger.Warnf("[gateway] presence online user=%s err=%v", client.UserID, err)
		}
		cancel()
	}
	s.PresenceChanged(client.UserID, "online")
	client.TrySend(BuildEvent(EvtConnected, ConnectedEvent{
		ConnID: client.ConnID,
		UserID: client.UserID,
		NodeID: s.conf.NodeID,
	}))
	logger.Infof("[gateway] connected conn=%s user=%s", client.ConnID, client.UserID)

	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	_ = ws.SetReadDeadline(time.Now().Add(pongWait))
	stopPing := make(chan struct{})
	safe.SafeGo(func() { s.pingLoop(ws, stopPing) })

	// read loop: parse, dispatch, next. A bad frame is logged and skipped;
	// a transport error ends the session.
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[gateway] peer closed conn=%s", client.ConnID)
			} else {
				logger.Infof("[gateway] read err conn=%s err=%v", client.ConnID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			logger.Debugf("[gateway] bad frame conn=%s err=%v len=%d", client.ConnID, perr, len(data))
			continue
		}
		if err := s.disp.Dispatch(s, client, frame); err != nil {
			logger.Debugf("[gateway] event=%s conn=%s err=%v", frame.Event, client.ConnID, err)
		}
	}

	close(stopPing)
	s.onDisconnect(client)
}

func (s *Server) pingLoop(ws *websocket.Conn, stop <-chan struct{}) {
	t := time.NewTicker(pingPeriod)
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			if err := ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}
