package gateway

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	usermodel "EduChat/module/user/model"
	"EduChat/tools/errs"
)

type rejectAllResolver struct{}

func (rejectAllResolver) ResolvePrincipal(ctx context.Context, token string) (*usermodel.User, error) {
	return nil, errs.ErrTokenInvalid
}

func TestHandshakeFailsClosed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(Config{NodeID: "gw-test"}, rejectAllResolver{}, nil)
	engine := gin.New()
	engine.GET("/ws", s.HandleWS)

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: got %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws?token=bogus", nil)
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: got %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	w = httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad bearer: got %d, want 401", w.Code)
	}

	// rejected peers never reach the registry
	if got := len(s.reg.AllClients()); got != 0 {
		t.Fatalf("registry holds %d clients after rejected handshakes", got)
	}
}

type staticResolver struct {
	u *usermodel.User
}

func (r staticResolver) ResolvePrincipal(ctx context.Context, token string) (*usermodel.User, error) {
	return r.u, nil
}

func TestOversizedFrameClosesConnection(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := NewServer(Config{NodeID: "gw-test"}, staticResolver{&usermodel.User{UserID: "u_a", FirstName: "A"}}, nil)
	engine := gin.New()
	engine.GET("/ws", s.HandleWS)
	srv := httptest.NewServer(engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=ok"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	huge := make([]byte, maxFrameBytes+1024)
	for i := range huge {
		huge[i] = 'a'
	}
	if err := conn.WriteMessage(websocket.TextMessage, huge); err != nil {
		t.Fatalf("write: %v", err)
	}

	// drain the connected ack and any presence frames until the close
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		if _, _, err = conn.ReadMessage(); err != nil {
			break
		}
	}
	if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
		t.Fatal("connection stayed open after oversized frame")
	}
	if ce, ok := err.(*websocket.CloseError); ok && ce.Code != websocket.CloseMessageTooBig {
		t.Fatalf("close code = %d, want %d", ce.Code, websocket.CloseMessageTooBig)
	}
}
