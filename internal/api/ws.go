package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"nhooyr.io/websocket"

	"github.com/mohammad-sahal/chat-app/internal/hub"
)

const sendBufferSize = 256

// wsConn adapts one websocket to the hub.Conn contract. All writes go
// through the buffered send channel and a single writer goroutine, which
// preserves per-connection delivery order; Send never blocks the caller.
type wsConn struct {
	id   string
	sock *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newWSConn(sock *websocket.Conn) *wsConn {
	return &wsConn{
		id:   uuid.New().String(),
		sock: sock,
		send: make(chan []byte, sendBufferSize),
		done: make(chan struct{}),
	}
}

func (c *wsConn) ID() string {
	return c.id
}

func (c *wsConn) Send(event hub.Event) bool {
	data, err := json.Marshal(event)
	if err != nil {
		return false
	}
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- data:
		return true
	default:
		// Buffer full: drop rather than block the dispatcher.
		return false
	}
}

func (c *wsConn) shutdown() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *wsConn) writeLoop(ctx context.Context) {
	for {
		select {
		case data := <-c.send:
			if err := c.sock.Write(ctx, websocket.MessageText, data); err != nil {
				slog.Debug("websocket write failed", "conn", c.id, "err", err)
				c.shutdown()
				return
			}
		case <-c.done:
			return
		case <-ctx.Done():
			return
		}
	}
}

// handleWebSocket authenticates and upgrades a connection, then pumps
// inbound frames through the event router until the socket closes. The
// deferred teardown runs the registry/room/call cleanup exactly once per
// connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		token = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	}
	userID, err := s.auth.VerifyToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	sock, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer sock.Close(websocket.StatusNormalClosure, "")

	conn := newWSConn(sock)
	slog.Info("websocket connected", "userId", userID, "conn", conn.ID())

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	go conn.writeLoop(ctx)

	defer func() {
		conn.shutdown()
		// Teardown uses a fresh context: the request context is already
		// canceled when the socket drops.
		s.events.HandleDisconnect(context.Background(), conn)
		slog.Info("websocket disconnected", "userId", userID, "conn", conn.ID())
	}()

	for {
		msgType, data, err := sock.Read(ctx)
		if err != nil {
			return
		}
		if msgType != websocket.MessageText {
			continue
		}
		s.events.HandleEvent(ctx, conn, userID, data)
	}
}
