package api

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/comigor/chatsim-go/internal/conversation"
	"github.com/comigor/chatsim-go/internal/logger"
)

const wsWriteTimeout = 10 * time.Second

// handleWS streams a snapshot on connect and after every store change, so a
// renderer can simply redraw whatever it last received.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.L.Error("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	// Coalescing signal: one pending redraw is enough.
	dirty := make(chan struct{}, 1)
	unsubscribe := s.store.Subscribe(func(conversation.Event) {
		select {
		case dirty <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					logger.L.Warn("websocket read error", "error", err)
				}
				return
			}
		}
	}()

	logger.L.Info("websocket client connected", "remote", r.RemoteAddr)
	if !s.writeSnapshot(conn) {
		return
	}
	for {
		select {
		case <-closed:
			logger.L.Info("websocket client disconnected", "remote", r.RemoteAddr)
			return
		case <-r.Context().Done():
			return
		case <-dirty:
			if !s.writeSnapshot(conn) {
				return
			}
		}
	}
}

func (s *Server) writeSnapshot(conn *websocket.Conn) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(s.store.Snapshot()); err != nil {
		logger.L.Debug("websocket write failed", "error", err)
		return false
	}
	return true
}
