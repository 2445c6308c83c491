package server

import (
	"errors"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/room"
)

// handleSync is the connection gateway: it upgrades the request, validates
// the roomId query parameter, and hands the connection to the registry.
// A missing roomId is a protocol violation: the socket is closed with 1008
// and no session or room is created.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	roomID := r.URL.Query().Get("roomId")

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	if roomID == "" {
		s.logger.Warn("rejecting connection without roomId")
		s.metrics.RejectedConnections.Inc()
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "Room ID required"))
		conn.Close()
		return
	}

	// A room can be reclaimed between lookup and attach; re-resolve until
	// the attach lands in a live room.
	var session *room.Session
	for {
		rm := s.registry.GetOrCreate(roomID)
		session, err = rm.Attach(conn, s.logger)
		if err == nil {
			break
		}
		if errors.Is(err, room.ErrRoomClosed) {
			continue
		}
		s.logger.Error("attach failed", "room_id", roomID, "error", err)
		conn.Close()
		return
	}

	session.Start()
}
