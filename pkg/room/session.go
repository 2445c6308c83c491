package room

import (
	"errors"
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/protocol"
)

// ErrSessionClosed is returned when enqueueing to a closed session.
var ErrSessionClosed = errors.New("room: session closed")

// ErrSendQueueFull is returned when a session's send queue overflows.
// The session is disconnected; the broadcast to other peers continues.
var ErrSendQueueFull = errors.New("room: send queue full")

// Session is one client's attachment to a room. It owns its connection
// exclusively and lives exactly as long as the connection does.
type Session struct {
	// ID is the process-unique session identifier, generated at attach time.
	ID string

	room   *Room
	conn   Conn
	config *Config
	logger *slog.Logger

	send      chan []byte
	done      chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once

	// writeMu serializes direct writes (close frames) with the write loop.
	writeMu sync.Mutex
}

// newSession wires a connection to a room. The session is not yet attached
// and its loops are not yet running.
func newSession(r *Room, conn Conn, config *Config, logger *slog.Logger) *Session {
	id := uuid.NewString()
	return &Session{
		ID:     id,
		room:   r,
		conn:   conn,
		config: config,
		logger: logger.With("component", "session", "session_id", id, "room_id", r.ID()),
		send:   make(chan []byte, config.SendQueueSize),
		done:   make(chan struct{}),
	}
}

// Room returns the room this session belongs to.
func (s *Session) Room() *Room {
	return s.room
}

// Start launches the read and write loops. Call after the room has attached
// the session, so the initial connect/document-state frames are already
// queued ahead of any relayed traffic.
func (s *Session) Start() {
	go s.readLoop()
	go s.writeLoop()
}

// readLoop consumes frames from the connection until it closes. Each frame
// is validated and handed to the room for merge and fan-out. A single
// malformed frame is dropped and logged; the session stays attached.
func (s *Session) readLoop() {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("read loop panic",
				"panic", r,
				"stack", string(debug.Stack()))
		}
		s.Close()
	}()

	s.conn.SetReadLimit(s.config.MaxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(s.config.PongTimeout))
	})

	for {
		_, frame, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.logger.Error("read error", "error", err)
			}
			return
		}

		msgType, err := protocol.PeekType(frame)
		if err != nil {
			// Fire-and-forget semantics: the sender gets no error frame.
			s.logger.Warn("dropping malformed frame", "error", err)
			continue
		}

		s.room.ApplyAndBroadcast(s, msgType, frame)
	}
}

// writeLoop drains the send queue and emits heartbeat pings. It exits when
// the session is closed or a write fails.
func (s *Session) writeLoop() {
	ticker := time.NewTicker(s.config.PingInterval)
	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case frame := <-s.send:
			if err := s.write(websocket.TextMessage, frame); err != nil {
				s.logger.Debug("write error", "error", err)
				return
			}

		case <-ticker.C:
			if err := s.write(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-s.done:
			return
		}
	}
}

func (s *Session) write(messageType int, data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	return s.conn.WriteMessage(messageType, data)
}

// Enqueue queues a frame for delivery. It never blocks: a full queue means
// this peer cannot keep up, and the session is closed so the broadcast to
// the remaining peers proceeds unimpeded.
func (s *Session) Enqueue(frame []byte) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}
	select {
	case s.send <- frame:
		return nil
	default:
		s.logger.Warn("send queue overflow, disconnecting slow peer",
			"queue_size", s.config.SendQueueSize)
		go s.Close()
		return ErrSendQueueFull
	}
}

// CloseWithReason sends a close control frame before tearing the session
// down. Used by the gateway for policy rejections and by shutdown draining.
func (s *Session) CloseWithReason(code int, reason string) {
	s.writeMu.Lock()
	s.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	s.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason))
	s.writeMu.Unlock()
	s.Close()
}

// Close tears the session down exactly once: the connection is closed, the
// loops stop, and the room is notified so it can detach the session.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.done)
		s.conn.Close()
		s.room.detach(s)
	})
}
