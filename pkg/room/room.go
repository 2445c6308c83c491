package room

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/document"
	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/protocol"
)

// ErrRoomClosed is returned when attaching to a room that has already been
// reclaimed. Callers should re-resolve the room through the registry.
var ErrRoomClosed = errors.New("room: closed")

// Observer receives lifecycle events emitted by a room. The registry is the
// primary observer; tests substitute recorders.
type Observer interface {
	// SessionAdded fires after a session attaches. count is the session
	// count including the new session.
	SessionAdded(roomID, sessionID string, count int)

	// SessionRemoved fires after a session detaches. remaining is the
	// session count at the time of removal; zero makes the room eligible
	// for reclamation.
	SessionRemoved(roomID, sessionID string, remaining int)

	// DataChanged fires after an update was merged into the room document.
	DataChanged(roomID string)
}

// Room is the unit of isolation: every session attached under the same id
// sees each other's updates and nobody else's. The session set and document
// are guarded by a single per-room mutex; rooms are fully independent.
type Room struct {
	id string

	mu       sync.Mutex
	sessions map[string]*Session
	doc      *document.Store
	closed   bool

	observer Observer
	config   *Config
	logger   *slog.Logger
}

func newRoom(id string, doc *document.Store, observer Observer, config *Config, logger *slog.Logger) *Room {
	return &Room{
		id:       id,
		sessions: make(map[string]*Session),
		doc:      doc,
		observer: observer,
		config:   config,
		logger:   logger.With("component", "room", "room_id", id),
	}
}

// ID returns the room identifier.
func (r *Room) ID() string {
	return r.id
}

// SessionCount returns the number of attached sessions.
func (r *Room) SessionCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Attach binds a connection to this room and queues the initial frames: a
// connect message, then the document snapshot if the room is non-empty.
// Both are queued before the session becomes visible to broadcasts, so
// snapshot delivery happens-before any relayed update reaches the session.
//
// The caller must Start the returned session to begin its loops.
func (r *Room) Attach(conn Conn, logger *slog.Logger) (*Session, error) {
	session := newSession(r, conn, r.config, logger)

	connectFrame, err := protocol.EncodeConnect(r.id, session.ID)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, ErrRoomClosed
	}

	session.send <- connectFrame
	if r.doc.Len() > 0 {
		stateFrame, err := protocol.EncodeDocumentState(r.doc.Snapshot())
		if err != nil {
			r.mu.Unlock()
			return nil, err
		}
		session.send <- stateFrame
	}
	r.sessions[session.ID] = session
	count := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info("session attached", "session_id", session.ID, "sessions", count)
	if r.observer != nil {
		r.observer.SessionAdded(r.id, session.ID, count)
	}
	return session, nil
}

// detach removes a closed session and notifies the observer. Called from
// Session.Close; never invoked with the room lock held by the caller.
func (r *Room) detach(s *Session) {
	r.mu.Lock()
	if _, ok := r.sessions[s.ID]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.sessions, s.ID)
	remaining := len(r.sessions)
	r.mu.Unlock()

	r.logger.Info("session detached", "session_id", s.ID, "sessions", remaining)
	if r.observer != nil {
		r.observer.SessionRemoved(r.id, s.ID, remaining)
	}
}

// ApplyAndBroadcast merges a document-update into the room document (other
// types are relayed as-is) and fans the original frame out to every
// attached session except the origin. Per-peer delivery failures are logged
// and isolated; they never abort the broadcast or affect the sender.
func (r *Room) ApplyAndBroadcast(origin *Session, msgType string, frame []byte) {
	dataChanged := false

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}

	if msgType == protocol.TypeDocumentUpdate {
		update, err := protocol.DecodeDocumentUpdate(frame)
		if err != nil {
			r.mu.Unlock()
			r.logger.Warn("dropping unparseable document-update",
				"session_id", origin.ID, "error", err)
			return
		}
		r.doc.Apply(update.Changes)
		dataChanged = true
	}

	for id, peer := range r.sessions {
		if peer == origin {
			continue
		}
		if err := peer.Enqueue(frame); err != nil {
			r.logger.Warn("peer delivery failed",
				"peer_id", id, "error", err)
		}
	}
	r.mu.Unlock()

	if dataChanged && r.observer != nil {
		r.observer.DataChanged(r.id)
	}
}

// Snapshot returns a copy of the current room document.
func (r *Room) Snapshot() map[string]json.RawMessage {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.Snapshot()
}

// LastUpdate reports when the room document last changed.
func (r *Room) LastUpdate() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doc.LastUpdate()
}

// close marks the room reclaimed and returns the sessions that were still
// attached, if any. Further Attach calls fail with ErrRoomClosed.
func (r *Room) close() []*Session {
	r.mu.Lock()
	r.closed = true
	remaining := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		remaining = append(remaining, s)
	}
	r.mu.Unlock()
	return remaining
}
