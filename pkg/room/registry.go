package room

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/document"
)

// SnapshotStore persists room documents across room lifetimes. A room
// recreated after reclamation starts from its last persisted snapshot.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, roomID string, data map[string]json.RawMessage) error
	LoadSnapshot(ctx context.Context, roomID string) (map[string]json.RawMessage, error)
}

// Hooks are optional lifecycle callbacks, used by the server layer to keep
// gauges and counters current. Nil hooks are skipped.
type Hooks struct {
	RoomCreated     func(roomID string)
	RoomReclaimed   func(roomID string)
	SessionAttached func(roomID string)
	SessionDetached func(roomID string)
	DataChanged     func(roomID string)
}

// Registry is the process-wide room map. It creates rooms lazily on first
// reference and reclaims them once empty, immediately or after the
// configured grace period. It is an explicit service object: construct one
// per server, tear it down with Shutdown.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room

	config    *Config
	snapshots SnapshotStore
	hooks     Hooks
	logger    *slog.Logger
}

// NewRegistry creates a Registry. snapshots may be nil, in which case room
// documents live only as long as the room does.
func NewRegistry(config *Config, snapshots SnapshotStore, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		rooms:     make(map[string]*Room),
		config:    config.withDefaults(),
		snapshots: snapshots,
		logger:    logger.With("component", "registry"),
	}
}

// SetHooks installs lifecycle callbacks. Call before serving traffic.
func (reg *Registry) SetHooks(hooks Hooks) {
	reg.hooks = hooks
}

// GetOrCreate returns the room for roomID, constructing it on first
// reference. Concurrent callers for the same id observe a single room.
func (reg *Registry) GetOrCreate(roomID string) *Room {
	reg.mu.Lock()
	if r, ok := reg.rooms[roomID]; ok {
		reg.mu.Unlock()
		return r
	}

	doc := document.New()
	if reg.snapshots != nil {
		snap, err := reg.snapshots.LoadSnapshot(context.Background(), roomID)
		switch {
		case err != nil:
			reg.logger.Warn("snapshot load failed, starting empty",
				"room_id", roomID, "error", err)
		case len(snap) > 0:
			doc = document.Load(snap)
			reg.logger.Info("room restored from snapshot",
				"room_id", roomID, "entries", len(snap))
		}
	}

	r := newRoom(roomID, doc, reg, reg.config, reg.logger)
	reg.rooms[roomID] = r
	count := len(reg.rooms)
	reg.mu.Unlock()

	reg.logger.Info("room created", "room_id", roomID, "active_rooms", count)
	if reg.hooks.RoomCreated != nil {
		reg.hooks.RoomCreated(roomID)
	}
	return r
}

// Get returns the room for roomID, or nil if none exists.
func (reg *Registry) Get(roomID string) *Room {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return reg.rooms[roomID]
}

// Size returns the number of live rooms, exposed via the health endpoint.
func (reg *Registry) Size() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.rooms)
}

// SessionAdded implements Observer.
func (reg *Registry) SessionAdded(roomID, sessionID string, count int) {
	if reg.hooks.SessionAttached != nil {
		reg.hooks.SessionAttached(roomID)
	}
}

// SessionRemoved implements Observer. A room that reaches zero sessions is
// reclaimed, either immediately or after the grace period with a re-check,
// so a quick refresh does not throw the shared document away.
func (reg *Registry) SessionRemoved(roomID, sessionID string, remaining int) {
	if reg.hooks.SessionDetached != nil {
		reg.hooks.SessionDetached(roomID)
	}
	if remaining > 0 {
		return
	}

	if reg.config.GracePeriod <= 0 {
		reg.reclaim(roomID)
		return
	}

	reg.logger.Info("room empty, scheduling reclaim",
		"room_id", roomID, "grace", reg.config.GracePeriod)
	time.AfterFunc(reg.config.GracePeriod, func() {
		reg.reclaim(roomID)
	})
}

// DataChanged implements Observer.
func (reg *Registry) DataChanged(roomID string) {
	if reg.hooks.DataChanged != nil {
		reg.hooks.DataChanged(roomID)
	}
}

// reclaim removes a room if it is still empty. A reconnect that arrived
// during the grace window keeps the room alive.
func (reg *Registry) reclaim(roomID string) {
	reg.mu.Lock()
	r, ok := reg.rooms[roomID]
	if !ok {
		reg.mu.Unlock()
		return
	}
	if r.SessionCount() > 0 {
		reg.mu.Unlock()
		reg.logger.Info("reclaim skipped, room repopulated", "room_id", roomID)
		return
	}
	delete(reg.rooms, roomID)
	count := len(reg.rooms)
	reg.mu.Unlock()

	r.close()
	reg.persist(r)

	reg.logger.Info("room reclaimed", "room_id", roomID, "active_rooms", count)
	if reg.hooks.RoomReclaimed != nil {
		reg.hooks.RoomReclaimed(roomID)
	}
}

// persist saves the room document, if a store is configured and the room
// holds any state.
func (reg *Registry) persist(r *Room) {
	if reg.snapshots == nil {
		return
	}
	snap := r.Snapshot()
	if len(snap) == 0 {
		return
	}
	if err := reg.snapshots.SaveSnapshot(context.Background(), r.ID(), snap); err != nil {
		reg.logger.Error("snapshot save failed", "room_id", r.ID(), "error", err)
	}
}

// Shutdown drains every room: sessions receive a going-away close, room
// documents are persisted, and the registry empties. Blocks only for the
// duration of the close writes; respects ctx for snapshot persistence.
func (reg *Registry) Shutdown(ctx context.Context) error {
	reg.mu.Lock()
	rooms := make([]*Room, 0, len(reg.rooms))
	for _, r := range reg.rooms {
		rooms = append(rooms, r)
	}
	reg.rooms = make(map[string]*Room)
	reg.mu.Unlock()

	for _, r := range rooms {
		for _, s := range r.close() {
			s.CloseWithReason(1001, "server shutting down")
		}
		if reg.snapshots != nil {
			snap := r.Snapshot()
			if len(snap) == 0 {
				continue
			}
			if err := reg.snapshots.SaveSnapshot(ctx, r.ID(), snap); err != nil {
				reg.logger.Error("snapshot save failed during shutdown",
					"room_id", r.ID(), "error", err)
			}
		}
	}

	reg.logger.Info("registry shutdown complete", "rooms_drained", len(rooms))
	return nil
}
