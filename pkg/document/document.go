// Package document implements the authoritative shared state of a room: a
// flat key/value store with last-write-wins semantics. Values are opaque to
// the server; clients own the schema.
package document

import (
	"encoding/json"
	"time"

	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/protocol"
)

// Store holds the merged document of one room.
//
// Store is not safe for concurrent use; the owning room serializes access.
type Store struct {
	entries    map[string]json.RawMessage
	lastUpdate time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{entries: make(map[string]json.RawMessage)}
}

// Load creates a Store pre-populated from a snapshot, e.g. one read back
// from the persistence collaborator.
func Load(snapshot map[string]json.RawMessage) *Store {
	s := New()
	for key, value := range snapshot {
		s.entries[key] = value
	}
	return s
}

// Apply merges one batch of change sets in order. Added and Updated entries
// overwrite the keyed value; Removed keys are deleted. Applying the same
// batch twice yields the same document, since every operation is an
// overwrite or delete per key.
func (s *Store) Apply(changes []protocol.ChangeSet) {
	for _, change := range changes {
		for key, value := range change.Added {
			s.entries[key] = value
		}
		for key, value := range change.Updated {
			s.entries[key] = value
		}
		for _, key := range change.Removed {
			delete(s.entries, key)
		}
	}
	s.lastUpdate = time.Now()
}

// Snapshot returns a copy of the current document. The copy is safe to hand
// to encoders after the room lock is released.
func (s *Store) Snapshot() map[string]json.RawMessage {
	snapshot := make(map[string]json.RawMessage, len(s.entries))
	for key, value := range s.entries {
		snapshot[key] = value
	}
	return snapshot
}

// Get returns the value stored under key, or nil if absent.
func (s *Store) Get(key string) json.RawMessage {
	return s.entries[key]
}

// Len returns the number of keyed entries.
func (s *Store) Len() int {
	return len(s.entries)
}

// LastUpdate reports when the document last changed. Diagnostic only; it
// plays no part in ordering or conflict resolution.
func (s *Store) LastUpdate() time.Time {
	return s.lastUpdate
}
