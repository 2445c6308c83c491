package document

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/NachoEstevo/co-canvas-google-hackathon/pkg/protocol"
)

func raw(s string) json.RawMessage {
	return json.RawMessage(s)
}

func TestApplyAddUpdateRemove(t *testing.T) {
	s := New()

	s.Apply([]protocol.ChangeSet{
		{Added: map[string]json.RawMessage{
			"shape:1": raw(`{"x":1}`),
			"shape:2": raw(`{"x":2}`),
		}},
	})
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}

	s.Apply([]protocol.ChangeSet{
		{
			Updated: map[string]json.RawMessage{"shape:1": raw(`{"x":10}`)},
			Removed: []string{"shape:2"},
		},
	})
	if got := string(s.Get("shape:1")); got != `{"x":10}` {
		t.Errorf("shape:1 = %s, want {\"x\":10}", got)
	}
	if s.Get("shape:2") != nil {
		t.Error("shape:2 should be removed")
	}
	if s.Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Len())
	}
}

func TestApplyLastWriteWins(t *testing.T) {
	s := New()

	// Two clients write the same key; whichever the room serializes last
	// owns the value.
	s.Apply([]protocol.ChangeSet{
		{Added: map[string]json.RawMessage{"shape:1": raw(`{"color":"red"}`)}},
	})
	s.Apply([]protocol.ChangeSet{
		{Updated: map[string]json.RawMessage{"shape:1": raw(`{"color":"blue"}`)}},
	})

	if got := string(s.Get("shape:1")); got != `{"color":"blue"}` {
		t.Errorf("shape:1 = %s, want the later write", got)
	}
}

func TestApplyIdempotent(t *testing.T) {
	changes := []protocol.ChangeSet{
		{
			Added:   map[string]json.RawMessage{"a": raw(`1`)},
			Updated: map[string]json.RawMessage{"b": raw(`2`)},
			Removed: []string{"c"},
		},
	}

	s := New()
	s.Apply([]protocol.ChangeSet{
		{Added: map[string]json.RawMessage{"c": raw(`3`)}},
	})
	s.Apply(changes)
	first := s.Snapshot()

	s.Apply(changes)
	second := s.Snapshot()

	if !reflect.DeepEqual(first, second) {
		t.Errorf("reapplying the same batch changed the document:\nfirst  %v\nsecond %v", first, second)
	}
}

func TestApplyChangeSetsInOrder(t *testing.T) {
	s := New()
	s.Apply([]protocol.ChangeSet{
		{Added: map[string]json.RawMessage{"k": raw(`"first"`)}},
		{Updated: map[string]json.RawMessage{"k": raw(`"second"`)}},
		{Removed: []string{"k"}},
	})
	if s.Get("k") != nil {
		t.Errorf("k = %s, want removed by final change set", s.Get("k"))
	}
}

func TestRemoveAbsentKey(t *testing.T) {
	s := New()
	s.Apply([]protocol.ChangeSet{{Removed: []string{"ghost"}}})
	if s.Len() != 0 {
		t.Errorf("Len() = %d, want 0", s.Len())
	}
}

func TestLoadAndSnapshot(t *testing.T) {
	snap := map[string]json.RawMessage{
		"shape:1": raw(`{"x":1}`),
		"shape:2": raw(`{"x":2}`),
	}
	s := Load(snap)

	got := s.Snapshot()
	if !reflect.DeepEqual(got, snap) {
		t.Errorf("Snapshot() = %v, want %v", got, snap)
	}

	// The snapshot is a copy; mutating it leaves the store untouched.
	delete(got, "shape:1")
	if s.Len() != 2 {
		t.Errorf("Len() = %d after mutating snapshot copy, want 2", s.Len())
	}
}

func TestLastUpdateAdvances(t *testing.T) {
	s := New()
	if !s.LastUpdate().IsZero() {
		t.Fatal("fresh store should have zero LastUpdate")
	}
	s.Apply([]protocol.ChangeSet{
		{Added: map[string]json.RawMessage{"k": raw(`1`)}},
	})
	if s.LastUpdate().IsZero() {
		t.Error("LastUpdate should advance after Apply")
	}
}
