package protocol

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestPeekType(t *testing.T) {
	tests := []struct {
		name    string
		frame   string
		want    string
		wantErr error
	}{
		{
			name:  "document_update",
			frame: `{"type":"document-update","changes":[]}`,
			want:  TypeDocumentUpdate,
		},
		{
			name:  "presence",
			frame: `{"type":"presence","clientId":"abc","cursor":{"x":1,"y":2}}`,
			want:  TypePresence,
		},
		{
			name:  "unknown_type_passes_through",
			frame: `{"type":"chat-message","text":"hi"}`,
			want:  "chat-message",
		},
		{
			name:    "not_json",
			frame:   `this is not json`,
			wantErr: ErrMalformedFrame,
		},
		{
			name:    "missing_type",
			frame:   `{"roomId":"r1"}`,
			wantErr: ErrMissingType,
		},
		{
			name:    "empty_type",
			frame:   `{"type":""}`,
			wantErr: ErrMissingType,
		},
		{
			name:    "type_wrong_kind",
			frame:   `{"type":42}`,
			wantErr: ErrMalformedFrame,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PeekType([]byte(tc.frame))
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("PeekType() error = %v, want %v", err, tc.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("PeekType() unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("PeekType() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDecodeDocumentUpdate(t *testing.T) {
	frame := []byte(`{
		"type": "document-update",
		"changes": [
			{"added": {"shape:1": {"x": 10}}},
			{"updated": {"shape:1": {"x": 20}}, "removed": ["shape:2"]}
		]
	}`)

	update, err := DecodeDocumentUpdate(frame)
	if err != nil {
		t.Fatalf("DecodeDocumentUpdate() error: %v", err)
	}
	if len(update.Changes) != 2 {
		t.Fatalf("got %d change sets, want 2", len(update.Changes))
	}
	if _, ok := update.Changes[0].Added["shape:1"]; !ok {
		t.Error("first change set missing added shape:1")
	}
	if got := update.Changes[1].Removed; len(got) != 1 || got[0] != "shape:2" {
		t.Errorf("second change set removed = %v, want [shape:2]", got)
	}
}

func TestDecodeDocumentUpdateMalformed(t *testing.T) {
	_, err := DecodeDocumentUpdate([]byte(`{"type":"document-update","changes":"nope"}`))
	if !errors.Is(err, ErrMalformedFrame) {
		t.Fatalf("error = %v, want ErrMalformedFrame", err)
	}
}

func TestEncodeConnect(t *testing.T) {
	frame, err := EncodeConnect("whiteboard-7", "client-abc")
	if err != nil {
		t.Fatalf("EncodeConnect() error: %v", err)
	}

	var msg Connect
	if err := json.Unmarshal(frame, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != TypeConnect {
		t.Errorf("type = %q, want %q", msg.Type, TypeConnect)
	}
	if msg.RoomID != "whiteboard-7" || msg.ClientID != "client-abc" {
		t.Errorf("got roomId=%q clientId=%q", msg.RoomID, msg.ClientID)
	}
}

func TestEncodeDocumentState(t *testing.T) {
	data := map[string]json.RawMessage{
		"shape:1": json.RawMessage(`{"x":1}`),
	}
	frame, err := EncodeDocumentState(data)
	if err != nil {
		t.Fatalf("EncodeDocumentState() error: %v", err)
	}

	var msg DocumentState
	if err := json.Unmarshal(frame, &msg); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if msg.Type != TypeDocumentState {
		t.Errorf("type = %q, want %q", msg.Type, TypeDocumentState)
	}
	if string(msg.Data["shape:1"]) != `{"x":1}` {
		t.Errorf("data[shape:1] = %s", msg.Data["shape:1"])
	}
}
