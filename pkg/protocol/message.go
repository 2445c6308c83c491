package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Message types recognized by the server. Frames carrying any other type
// are relayed to peers without interpretation.
const (
	TypeConnect        = "connect"
	TypeDocumentState  = "document-state"
	TypeDocumentUpdate = "document-update"
	TypePresence       = "presence"
)

// ErrMalformedFrame is returned when a frame is not a JSON object.
var ErrMalformedFrame = errors.New("protocol: malformed frame")

// ErrMissingType is returned when a frame has no "type" discriminator.
var ErrMissingType = errors.New("protocol: missing type field")

// Connect is the first frame a session receives after attaching to a room.
type Connect struct {
	Type     string `json:"type"`
	RoomID   string `json:"roomId"`
	ClientID string `json:"clientId"`
}

// DocumentState carries the full document snapshot of a room. It is sent to
// a newly attached session before any relayed traffic reaches it.
type DocumentState struct {
	Type string                     `json:"type"`
	Data map[string]json.RawMessage `json:"data"`
}

// DocumentUpdate carries keyed upserts and removals against the room
// document. The server merges each change set in order and then relays the
// original frame to peers.
type DocumentUpdate struct {
	Type    string      `json:"type"`
	Changes []ChangeSet `json:"changes"`
}

// ChangeSet is one batch of keyed edits. Added and Updated are both
// upserts; the distinction exists only for the client's benefit.
type ChangeSet struct {
	Added   map[string]json.RawMessage `json:"added,omitempty"`
	Updated map[string]json.RawMessage `json:"updated,omitempty"`
	Removed []string                   `json:"removed,omitempty"`
}

// PeekType extracts the type discriminator from a raw frame without decoding
// the full payload. It returns ErrMalformedFrame for non-JSON input and
// ErrMissingType when the object carries no usable "type" field.
func PeekType(frame []byte) (string, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(frame, &envelope); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if envelope.Type == "" {
		return "", ErrMissingType
	}
	return envelope.Type, nil
}

// DecodeDocumentUpdate decodes a document-update frame. The caller is
// expected to have already checked the frame type with PeekType.
func DecodeDocumentUpdate(frame []byte) (*DocumentUpdate, error) {
	var update DocumentUpdate
	if err := json.Unmarshal(frame, &update); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	return &update, nil
}

// EncodeConnect builds the connect frame for a freshly attached session.
func EncodeConnect(roomID, clientID string) ([]byte, error) {
	return json.Marshal(&Connect{
		Type:     TypeConnect,
		RoomID:   roomID,
		ClientID: clientID,
	})
}

// EncodeDocumentState builds the snapshot frame for a late joiner.
func EncodeDocumentState(data map[string]json.RawMessage) ([]byte, error) {
	return json.Marshal(&DocumentState{
		Type: TypeDocumentState,
		Data: data,
	})
}
