package room

import "time"

// Conn is the subset of *websocket.Conn the sync core touches. Tests
// substitute in-memory implementations; production code passes the upgraded
// gorilla connection straight through.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	SetPongHandler(h func(appData string) error)
	Close() error
}
