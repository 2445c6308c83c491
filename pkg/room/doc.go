// Package room implements the real-time synchronization core: sessions
// bound to WebSocket connections, rooms that merge and fan out updates, and
// the registry that creates rooms lazily and reclaims them when empty.
//
// Concurrency model: every connection event runs in its own goroutine
// (the session read loop). Each room serializes its session set and document
// behind a per-room mutex, so rooms never contend with each other. A slow or
// dead peer never stalls a broadcast: deliveries go through bounded
// per-session send queues and a full queue disconnects only that session.
package room
