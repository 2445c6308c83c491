// Package protocol defines the JSON message schema spoken between the sync
// server and whiteboard clients.
//
// Every frame is a JSON object with a "type" discriminator. The server
// interprets only the types it needs for its own bookkeeping; anything else
// is relayed to room peers unchanged, so clients can extend the vocabulary
// without a server deploy.
//
// Server→client (sent once, on attach):
//   - connect: the assigned session id and room id
//   - document-state: full document snapshot, only if the room is non-empty
//
// Bidirectional:
//   - document-update: keyed upserts and removals, merged server-side and
//     relayed to peers
//   - presence: cursor/voice presence, relayed verbatim, never merged
package protocol
