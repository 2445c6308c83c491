package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SnapshotDB persists room document snapshots in SQLite, one row per room,
// newest snapshot wins. It backs the registry's persistence collaborator.
type SnapshotDB struct {
	db *sql.DB
}

// OpenSnapshotDB opens (and if needed initializes) the snapshot database at
// path. Use ":memory:" for an ephemeral store.
func OpenSnapshotDB(path string) (*SnapshotDB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	if _, err := db.Exec(
		`CREATE TABLE IF NOT EXISTS snapshots (
		room_id text not null primary key,
		content text not null,
		updated_at timestamp not null
		)`,
	); err != nil {
		db.Close()
		return nil, fmt.Errorf("init snapshot schema: %w", err)
	}
	return &SnapshotDB{db: db}, nil
}

// SaveSnapshot upserts the document for roomID.
func (s *SnapshotDB) SaveSnapshot(ctx context.Context, roomID string, data map[string]json.RawMessage) error {
	content, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots(room_id, content, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(room_id) DO UPDATE SET content = excluded.content, updated_at = excluded.updated_at`,
		roomID, string(content), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("persist snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot returns the persisted document for roomID, or nil if the
// room has never been persisted.
func (s *SnapshotDB) LoadSnapshot(ctx context.Context, roomID string) (map[string]json.RawMessage, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM snapshots WHERE room_id = ?`, roomID,
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot: %w", err)
	}

	var data map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return data, nil
}

// DeleteSnapshot removes the persisted document for roomID.
func (s *SnapshotDB) DeleteSnapshot(ctx context.Context, roomID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE room_id = ?`, roomID)
	return err
}

// Close closes the underlying database.
func (s *SnapshotDB) Close() error {
	return s.db.Close()
}
