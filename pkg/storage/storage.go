// Package storage holds the external persistence collaborators: a blob
// store for binary assets (uploaded images, voice annotations, canvas
// saves) and a snapshot store for room documents.
package storage

import (
	"context"
	"errors"
	"io"
)

// ErrTooLarge is returned when an object exceeds the store's size limit.
var ErrTooLarge = errors.New("storage: object too large")

// ErrNotFound is returned when a requested object does not exist.
var ErrNotFound = errors.New("storage: object not found")

// BlobStore stores binary assets under opaque keys and returns a URL the
// client can load the asset from.
type BlobStore interface {
	// Put stores the object and returns its public URL.
	Put(ctx context.Context, key, contentType string, size int64, r io.Reader) (string, error)
}
