package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDiskStorePut(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/blobs/", 1<<20)
	if err != nil {
		t.Fatal(err)
	}

	url, err := store.Put(context.Background(), "assets/a.png", "image/png", 9,
		strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatalf("Put() error: %v", err)
	}
	if url != "/blobs/assets/a.png" {
		t.Errorf("url = %q, want /blobs/assets/a.png", url)
	}

	content, err := os.ReadFile(filepath.Join(dir, "assets", "a.png"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "png-bytes" {
		t.Errorf("stored content = %q", content)
	}
}

func TestDiskStoreRejectsOversize(t *testing.T) {
	dir := t.TempDir()
	store, err := NewDiskStore(dir, "/blobs", 4)
	if err != nil {
		t.Fatal(err)
	}

	// Declared size over the limit.
	_, err = store.Put(context.Background(), "big", "text/plain", 100,
		strings.NewReader("0123456789"))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("declared oversize: error = %v, want ErrTooLarge", err)
	}

	// Lying declared size; the copy itself hits the limit.
	_, err = store.Put(context.Background(), "liar", "text/plain", 2,
		strings.NewReader("0123456789"))
	if !errors.Is(err, ErrTooLarge) {
		t.Errorf("undeclared oversize: error = %v, want ErrTooLarge", err)
	}

	if _, statErr := os.Stat(filepath.Join(dir, "liar")); statErr == nil {
		t.Error("oversize object must not be left on disk")
	}
}
