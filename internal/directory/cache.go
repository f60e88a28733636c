package directory

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrSnapshotNotFound is returned by a Cache holding no snapshot
	ErrSnapshotNotFound = errors.New("directory snapshot not found")
	// ErrCorruptSnapshot is returned when a stored snapshot cannot be decoded
	ErrCorruptSnapshot = errors.New("directory snapshot is corrupt")
)

// Cache persists directory snapshots
type Cache interface {
	Load(ctx context.Context) (*Snapshot, error)
	// Save replaces the stored snapshot atomically
	Save(ctx context.Context, s Snapshot) error
}

// FileCache stores a snapshot as a JSON document on disk
type FileCache struct {
	path string
}

// NewFileCache creates a cache backed by the file at path
func NewFileCache(path string) *FileCache {
	return &FileCache{path: path}
}

// Path returns the backing file location
func (c *FileCache) Path() string {
	return c.path
}

// Load reads the snapshot file
func (c *FileCache) Load(ctx context.Context) (*Snapshot, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("read directory cache %s: %w", c.path, err)
	}
	return decodeSnapshot(data)
}

// Save writes the snapshot to a temporary file and renames it over the old one
func (c *FileCache) Save(ctx context.Context, s Snapshot) error {
	data, err := encodeSnapshot(s)
	if err != nil {
		return fmt.Errorf("encode directory snapshot: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create cache directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp cache file: %w", err)
	}
	if err := os.Rename(tmpName, c.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache file %s: %w", c.path, err)
	}
	return nil
}
