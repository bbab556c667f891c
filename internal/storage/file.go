package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwebster45206/npc-memory/pkg/memory"
)

// FileStore persists memory snapshots as a single JSON file. Writes go to
// a temporary file first and are renamed into place, so an abandoned save
// never leaves a corrupt snapshot behind.
type FileStore struct {
	path   string
	logger *slog.Logger
}

// Ensure FileStore implements memory.Store
var _ memory.Store = (*FileStore)(nil)

// NewFileStore creates a file-backed snapshot store.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if path == "" {
		path = "player_relationships.json"
	}
	return &FileStore{path: path, logger: logger}
}

func (f *FileStore) Ping(ctx context.Context) error {
	dir := filepath.Dir(f.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("save directory unavailable: %w", err)
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

func (f *FileStore) SaveSnapshot(ctx context.Context, snap *memory.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("save cancelled: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		f.logger.Error("Failed to marshal snapshot", "path", f.path, "error", err)
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp save file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp save file: %w", err)
	}

	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		f.logger.Error("Failed to replace snapshot file", "path", f.path, "error", err)
		return fmt.Errorf("failed to replace snapshot file: %w", err)
	}

	f.logger.Debug("Snapshot written", "path", f.path, "bytes", len(data))
	return nil
}

func (f *FileStore) LoadSnapshot(ctx context.Context) (*memory.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("load cancelled: %w", err)
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if os.IsNotExist(err) {
			f.logger.Debug("No snapshot file found", "path", f.path)
			return nil, nil
		}
		f.logger.Error("Failed to read snapshot file", "path", f.path, "error", err)
		return nil, fmt.Errorf("failed to read snapshot file: %w", err)
	}

	var snap memory.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		f.logger.Error("Failed to unmarshal snapshot", "path", f.path, "error", err)
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
