package cache

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"mercator-hq/vesta/pkg/store"
)

const fileTierSuffix = ".json"

// FileTier implements Tier on a directory of JSON files, one per cache key.
// It gives single-node deployments an L2 that survives process restarts
// without requiring Redis. File names are the hex-encoded cache key, so any
// key byte is safe on any filesystem.
type FileTier struct {
	dir    string
	logger *slog.Logger
}

// fileEntry wraps a cached entry with its absolute expiry. A zero ExpiresAt
// never expires.
type fileEntry struct {
	ExpiresAt time.Time          `json:"expires_at,omitempty"`
	Entry     *store.ConfigEntry `json:"entry"`
}

// NewFileTier creates the cache directory if needed and returns the tier.
func NewFileTier(dir string) (*FileTier, error) {
	if dir == "" {
		return nil, fmt.Errorf("file tier: directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("file tier: create directory: %w", err)
	}
	return &FileTier{
		dir:    dir,
		logger: slog.Default().With("component", "cache.file"),
	}, nil
}

func (t *FileTier) path(key string) string {
	return filepath.Join(t.dir, hex.EncodeToString([]byte(key))+fileTierSuffix)
}

// Get returns the cached entry for key, or ErrMiss. Expired entries are
// removed lazily here rather than by a background sweeper.
func (t *FileTier) Get(ctx context.Context, key string) (*store.ConfigEntry, error) {
	data, err := os.ReadFile(t.path(key))
	if os.IsNotExist(err) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("file tier get: %w", err)
	}

	var wrapped fileEntry
	if err := json.Unmarshal(data, &wrapped); err != nil {
		t.logger.Warn("dropping undecodable cache file", "key", key, "error", err)
		os.Remove(t.path(key))
		return nil, ErrMiss
	}

	if !wrapped.ExpiresAt.IsZero() && time.Now().After(wrapped.ExpiresAt) {
		os.Remove(t.path(key))
		return nil, ErrMiss
	}
	return wrapped.Entry, nil
}

// Set stores entry under key. The write goes to a temp file in the same
// directory and is renamed into place, so readers never observe a partial
// file.
func (t *FileTier) Set(ctx context.Context, key string, entry *store.ConfigEntry, ttl time.Duration) error {
	wrapped := fileEntry{Entry: entry}
	if ttl > 0 {
		wrapped.ExpiresAt = time.Now().Add(ttl)
	}

	data, err := json.Marshal(wrapped)
	if err != nil {
		return fmt.Errorf("file tier set marshal: %w", err)
	}

	tmp, err := os.CreateTemp(t.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("file tier set: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("file tier set write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file tier set close: %w", err)
	}
	if err := os.Rename(tmpName, t.path(key)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("file tier set rename: %w", err)
	}
	return nil
}

// Delete removes key. A missing file is not an error.
func (t *FileTier) Delete(ctx context.Context, key string) error {
	err := os.Remove(t.path(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("file tier delete: %w", err)
	}
	return nil
}

// Clear removes every cache file in the directory.
func (t *FileTier) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(t.dir)
	if err != nil {
		return fmt.Errorf("file tier clear: %w", err)
	}
	for _, dirEntry := range entries {
		if dirEntry.IsDir() || !strings.HasSuffix(dirEntry.Name(), fileTierSuffix) {
			continue
		}
		if err := os.Remove(filepath.Join(t.dir, dirEntry.Name())); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("file tier clear: %w", err)
		}
	}
	return nil
}

// Close is a no-op; the tier holds no open handles between operations.
func (t *FileTier) Close() error {
	return nil
}
