package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"mercator-hq/vesta/pkg/store"
)

// MemoryBackend stores version chains in process memory. It is intended for
// tests and ephemeral deployments; nothing survives a restart.
type MemoryBackend struct {
	mu     sync.RWMutex
	chains map[string][]*store.ConfigEntry // keyed by ConfigKey.String(), versions ascending

	// appendMu guards the per-key lock table; the per-key locks serialize
	// appends and prunes so writers to different keys never block each other.
	appendMu sync.Mutex
	appends  map[string]*sync.Mutex
}

// NewMemoryBackend creates an empty in-memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		chains:  make(map[string][]*store.ConfigEntry),
		appends: make(map[string]*sync.Mutex),
	}
}

// keyLock returns the append lock for key, creating it on first use.
func (m *MemoryBackend) keyLock(key string) *sync.Mutex {
	m.appendMu.Lock()
	defer m.appendMu.Unlock()

	lock, ok := m.appends[key]
	if !ok {
		lock = &sync.Mutex{}
		m.appends[key] = lock
	}
	return lock
}

// GetCurrent returns the highest version recorded for key, tombstones
// included.
func (m *MemoryBackend) GetCurrent(ctx context.Context, key store.ConfigKey) (*store.ConfigEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chain := m.chains[key.String()]
	if len(chain) == 0 {
		return nil, store.NewNotFoundError(key)
	}
	return chain[len(chain)-1].Clone(), nil
}

// GetVersion returns one specific version of key.
func (m *MemoryBackend) GetVersion(ctx context.Context, key store.ConfigKey, version uint64) (*store.ConfigEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chain := m.chains[key.String()]
	for i := len(chain) - 1; i >= 0; i-- {
		if chain[i].Version == version {
			return chain[i].Clone(), nil
		}
	}
	return nil, store.NewVersionNotFoundError(key, version)
}

// AppendVersion writes entry as the next version of its key.
func (m *MemoryBackend) AppendVersion(ctx context.Context, entry *store.ConfigEntry) (*store.ConfigEntry, error) {
	key := entry.ConfigKey()
	lock := m.keyLock(key.String())
	lock.Lock()
	defer lock.Unlock()

	stored := entry.Clone()
	if stored.ID == "" {
		stored.ID = uuid.NewString()
	}
	if stored.Metadata.CreatedAt.IsZero() {
		stored.Metadata.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	chain := m.chains[key.String()]
	stored.Version = 1
	stored.PreviousID = ""
	if len(chain) > 0 {
		tail := chain[len(chain)-1]
		stored.Version = tail.Version + 1
		stored.PreviousID = tail.ID
	}
	m.chains[key.String()] = append(chain, stored)

	return stored.Clone(), nil
}

// ListCurrent returns the current version of every live key in the namespace
// and environment, sorted by key name.
func (m *MemoryBackend) ListCurrent(ctx context.Context, namespace string, env store.Environment) ([]*store.ConfigEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var entries []*store.ConfigEntry
	for _, chain := range m.chains {
		if len(chain) == 0 {
			continue
		}
		tail := chain[len(chain)-1]
		if tail.Namespace != namespace || tail.Environment != env || tail.Tombstone {
			continue
		}
		entries = append(entries, tail.Clone())
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Key < entries[j].Key
	})
	return entries, nil
}

// ListVersions returns the full version chain for key, newest first.
func (m *MemoryBackend) ListVersions(ctx context.Context, key store.ConfigKey) ([]*store.ConfigEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	chain := m.chains[key.String()]
	if len(chain) == 0 {
		return nil, store.NewNotFoundError(key)
	}

	entries := make([]*store.ConfigEntry, 0, len(chain))
	for i := len(chain) - 1; i >= 0; i-- {
		entries = append(entries, chain[i].Clone())
	}
	return entries, nil
}

// PruneVersions removes historical versions beyond the keepLast most recent.
func (m *MemoryBackend) PruneVersions(ctx context.Context, key store.ConfigKey, keepLast int) (int64, error) {
	if keepLast < 1 {
		keepLast = 1
	}

	lock := m.keyLock(key.String())
	lock.Lock()
	defer lock.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	chain := m.chains[key.String()]
	if len(chain) <= keepLast {
		return 0, nil
	}

	removed := len(chain) - keepLast
	kept := make([]*store.ConfigEntry, keepLast)
	copy(kept, chain[removed:])
	m.chains[key.String()] = kept

	return int64(removed), nil
}

// Close releases the backend. In-memory state is discarded.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.chains = make(map[string][]*store.ConfigEntry)
	return nil
}

// Size returns the number of keys with at least one version. Useful for
// monitoring and tests.
func (m *MemoryBackend) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chains)
}
