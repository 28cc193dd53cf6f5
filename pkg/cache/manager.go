package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"mercator-hq/vesta/pkg/store"
	"mercator-hq/vesta/pkg/telemetry/metrics"
)

// Tier labels used in metrics.
const (
	tierL1 = "l1"
	tierL2 = "l2"
)

// Config contains configuration for the cache manager.
type Config struct {
	// L1Capacity bounds the number of in-process entries. Default: 1024
	L1Capacity uint64

	// L1TTL is the in-process entry lifetime. Kept short so an entry
	// refreshes from storage frequently even without invalidation traffic.
	// Default: 30 seconds
	L1TTL time.Duration

	// L2TTL is the shared-tier entry lifetime. Default: 5 minutes
	L2TTL time.Duration

	// Metrics records per-tier hits, misses, evictions, and errors.
	// Optional; nil disables recording.
	Metrics *metrics.Collector
}

// DefaultConfig returns the default cache configuration.
func DefaultConfig() *Config {
	return &Config{
		L1Capacity: 1024,
		L1TTL:      30 * time.Second,
		L2TTL:      5 * time.Minute,
	}
}

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	L1Hits       uint64 `json:"l1_hits"`
	L1Misses     uint64 `json:"l1_misses"`
	L1Evictions  uint64 `json:"l1_evictions"`
	L1Insertions uint64 `json:"l1_insertions"`
	L2Hits       uint64 `json:"l2_hits"`
	L2Misses     uint64 `json:"l2_misses"`
	L2Errors     uint64 `json:"l2_errors"`
}

// Manager composes the in-process L1 with an optional shared L2 tier. A nil
// tier leaves the manager L1-only. All methods are safe for concurrent use.
type Manager struct {
	config  *Config
	l1      *ttlcache.Cache[string, *store.ConfigEntry]
	l2      Tier
	logger  *slog.Logger
	metrics *metrics.Collector

	l2Hits   atomic.Uint64
	l2Misses atomic.Uint64
	l2Errors atomic.Uint64
}

// NewManager creates a cache manager. l2 may be nil.
func NewManager(config *Config, l2 Tier) *Manager {
	if config == nil {
		config = DefaultConfig()
	}
	defaults := DefaultConfig()
	if config.L1Capacity == 0 {
		config.L1Capacity = defaults.L1Capacity
	}
	if config.L1TTL <= 0 {
		config.L1TTL = defaults.L1TTL
	}
	if config.L2TTL <= 0 {
		config.L2TTL = defaults.L2TTL
	}

	l1 := ttlcache.New(
		ttlcache.WithTTL[string, *store.ConfigEntry](config.L1TTL),
		ttlcache.WithCapacity[string, *store.ConfigEntry](config.L1Capacity),
		ttlcache.WithDisableTouchOnHit[string, *store.ConfigEntry](),
	)
	if config.Metrics != nil {
		l1.OnEviction(func(_ context.Context, _ ttlcache.EvictionReason, _ *ttlcache.Item[string, *store.ConfigEntry]) {
			config.Metrics.RecordCacheEviction(tierL1)
		})
	}
	go l1.Start()

	return &Manager{
		config:  config,
		l1:      l1,
		l2:      l2,
		logger:  slog.Default().With("component", "cache.manager"),
		metrics: config.Metrics,
	}
}

// Get returns the cached entry for key and whether it was found. An L2 hit
// is promoted into L1 on the way out. Tier failures read as misses.
func (m *Manager) Get(ctx context.Context, key store.ConfigKey) (*store.ConfigEntry, bool) {
	k := key.String()

	if item := m.l1.Get(k); item != nil {
		if m.metrics != nil {
			m.metrics.RecordCacheHit(tierL1)
		}
		return item.Value().Clone(), true
	}
	if m.metrics != nil {
		m.metrics.RecordCacheMiss(tierL1)
	}

	if m.l2 == nil {
		return nil, false
	}

	entry, err := m.l2.Get(ctx, k)
	if errors.Is(err, ErrMiss) {
		m.l2Misses.Add(1)
		if m.metrics != nil {
			m.metrics.RecordCacheMiss(tierL2)
		}
		return nil, false
	}
	if err != nil {
		m.l2Errors.Add(1)
		if m.metrics != nil {
			m.metrics.RecordCacheError(tierL2)
		}
		m.logger.Warn("L2 get failed; falling through to storage", "key", k, "error", err)
		return nil, false
	}

	m.l2Hits.Add(1)
	if m.metrics != nil {
		m.metrics.RecordCacheHit(tierL2)
	}
	m.l1.Set(k, entry, ttlcache.DefaultTTL)
	m.updateEntriesGauge()
	return entry.Clone(), true
}

// Put stores entry in both tiers. L2 failures are logged and counted, never
// surfaced; the entry is still served from L1.
func (m *Manager) Put(ctx context.Context, key store.ConfigKey, entry *store.ConfigEntry) {
	k := key.String()
	m.l1.Set(k, entry.Clone(), ttlcache.DefaultTTL)
	m.updateEntriesGauge()

	if m.l2 == nil {
		return
	}
	if err := m.l2.Set(ctx, k, entry, m.config.L2TTL); err != nil {
		m.l2Errors.Add(1)
		if m.metrics != nil {
			m.metrics.RecordCacheError(tierL2)
		}
		m.logger.Warn("L2 set failed", "key", k, "error", err)
	}
}

// Invalidate removes key from both tiers. It runs synchronously on the write
// path, before the write acknowledges. The returned error reports an L2
// failure for the caller to alarm on; the write should still acknowledge,
// since a tier that cannot delete cannot serve the stale entry either.
func (m *Manager) Invalidate(ctx context.Context, key store.ConfigKey) error {
	k := key.String()
	m.l1.Delete(k)
	m.updateEntriesGauge()

	if m.l2 == nil {
		return nil
	}
	if err := m.l2.Delete(ctx, k); err != nil {
		m.l2Errors.Add(1)
		if m.metrics != nil {
			m.metrics.RecordCacheError(tierL2)
		}
		return err
	}
	return nil
}

// Clear empties both tiers.
func (m *Manager) Clear(ctx context.Context) error {
	m.l1.DeleteAll()
	if m.l2 == nil {
		return nil
	}
	return m.l2.Clear(ctx)
}

// Stats returns a snapshot of hit, miss, and error counters for both tiers.
func (m *Manager) Stats() Stats {
	l1 := m.l1.Metrics()
	return Stats{
		L1Hits:       l1.Hits,
		L1Misses:     l1.Misses,
		L1Evictions:  l1.Evictions,
		L1Insertions: l1.Insertions,
		L2Hits:       m.l2Hits.Load(),
		L2Misses:     m.l2Misses.Load(),
		L2Errors:     m.l2Errors.Load(),
	}
}

// Len returns the number of entries currently held in L1.
func (m *Manager) Len() int {
	return m.l1.Len()
}

func (m *Manager) updateEntriesGauge() {
	if m.metrics != nil {
		m.metrics.UpdateCacheEntries(tierL1, m.l1.Len())
	}
}

// Close stops the L1 janitor and closes the L2 tier.
func (m *Manager) Close() error {
	m.l1.Stop()
	if m.l2 == nil {
		return nil
	}
	return m.l2.Close()
}
