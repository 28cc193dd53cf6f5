package metrics

import (
	"mercator-hq/vesta/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// CacheMetrics tracks cache performance metrics per tier.
//
// Metrics:
//   - mercator_vesta_cache_hits_total: Total cache hits by tier
//   - mercator_vesta_cache_misses_total: Total cache misses by tier
//   - mercator_vesta_cache_entries: Current number of entries by tier
//   - mercator_vesta_cache_evictions_total: Total cache evictions by tier
//   - mercator_vesta_cache_errors_total: Total tier errors (L2 network failures)
type CacheMetrics struct {
	// Cache hit counter
	hitsTotal *prometheus.CounterVec

	// Cache miss counter
	missesTotal *prometheus.CounterVec

	// Current cache size (entries)
	entries *prometheus.GaugeVec

	// Cache evictions counter
	evictionsTotal *prometheus.CounterVec

	// Tier error counter
	errorsTotal *prometheus.CounterVec
}

// NewCacheMetrics creates and registers cache metrics with the provided registry.
func NewCacheMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *CacheMetrics {
	cm := &CacheMetrics{
		hitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"tier"},
		),

		missesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"tier"},
		),

		entries: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_entries",
				Help:      "Current number of entries in cache",
			},
			[]string{"tier"},
		),

		evictionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_evictions_total",
				Help:      "Total number of cache evictions",
			},
			[]string{"tier"},
		),

		errorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "cache_errors_total",
				Help:      "Total number of cache tier errors",
			},
			[]string{"tier"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		cm.hitsTotal,
		cm.missesTotal,
		cm.entries,
		cm.evictionsTotal,
		cm.errorsTotal,
	)

	return cm
}

// RecordHit records a cache hit.
//
// Parameters:
//   - tier: Cache tier that served the entry ("l1", "l2")
func (cm *CacheMetrics) RecordHit(tier string) {
	cm.hitsTotal.WithLabelValues(tier).Inc()
}

// RecordMiss records a cache miss.
//
// Parameters:
//   - tier: Cache tier that was consulted ("l1", "l2")
func (cm *CacheMetrics) RecordMiss(tier string) {
	cm.missesTotal.WithLabelValues(tier).Inc()
}

// UpdateEntries updates the current entry count of a tier.
//
// Parameters:
//   - tier: Cache tier ("l1", "l2")
//   - count: Current number of entries in the tier
func (cm *CacheMetrics) UpdateEntries(tier string, count int) {
	cm.entries.WithLabelValues(tier).Set(float64(count))
}

// RecordEviction records a cache eviction.
//
// An eviction occurs when an entry is removed because the tier is full,
// the entry's TTL expired, or a write invalidated it.
func (cm *CacheMetrics) RecordEviction(tier string) {
	cm.evictionsTotal.WithLabelValues(tier).Inc()
}

// RecordError records a tier error. Tier errors are non-fatal: the cache
// degrades to the next tier or to storage, so a rising error rate with
// healthy request latencies usually means the L2 backend is unreachable.
func (cm *CacheMetrics) RecordError(tier string) {
	cm.errorsTotal.WithLabelValues(tier).Inc()
}
