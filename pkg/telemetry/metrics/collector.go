package metrics

import (
	"fmt"
	"sync"
	"time"

	"mercator-hq/vesta/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector is the main orchestrator for all Prometheus metrics in Vesta.
// It manages metric registration and provides a unified interface for
// recording metrics across the store, cache, and audit components.
//
// The collector is designed for minimal overhead on the hot read path:
//   - Pre-allocated metric instances
//   - Cardinality limits to prevent memory issues
//   - Histogram buckets tuned for cache-backed read latencies
type Collector struct {
	config   *config.MetricsConfig
	registry *prometheus.Registry

	// Store operation metrics
	storeMetrics *StoreMetrics

	// Cache tier metrics
	cacheMetrics *CacheMetrics

	// Audit pipeline metrics
	auditMetrics *AuditMetrics

	// Cardinality tracking
	cardinalityLimiter *CardinalityLimiter
}

// NewCollector creates a new metrics collector with the specified configuration
// and Prometheus registry. If registry is nil, a fresh registry is created.
//
// Example:
//
//	cfg := &config.MetricsConfig{
//		Enabled:   true,
//		Namespace: "mercator",
//		Subsystem: "vesta",
//	}
//	collector := metrics.NewCollector(cfg, nil)
func NewCollector(cfg *config.MetricsConfig, registry *prometheus.Registry) *Collector {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	// Set defaults if not specified
	if cfg.Namespace == "" {
		cfg.Namespace = "mercator"
	}
	if cfg.Subsystem == "" {
		cfg.Subsystem = "vesta"
	}
	if len(cfg.OperationDurationBuckets) == 0 {
		// Tuned for cache-backed reads (sub-millisecond) through storage
		// writes (tens of milliseconds)
		cfg.OperationDurationBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5}
	}
	if len(cfg.ValueSizeBuckets) == 0 {
		// 64B to the 1MiB value ceiling
		cfg.ValueSizeBuckets = []float64{64, 256, 1024, 4096, 16384, 65536, 262144, 1048576}
	}

	c := &Collector{
		config:             cfg,
		registry:           registry,
		cardinalityLimiter: NewCardinalityLimiter(10000), // Max 10K unique label sets
	}

	// Initialize metric subsystems
	c.storeMetrics = NewStoreMetrics(cfg, registry)
	c.cacheMetrics = NewCacheMetrics(cfg, registry)
	c.auditMetrics = NewAuditMetrics(cfg, registry)

	return c
}

// RecordOperation records metrics for a completed store operation.
//
// Parameters:
//   - operation: Store operation name ("get", "set", "delete", "list", "history", "rollback")
//   - namespace: Configuration namespace the operation targeted
//   - outcome: Operation outcome ("success", "not_found", "denied", "conflict", "invalid", "error")
//   - duration: Total operation duration
//
// Example:
//
//	collector.RecordOperation("get", "payments", "success", 800*time.Microsecond)
func (c *Collector) RecordOperation(operation, namespace, outcome string, duration time.Duration) {
	if !c.config.Enabled {
		return
	}

	// Check cardinality limit
	labelSet := fmt.Sprintf("operation:%s:%s:%s", operation, namespace, outcome)
	if !c.cardinalityLimiter.Allow(labelSet) {
		// Aggregate into "other" to prevent cardinality explosion
		namespace = "other"
	}

	c.storeMetrics.RecordOperation(operation, namespace, outcome, duration)
}

// RecordValueSize records the size of a configuration value carried by a
// write operation.
//
// Parameters:
//   - operation: Store operation that carried the value ("set", "rollback")
//   - sizeBytes: Value size in bytes
func (c *Collector) RecordValueSize(operation string, sizeBytes int) {
	if !c.config.Enabled {
		return
	}

	c.storeMetrics.RecordValueSize(operation, sizeBytes)
}

// RecordSecretAccess records a secret envelope operation.
//
// Parameters:
//   - operation: "seal" when a secret is encrypted, "open" when one is decrypted
func (c *Collector) RecordSecretAccess(operation string) {
	if !c.config.Enabled {
		return
	}

	c.storeMetrics.RecordSecretAccess(operation)
}

// RecordCacheHit records a cache hit.
//
// Parameters:
//   - tier: Cache tier that served the entry ("l1", "l2")
func (c *Collector) RecordCacheHit(tier string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordHit(tier)
}

// RecordCacheMiss records a cache miss.
//
// Parameters:
//   - tier: Cache tier that was consulted ("l1", "l2")
func (c *Collector) RecordCacheMiss(tier string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordMiss(tier)
}

// RecordCacheEviction records a cache eviction.
//
// Parameters:
//   - tier: Cache tier the entry was evicted from ("l1", "l2")
func (c *Collector) RecordCacheEviction(tier string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordEviction(tier)
}

// RecordCacheError records a tier error.
//
// Parameters:
//   - tier: Cache tier that failed ("l1", "l2")
func (c *Collector) RecordCacheError(tier string) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.RecordError(tier)
}

// UpdateCacheEntries updates the current entry count of a cache tier.
//
// Parameters:
//   - tier: Cache tier ("l1", "l2")
//   - count: Current number of entries in the tier
func (c *Collector) UpdateCacheEntries(tier string, count int) {
	if !c.config.Enabled {
		return
	}

	c.cacheMetrics.UpdateEntries(tier, count)
}

// RecordAuditWritten records an audit event durably written to the sink.
//
// Parameters:
//   - eventType: Audit event type ("config.created", "config.deleted", ...)
func (c *Collector) RecordAuditWritten(eventType string) {
	if !c.config.Enabled {
		return
	}

	c.auditMetrics.RecordWritten(eventType)
}

// RecordAuditDropped records an audit event dropped because the buffer was full.
func (c *Collector) RecordAuditDropped() {
	if !c.config.Enabled {
		return
	}

	c.auditMetrics.RecordDropped()
}

// RecordAuditFailure records an audit event abandoned after exhausting retries.
func (c *Collector) RecordAuditFailure() {
	if !c.config.Enabled {
		return
	}

	c.auditMetrics.RecordFailure()
}

// UpdateAuditBufferDepth updates the audit buffer depth gauge.
func (c *Collector) UpdateAuditBufferDepth(depth int) {
	if !c.config.Enabled {
		return
	}

	c.auditMetrics.UpdateBufferDepth(depth)
}

// Registry returns the Prometheus registry used by this collector.
// This can be used to create an HTTP handler for the /metrics endpoint:
//
//	http.Handle("/metrics", promhttp.HandlerFor(
//		collector.Registry(),
//		promhttp.HandlerOpts{},
//	))
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// CardinalityLimiter prevents metric cardinality explosion by limiting
// the number of unique label combinations per metric. Namespaces are
// operator-controlled but unbounded, so overflow folds into "other".
type CardinalityLimiter struct {
	maxCardinality int
	current        map[string]struct{}
	mu             sync.RWMutex
}

// NewCardinalityLimiter creates a new cardinality limiter with the specified
// maximum cardinality.
func NewCardinalityLimiter(maxCardinality int) *CardinalityLimiter {
	return &CardinalityLimiter{
		maxCardinality: maxCardinality,
		current:        make(map[string]struct{}),
	}
}

// Allow checks if a label set is allowed. Returns true if the label set
// already exists or if we haven't reached the cardinality limit yet.
// Returns false if adding this label set would exceed the limit.
func (cl *CardinalityLimiter) Allow(labelSet string) bool {
	cl.mu.RLock()
	if _, exists := cl.current[labelSet]; exists {
		cl.mu.RUnlock()
		return true
	}
	cl.mu.RUnlock()

	cl.mu.Lock()
	defer cl.mu.Unlock()

	// Double-check after acquiring write lock
	if _, exists := cl.current[labelSet]; exists {
		return true
	}

	if len(cl.current) >= cl.maxCardinality {
		return false
	}

	cl.current[labelSet] = struct{}{}
	return true
}

// Count returns the current cardinality.
func (cl *CardinalityLimiter) Count() int {
	cl.mu.RLock()
	defer cl.mu.RUnlock()
	return len(cl.current)
}
