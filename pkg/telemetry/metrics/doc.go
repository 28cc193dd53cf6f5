// Package metrics provides Prometheus metrics collection for Vesta.
//
// # Overview
//
// The metrics package implements Prometheus metrics for monitoring
// configuration store operations, cache tier behavior, and the audit
// pipeline. A single Collector owns the registry; components record through
// it so that metric naming and cardinality control stay in one place.
//
// # Metrics Categories
//
//   - Store Metrics: Operation counts, durations, value sizes, secret accesses
//   - Cache Metrics: Hits, misses, evictions, errors, and entry counts per tier
//   - Audit Metrics: Events written, dropped, failed, and buffer depth
//
// # Usage
//
//	// Create collector
//	collector := metrics.NewCollector(config, registry)
//
//	// Record store operations
//	collector.RecordOperation(
//		"get",                // operation
//		"payments",           // namespace
//		"success",            // outcome
//		800*time.Microsecond, // duration
//	)
//
//	// Record cache behavior
//	collector.RecordCacheHit("l1")
//	collector.RecordCacheMiss("l2")
//	collector.UpdateCacheEntries("l1", 412)
//
//	// Record audit pipeline health
//	collector.RecordAuditWritten("config.updated")
//	collector.RecordAuditDropped()
//
// Every recording method is a no-op when metrics are disabled in the
// configuration, so callers never need their own gating.
//
// # Custom Histogram Buckets
//
// The collector uses histogram buckets tuned for a cache-backed store:
//
//	Operation Duration: 1ms, 5ms, 10ms, 25ms, 50ms, 100ms, 250ms, 500ms, 1s, 2.5s
//	Value Sizes: 64B, 256B, 1KB, 4KB, 16KB, 64KB, 256KB, 1MB
//
// # Prometheus Endpoint
//
// All metrics are exposed on the /metrics endpoint in standard Prometheus format:
//
//	# HELP mercator_vesta_operations_total Total number of configuration store operations
//	# TYPE mercator_vesta_operations_total counter
//	mercator_vesta_operations_total{operation="get",namespace="payments",outcome="success"} 1234
//
// # Cardinality Management
//
// The namespace label is the only unbounded one, so the collector folds
// namespaces beyond 10,000 unique label combinations into "other". All other
// labels (operation, outcome, tier, event type) come from fixed sets.
package metrics
