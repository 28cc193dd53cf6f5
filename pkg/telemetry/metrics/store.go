package metrics

import (
	"time"

	"mercator-hq/vesta/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// StoreMetrics tracks metrics for configuration store operations.
//
// Metrics:
//   - mercator_vesta_operations_total: Operation count by operation, namespace, outcome
//   - mercator_vesta_operation_duration_seconds: Operation duration histogram
//   - mercator_vesta_value_bytes: Size of written configuration values
//   - mercator_vesta_secret_operations_total: Envelope seal and open counts
type StoreMetrics struct {
	// Operation count by operation, namespace, and outcome
	operationsTotal *prometheus.CounterVec

	// Operation duration histogram
	operationDuration *prometheus.HistogramVec

	// Written value sizes in bytes
	valueBytes *prometheus.HistogramVec

	// Secret envelope operations (seal on write, open on read)
	secretsTotal *prometheus.CounterVec
}

// NewStoreMetrics creates and registers store metrics with the provided registry.
func NewStoreMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *StoreMetrics {
	sm := &StoreMetrics{
		operationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operations_total",
				Help:      "Total number of configuration store operations",
			},
			[]string{"operation", "namespace", "outcome"},
		),

		operationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "operation_duration_seconds",
				Help:      "Duration of configuration store operations in seconds",
				Buckets:   cfg.OperationDurationBuckets,
			},
			[]string{"operation"},
		),

		valueBytes: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "value_bytes",
				Help:      "Size of written configuration values in bytes",
				Buckets:   cfg.ValueSizeBuckets,
			},
			[]string{"operation"},
		),

		secretsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "secret_operations_total",
				Help:      "Total number of secret envelope operations",
			},
			[]string{"operation"},
		),
	}

	// Register all metrics
	registry.MustRegister(
		sm.operationsTotal,
		sm.operationDuration,
		sm.valueBytes,
		sm.secretsTotal,
	)

	return sm
}

// RecordOperation records metrics for a completed store operation.
//
// Parameters:
//   - operation: Store operation name ("get", "set", "delete", "list", "history", "rollback")
//   - namespace: Configuration namespace the operation targeted
//   - outcome: Operation outcome ("success", "not_found", "denied", "conflict", "invalid", "error")
//   - duration: Operation duration
func (sm *StoreMetrics) RecordOperation(operation, namespace, outcome string, duration time.Duration) {
	sm.operationsTotal.WithLabelValues(operation, namespace, outcome).Inc()
	sm.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordValueSize records the size of a written configuration value.
//
// Parameters:
//   - operation: Store operation that carried the value ("set", "rollback")
//   - sizeBytes: Value size in bytes
func (sm *StoreMetrics) RecordValueSize(operation string, sizeBytes int) {
	if sizeBytes > 0 {
		sm.valueBytes.WithLabelValues(operation).Observe(float64(sizeBytes))
	}
}

// RecordSecretAccess records a secret envelope operation.
//
// Parameters:
//   - operation: "seal" when a secret is encrypted on write, "open" when one
//     is decrypted on read
func (sm *StoreMetrics) RecordSecretAccess(operation string) {
	sm.secretsTotal.WithLabelValues(operation).Inc()
}
