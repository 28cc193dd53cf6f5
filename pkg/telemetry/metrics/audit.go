package metrics

import (
	"mercator-hq/vesta/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
)

// AuditMetrics tracks the health of the audit pipeline.
//
// Metrics:
//   - mercator_vesta_audit_events_total: Events durably written, by event type
//   - mercator_vesta_audit_dropped_total: Events dropped because the buffer was full
//   - mercator_vesta_audit_failures_total: Events abandoned after exhausting sink retries
//   - mercator_vesta_audit_buffer_depth: Events waiting in the async buffer
//
// dropped_total and failures_total should both be zero in a healthy
// deployment; either one rising means audit coverage has gaps.
type AuditMetrics struct {
	// Durably written events by type
	eventsTotal *prometheus.CounterVec

	// Events dropped at enqueue time
	droppedTotal prometheus.Counter

	// Events abandoned after sink retries
	failuresTotal prometheus.Counter

	// Current async buffer depth
	bufferDepth prometheus.Gauge
}

// NewAuditMetrics creates and registers audit metrics with the provided registry.
func NewAuditMetrics(cfg *config.MetricsConfig, registry *prometheus.Registry) *AuditMetrics {
	am := &AuditMetrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_events_total",
				Help:      "Total number of audit events durably written",
			},
			[]string{"type"},
		),

		droppedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_dropped_total",
				Help:      "Total number of audit events dropped because the buffer was full",
			},
		),

		failuresTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_failures_total",
				Help:      "Total number of audit events abandoned after sink write retries",
			},
		),

		bufferDepth: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: cfg.Subsystem,
				Name:      "audit_buffer_depth",
				Help:      "Current number of audit events waiting in the async buffer",
			},
		),
	}

	// Register all metrics
	registry.MustRegister(
		am.eventsTotal,
		am.droppedTotal,
		am.failuresTotal,
		am.bufferDepth,
	)

	return am
}

// RecordWritten records an audit event durably written to the sink.
//
// Parameters:
//   - eventType: Audit event type ("config.created", "config.deleted", ...)
func (am *AuditMetrics) RecordWritten(eventType string) {
	am.eventsTotal.WithLabelValues(eventType).Inc()
}

// RecordDropped records an audit event dropped at enqueue time.
func (am *AuditMetrics) RecordDropped() {
	am.droppedTotal.Inc()
}

// RecordFailure records an audit event abandoned after exhausting retries.
func (am *AuditMetrics) RecordFailure() {
	am.failuresTotal.Inc()
}

// UpdateBufferDepth updates the async buffer depth gauge.
func (am *AuditMetrics) UpdateBufferDepth(depth int) {
	am.bufferDepth.Set(float64(depth))
}
