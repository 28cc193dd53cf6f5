package metrics

import (
	"testing"
	"time"

	"mercator-hq/vesta/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// Helper function to create test config
func testConfig() *config.MetricsConfig {
	return &config.MetricsConfig{
		Enabled:                  true,
		Namespace:                "test",
		Subsystem:                "metrics",
		OperationDurationBuckets: []float64{0.001, 0.01, 0.1, 1.0},
		ValueSizeBuckets:         []float64{64, 1024, 65536, 1048576},
	}
}

// TestCollector_NewCollector tests collector creation
func TestCollector_NewCollector(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()

	collector := NewCollector(cfg, registry)

	if collector == nil {
		t.Fatal("Expected non-nil collector")
	}
	if collector.config != cfg {
		t.Error("Collector config not set correctly")
	}
	if collector.registry != registry {
		t.Error("Collector registry not set correctly")
	}
}

// TestCollector_Defaults tests that missing config fields get defaults
func TestCollector_Defaults(t *testing.T) {
	cfg := &config.MetricsConfig{Enabled: true}

	NewCollector(cfg, nil)

	if cfg.Namespace != "mercator" {
		t.Errorf("Expected default namespace 'mercator', got %q", cfg.Namespace)
	}
	if cfg.Subsystem != "vesta" {
		t.Errorf("Expected default subsystem 'vesta', got %q", cfg.Subsystem)
	}
	if len(cfg.OperationDurationBuckets) == 0 {
		t.Error("Expected default operation duration buckets")
	}
	if len(cfg.ValueSizeBuckets) == 0 {
		t.Error("Expected default value size buckets")
	}
}

// TestCollector_RecordOperation tests store operation recording
func TestCollector_RecordOperation(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	tests := []struct {
		name      string
		operation string
		namespace string
		outcome   string
		duration  time.Duration
	}{
		{
			name:      "cached get",
			operation: "get",
			namespace: "payments",
			outcome:   "success",
			duration:  800 * time.Microsecond,
		},
		{
			name:      "denied set",
			operation: "set",
			namespace: "payments",
			outcome:   "denied",
			duration:  2 * time.Millisecond,
		},
		{
			name:      "missing key",
			operation: "get",
			namespace: "billing",
			outcome:   "not_found",
			duration:  5 * time.Millisecond,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector.RecordOperation(tt.operation, tt.namespace, tt.outcome, tt.duration)

			// Verify operation counter was incremented
			count := testutil.ToFloat64(collector.storeMetrics.operationsTotal.WithLabelValues(tt.operation, tt.namespace, tt.outcome))
			if count < 1 {
				t.Errorf("Expected operation counter >= 1, got %f", count)
			}
		})
	}
}

// TestCollector_RecordSecretAccess tests secret envelope recording
func TestCollector_RecordSecretAccess(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	collector.RecordSecretAccess("seal")
	collector.RecordSecretAccess("open")
	collector.RecordSecretAccess("open")

	sealed := testutil.ToFloat64(collector.storeMetrics.secretsTotal.WithLabelValues("seal"))
	if sealed != 1 {
		t.Errorf("Expected 1 seal, got %f", sealed)
	}
	opened := testutil.ToFloat64(collector.storeMetrics.secretsTotal.WithLabelValues("open"))
	if opened != 2 {
		t.Errorf("Expected 2 opens, got %f", opened)
	}
}

// TestCollector_CacheMetrics tests cache metric recording
func TestCollector_CacheMetrics(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	// Test hit recording
	t.Run("record cache hit", func(t *testing.T) {
		collector.RecordCacheHit("l1")
		count := testutil.ToFloat64(collector.cacheMetrics.hitsTotal.WithLabelValues("l1"))
		if count < 1 {
			t.Errorf("Expected hit count >= 1, got %f", count)
		}
	})

	// Test miss recording
	t.Run("record cache miss", func(t *testing.T) {
		collector.RecordCacheMiss("l2")
		count := testutil.ToFloat64(collector.cacheMetrics.missesTotal.WithLabelValues("l2"))
		if count < 1 {
			t.Errorf("Expected miss count >= 1, got %f", count)
		}
	})

	// Test entry count update
	t.Run("update cache entries", func(t *testing.T) {
		collector.UpdateCacheEntries("l1", 42)
		size := testutil.ToFloat64(collector.cacheMetrics.entries.WithLabelValues("l1"))
		if size != 42 {
			t.Errorf("Expected entries=42, got %f", size)
		}
	})

	// Test error recording
	t.Run("record cache error", func(t *testing.T) {
		collector.RecordCacheError("l2")
		count := testutil.ToFloat64(collector.cacheMetrics.errorsTotal.WithLabelValues("l2"))
		if count < 1 {
			t.Errorf("Expected error count >= 1, got %f", count)
		}
	})
}

// TestCollector_AuditMetrics tests audit pipeline metric recording
func TestCollector_AuditMetrics(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	t.Run("record written", func(t *testing.T) {
		collector.RecordAuditWritten("config.updated")
		count := testutil.ToFloat64(collector.auditMetrics.eventsTotal.WithLabelValues("config.updated"))
		if count < 1 {
			t.Errorf("Expected written count >= 1, got %f", count)
		}
	})

	t.Run("record dropped", func(t *testing.T) {
		collector.RecordAuditDropped()
		count := testutil.ToFloat64(collector.auditMetrics.droppedTotal)
		if count < 1 {
			t.Errorf("Expected dropped count >= 1, got %f", count)
		}
	})

	t.Run("record failure", func(t *testing.T) {
		collector.RecordAuditFailure()
		count := testutil.ToFloat64(collector.auditMetrics.failuresTotal)
		if count < 1 {
			t.Errorf("Expected failure count >= 1, got %f", count)
		}
	})

	t.Run("update buffer depth", func(t *testing.T) {
		collector.UpdateAuditBufferDepth(17)
		depth := testutil.ToFloat64(collector.auditMetrics.bufferDepth)
		if depth != 17 {
			t.Errorf("Expected buffer depth=17, got %f", depth)
		}
	})
}

// TestCollector_Disabled tests that metrics are not recorded when disabled
func TestCollector_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	// None of these should record or panic
	collector.RecordOperation("get", "payments", "success", time.Millisecond)
	collector.RecordValueSize("set", 1024)
	collector.RecordSecretAccess("seal")
	collector.RecordCacheHit("l1")
	collector.UpdateCacheEntries("l1", 10)
	collector.RecordAuditWritten("config.updated")
	collector.UpdateAuditBufferDepth(5)

	count := testutil.ToFloat64(collector.storeMetrics.operationsTotal.WithLabelValues("get", "payments", "success"))
	if count != 0 {
		t.Errorf("Expected no recording when disabled, got %f", count)
	}
}

// TestCollector_NamespaceCardinality tests that namespace overflow folds into "other"
func TestCollector_NamespaceCardinality(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)
	collector.cardinalityLimiter = NewCardinalityLimiter(2)

	collector.RecordOperation("get", "payments", "success", time.Millisecond)
	collector.RecordOperation("get", "billing", "success", time.Millisecond)
	collector.RecordOperation("get", "shipping", "success", time.Millisecond)
	collector.RecordOperation("get", "shipping", "success", time.Millisecond)

	folded := testutil.ToFloat64(collector.storeMetrics.operationsTotal.WithLabelValues("get", "other", "success"))
	if folded != 2 {
		t.Errorf("Expected 2 operations folded into 'other', got %f", folded)
	}

	// Label sets admitted before the limit keep recording under their own name
	collector.RecordOperation("get", "payments", "success", time.Millisecond)
	kept := testutil.ToFloat64(collector.storeMetrics.operationsTotal.WithLabelValues("get", "payments", "success"))
	if kept != 2 {
		t.Errorf("Expected 2 operations for payments, got %f", kept)
	}
}

// TestCardinalityLimiter tests cardinality limiting
func TestCardinalityLimiter(t *testing.T) {
	limiter := NewCardinalityLimiter(3)

	// First 3 should be allowed
	if !limiter.Allow("label1") {
		t.Error("Expected first label to be allowed")
	}
	if !limiter.Allow("label2") {
		t.Error("Expected second label to be allowed")
	}
	if !limiter.Allow("label3") {
		t.Error("Expected third label to be allowed")
	}

	// Fourth should be rejected
	if limiter.Allow("label4") {
		t.Error("Expected fourth label to be rejected")
	}

	// Existing labels should still be allowed
	if !limiter.Allow("label1") {
		t.Error("Expected existing label to be allowed")
	}

	// Check count
	if limiter.Count() != 3 {
		t.Errorf("Expected count=3, got %d", limiter.Count())
	}
}

// TestStoreMetrics_RecordValueSize tests value size recording
func TestStoreMetrics_RecordValueSize(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	sm := NewStoreMetrics(cfg, registry)

	sm.RecordValueSize("set", 5120)
	sm.RecordValueSize("rollback", 128)

	// Zero and negative sizes are skipped
	sm.RecordValueSize("set", 0)
	sm.RecordValueSize("set", -1)
}

// TestCacheMetrics_RecordEviction tests eviction recording
func TestCacheMetrics_RecordEviction(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	cm := NewCacheMetrics(cfg, registry)

	cm.RecordEviction("l1")

	// Verify eviction was recorded
	count := testutil.ToFloat64(cm.evictionsTotal.WithLabelValues("l1"))
	if count < 1 {
		t.Errorf("Expected eviction count >= 1, got %f", count)
	}
}

// TestCollector_ConcurrentRecording tests thread-safety
func TestCollector_ConcurrentRecording(t *testing.T) {
	cfg := testConfig()
	registry := prometheus.NewRegistry()
	collector := NewCollector(cfg, registry)

	done := make(chan bool)

	// Spawn multiple goroutines recording metrics
	for i := 0; i < 10; i++ {
		go func() {
			for j := 0; j < 100; j++ {
				collector.RecordOperation("get", "payments", "success", time.Millisecond)
				collector.RecordCacheHit("l1")
				collector.RecordAuditWritten("config.read")
			}
			done <- true
		}()
	}

	// Wait for all goroutines
	for i := 0; i < 10; i++ {
		<-done
	}

	// Verify we got all operations recorded
	count := testutil.ToFloat64(collector.storeMetrics.operationsTotal.WithLabelValues("get", "payments", "success"))
	if count != 1000 {
		t.Errorf("Expected 1000 operations, got %f", count)
	}
}
