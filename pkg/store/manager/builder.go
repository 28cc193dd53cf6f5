package manager

import (
	"fmt"
	"log/slog"
	"time"

	"mercator-hq/vesta/pkg/audit"
	"mercator-hq/vesta/pkg/cache"
	"mercator-hq/vesta/pkg/crypto"
	"mercator-hq/vesta/pkg/rbac"
	"mercator-hq/vesta/pkg/store"
	"mercator-hq/vesta/pkg/telemetry/metrics"
)

// Builder assembles a Manager from a required storage backend and whatever
// optional collaborators the deployment configures. Each With method wires
// one collaborator; omitted ones leave their concern disabled rather than
// substituting a hidden default.
type Builder struct {
	backend  store.Backend
	cache    *cache.Manager
	enforcer *rbac.Enforcer
	auditor  *audit.Logger
	crypto   *crypto.Engine
	metrics  *metrics.Collector
	logger   *slog.Logger
	clock    func() time.Time
}

// NewBuilder starts a Builder around the storage backend.
func NewBuilder(backend store.Backend) *Builder {
	return &Builder{backend: backend}
}

// WithCache wires the two-tier cache in front of the backend.
func (b *Builder) WithCache(c *cache.Manager) *Builder {
	b.cache = c
	return b
}

// WithEnforcer wires RBAC authorization. Without an enforcer every actor is
// allowed every action; with one, access is deny-by-default.
func (b *Builder) WithEnforcer(e *rbac.Enforcer) *Builder {
	b.enforcer = e
	return b
}

// WithAudit wires the audit logger. Every operation outcome, including
// denials and failed secret accesses, is then recorded.
func (b *Builder) WithAudit(a *audit.Logger) *Builder {
	b.auditor = a
	return b
}

// WithCrypto wires the envelope encryption engine. Without it, writes with
// SetOptions.Secret and reads of existing secret entries fail with
// EncryptionError.
func (b *Builder) WithCrypto(e *crypto.Engine) *Builder {
	b.crypto = e
	return b
}

// WithMetrics wires the Prometheus collector.
func (b *Builder) WithMetrics(c *metrics.Collector) *Builder {
	b.metrics = c
	return b
}

// WithLogger sets the structured logger. Defaults to slog.Default.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides the time source, for tests.
func (b *Builder) WithClock(clock func() time.Time) *Builder {
	b.clock = clock
	return b
}

// Build validates the configuration and returns the Manager.
func (b *Builder) Build() (*Manager, error) {
	if b.backend == nil {
		return nil, fmt.Errorf("manager: storage backend is required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}
	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	return &Manager{
		backend:  b.backend,
		cache:    b.cache,
		enforcer: b.enforcer,
		auditor:  b.auditor,
		crypto:   b.crypto,
		metrics:  b.metrics,
		logger:   logger.With("component", "store.manager"),
		clock:    clock,
	}, nil
}
