package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"mercator-hq/vesta/pkg/audit"
	auditstorage "mercator-hq/vesta/pkg/audit/storage"
	"mercator-hq/vesta/pkg/cache"
	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/crypto"
	"mercator-hq/vesta/pkg/rbac"
	"mercator-hq/vesta/pkg/store"
	"mercator-hq/vesta/pkg/store/manager"
	"mercator-hq/vesta/pkg/store/storage"
	"mercator-hq/vesta/pkg/telemetry/health"
	"mercator-hq/vesta/pkg/telemetry/logging"
	"mercator-hq/vesta/pkg/telemetry/metrics"
)

// application holds the wired components of a running Vesta instance. The
// manager owns the audit logger, cache, and backend and closes them; the
// application closes everything else.
type application struct {
	cfg    *config.Config
	logger *slog.Logger

	manager   *manager.Manager
	auditSink audit.Sink
	enforcer  *rbac.Enforcer
	watcher   *rbac.Watcher
	keyring   *crypto.Keyring
	collector *metrics.Collector
	checker   *health.Checker
}

// buildOptions trims the wiring down for CLI commands that do not need the
// server-side collaborators.
type buildOptions struct {
	// skipCache leaves the read cache out. Direct CLI commands are
	// one-shot processes; a process-local cache buys them nothing.
	skipCache bool

	// skipWatch leaves the policy file watcher out.
	skipWatch bool
}

func buildApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts buildOptions) (*application, error) {
	app := &application{cfg: cfg, logger: logger}

	backend, err := buildBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}

	builder := manager.NewBuilder(backend).WithLogger(logger)

	if cfg.Telemetry.Metrics.Enabled {
		app.collector = metrics.NewCollector(&cfg.Telemetry.Metrics, prometheus.NewRegistry())
		builder = builder.WithMetrics(app.collector)
	}

	if cfg.Cache.Enabled && !opts.skipCache {
		cacheManager, err := buildCache(cfg, app.collector)
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		builder = builder.WithCache(cacheManager)
	}

	if cfg.Crypto.Enabled {
		engine, keyring, err := buildCrypto(&cfg.Crypto)
		if err != nil {
			_ = backend.Close()
			return nil, err
		}
		app.keyring = keyring
		builder = builder.WithCrypto(engine)
	}

	if cfg.RBAC.Enabled {
		enforcer, watcher, err := buildRBAC(ctx, &cfg.RBAC, !opts.skipWatch, logger)
		if err != nil {
			app.closePartial(backend)
			return nil, err
		}
		app.enforcer = enforcer
		app.watcher = watcher
		builder = builder.WithEnforcer(enforcer)
	}

	if cfg.Audit.Enabled {
		sink, auditLogger, err := buildAudit(&cfg.Audit, app.collector)
		if err != nil {
			app.closePartial(backend)
			return nil, err
		}
		app.auditSink = sink
		builder = builder.WithAudit(auditLogger)
	}

	mgr, err := builder.Build()
	if err != nil {
		app.closePartial(backend)
		return nil, err
	}
	app.manager = mgr

	app.checker = health.NewChecker(0)
	app.checker.Register("storage", func(ctx context.Context) error {
		probe := store.NewConfigKey("vesta", "health.probe", store.EnvBase)
		if _, err := backend.GetCurrent(ctx, probe); err != nil && !store.IsNotFound(err) {
			return err
		}
		return nil
	})
	if app.auditSink != nil {
		app.checker.Register("audit", func(ctx context.Context) error {
			_, err := app.auditSink.LastSequence(ctx)
			return err
		})
	}

	return app, nil
}

// closePartial releases components acquired before a build failure. The
// manager does not exist yet, so the backend is closed directly.
func (app *application) closePartial(backend store.Backend) {
	_ = backend.Close()
	if app.watcher != nil {
		_ = app.watcher.Stop()
	}
	if app.keyring != nil {
		app.keyring.Close()
	}
}

// Close shuts the application down. The manager drains the audit logger,
// stops the cache, and closes the backend; the watcher and keyring are
// released afterwards.
func (app *application) Close() error {
	var errs []error
	if app.watcher != nil {
		if err := app.watcher.Stop(); err != nil {
			errs = append(errs, err)
		}
	}
	if app.manager != nil {
		if err := app.manager.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if app.keyring != nil {
		app.keyring.Close()
	}
	return errors.Join(errs...)
}

func buildBackend(ctx context.Context, cfg *config.Config) (store.Backend, error) {
	switch cfg.Storage.Backend {
	case "memory":
		return storage.NewMemoryBackend(), nil
	case "sqlite":
		return storage.NewSQLiteBackend(&storage.SQLiteConfig{
			Path:         cfg.Storage.SQLite.Path,
			MaxOpenConns: cfg.Storage.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.Storage.SQLite.MaxIdleConns,
			WALMode:      cfg.Storage.SQLite.WALMode,
			BusyTimeout:  cfg.Storage.SQLite.BusyTimeout,
		})
	case "postgres":
		return storage.NewPostgresBackend(ctx, &storage.PostgresConfig{
			DSN:            cfg.Storage.Postgres.DSN(),
			MaxConns:       cfg.Storage.Postgres.MaxConns,
			MinConns:       cfg.Storage.Postgres.MinConns,
			ConnectTimeout: cfg.Storage.Postgres.ConnectTimeout,
		})
	}
	return nil, fmt.Errorf("unsupported storage backend: %s", cfg.Storage.Backend)
}

func buildCache(cfg *config.Config, collector *metrics.Collector) (*cache.Manager, error) {
	var l2 cache.Tier
	switch cfg.Cache.L2 {
	case "", "none":
	case "redis":
		tier, err := cache.NewRedisTier(&cache.RedisConfig{
			Addr:           cfg.Cache.Redis.Addr,
			Password:       cfg.Cache.Redis.Password,
			DB:             cfg.Cache.Redis.DB,
			KeyPrefix:      cfg.Cache.Redis.KeyPrefix,
			OpTimeout:      cfg.Cache.Redis.OpTimeout,
			ConnectTimeout: cfg.Cache.Redis.ConnectTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("redis cache tier: %w", err)
		}
		l2 = tier
	case "file":
		tier, err := cache.NewFileTier(cfg.Cache.File.Dir)
		if err != nil {
			return nil, fmt.Errorf("file cache tier: %w", err)
		}
		l2 = tier
	default:
		return nil, fmt.Errorf("unsupported cache tier: %s", cfg.Cache.L2)
	}

	return cache.NewManager(&cache.Config{
		L1Capacity: cfg.Cache.L1Capacity,
		L1TTL:      cfg.Cache.L1TTL,
		L2TTL:      cfg.Cache.L2TTL,
		Metrics:    collector,
	}, l2), nil
}

func buildCrypto(cfg *config.CryptoConfig) (*crypto.Engine, *crypto.Keyring, error) {
	if len(cfg.Keys) == 0 {
		return nil, nil, fmt.Errorf("crypto is enabled but no keys are configured")
	}
	keyring := crypto.NewKeyring()
	for _, keyCfg := range cfg.Keys {
		material, err := keyCfg.ResolveMaterial()
		if err != nil {
			keyring.Close()
			return nil, nil, fmt.Errorf("key %q: %w", keyCfg.ID, err)
		}
		err = keyring.Add(keyCfg.ID, material)
		crypto.Zero(material)
		if err != nil {
			keyring.Close()
			return nil, nil, fmt.Errorf("key %q: %w", keyCfg.ID, err)
		}
	}
	if cfg.ActiveKey != "" {
		if err := keyring.SetActive(cfg.ActiveKey); err != nil {
			keyring.Close()
			return nil, nil, err
		}
	}

	engine, err := crypto.NewEngine(keyring)
	if err != nil {
		keyring.Close()
		return nil, nil, err
	}
	return engine, keyring, nil
}

func buildRBAC(ctx context.Context, cfg *config.RBACConfig, watch bool, logger *slog.Logger) (*rbac.Enforcer, *rbac.Watcher, error) {
	enforcer := rbac.NewEnforcer()
	source := rbac.NewFileSource(cfg.PolicyFile)
	if err := source.Apply(enforcer); err != nil {
		return nil, nil, fmt.Errorf("policy file %q: %w", cfg.PolicyFile, err)
	}

	var watcher *rbac.Watcher
	if watch && cfg.Watch {
		w, err := rbac.NewWatcher(cfg.PolicyFile, cfg.WatchDebounce)
		if err != nil {
			return nil, nil, fmt.Errorf("policy watcher: %w", err)
		}
		// Watch blocks until Stop or context cancellation.
		go func() {
			if err := w.Watch(ctx, func() error { return source.Apply(enforcer) }); err != nil {
				logger.Error("policy watcher exited", "error", err)
			}
		}()
		watcher = w
	}
	return enforcer, watcher, nil
}

func buildAudit(cfg *config.AuditConfig, collector *metrics.Collector) (audit.Sink, *audit.Logger, error) {
	var (
		sink audit.Sink
		err  error
	)
	switch cfg.Sink {
	case "memory":
		sink = auditstorage.NewMemorySink()
	case "file":
		sink, err = auditstorage.NewFileSink(&auditstorage.FileSinkConfig{
			Path:        cfg.File.Path,
			SyncOnWrite: cfg.File.SyncOnWrite,
		})
	case "sqlite":
		sink, err = auditstorage.NewSQLiteSink(&auditstorage.SQLiteSinkConfig{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
	default:
		err = fmt.Errorf("unsupported audit sink: %s", cfg.Sink)
	}
	if err != nil {
		return nil, nil, err
	}

	auditLogger, err := audit.NewLogger(sink, &audit.Config{
		BufferSize:   cfg.BufferSize,
		WriteTimeout: cfg.WriteTimeout,
		MaxRetries:   cfg.MaxRetries,
		RetryBackoff: cfg.RetryBackoff,
		Metrics:      collector,
	})
	if err != nil {
		_ = sink.Close()
		return nil, nil, err
	}
	return sink, auditLogger, nil
}

// loadConfigAndLogger is the common preamble of every command: load and
// validate the configuration, then build the root logger from its telemetry
// section.
func loadConfigAndLogger() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, nil, err
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.New(&cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	slog.SetDefault(logger)
	return cfg, logger, nil
}

// commandTimeout bounds direct backend commands so a wedged database cannot
// hang the CLI.
const commandTimeout = 30 * time.Second
