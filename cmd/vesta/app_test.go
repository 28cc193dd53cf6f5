package main

import (
	"context"
	"encoding/hex"
	"log/slog"
	"testing"

	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/store"
	"mercator-hq/vesta/pkg/store/manager"
)

func memoryConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Storage.Backend = "memory"
	cfg.Audit.Sink = "memory"
	cfg.Cache.L2 = "none"
	return cfg
}

func TestBuildBackend(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		backend, err := buildBackend(context.Background(), memoryConfig())
		if err != nil {
			t.Fatalf("buildBackend: %v", err)
		}
		defer backend.Close()
	})

	t.Run("sqlite", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Storage.Backend = "sqlite"
		cfg.Storage.SQLite.Path = t.TempDir() + "/vesta.db"
		backend, err := buildBackend(context.Background(), cfg)
		if err != nil {
			t.Fatalf("buildBackend: %v", err)
		}
		defer backend.Close()
	})

	t.Run("unsupported", func(t *testing.T) {
		cfg := memoryConfig()
		cfg.Storage.Backend = "etcd"
		if _, err := buildBackend(context.Background(), cfg); err == nil {
			t.Error("expected error for unsupported backend")
		}
	})
}

func TestBuildCrypto(t *testing.T) {
	material := hex.EncodeToString(make([]byte, 32))

	t.Run("inline material", func(t *testing.T) {
		engine, keyring, err := buildCrypto(&config.CryptoConfig{
			Enabled:   true,
			ActiveKey: "k1",
			Keys:      []config.KeyConfig{{ID: "k1", Material: material}},
		})
		if err != nil {
			t.Fatalf("buildCrypto: %v", err)
		}
		defer keyring.Close()
		if engine.ActiveKeyID() != "k1" {
			t.Errorf("active key = %q, want k1", engine.ActiveKeyID())
		}
	})

	t.Run("unknown active key", func(t *testing.T) {
		_, _, err := buildCrypto(&config.CryptoConfig{
			Enabled:   true,
			ActiveKey: "missing",
			Keys:      []config.KeyConfig{{ID: "k1", Material: material}},
		})
		if err == nil {
			t.Error("expected error for unknown active key")
		}
	})

	t.Run("no keys", func(t *testing.T) {
		if _, _, err := buildCrypto(&config.CryptoConfig{Enabled: true}); err == nil {
			t.Error("expected error when no keys are configured")
		}
	})
}

func TestBuildApplication(t *testing.T) {
	app, err := buildApplication(context.Background(), memoryConfig(), slog.Default(), buildOptions{})
	if err != nil {
		t.Fatalf("buildApplication: %v", err)
	}
	defer app.Close()

	if app.manager == nil {
		t.Fatal("manager is nil")
	}
	if app.auditSink == nil {
		t.Error("audit sink is nil with audit enabled")
	}
	if app.checker == nil {
		t.Fatal("health checker is nil")
	}

	// The wired manager round-trips a value.
	ctx := context.Background()
	if _, err := app.manager.Set(ctx, "payments", "db.host", store.EnvBase,
		[]byte("db.internal"), manager.SetOptions{}, "tester"); err != nil {
		t.Fatalf("set: %v", err)
	}
	entry, err := app.manager.Get(ctx, "payments", "db.host", store.EnvBase, "tester")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(entry.Value) != "db.internal" {
		t.Errorf("value = %q, want db.internal", entry.Value)
	}

	// Probes registered during wiring pass against the live components.
	status := app.checker.Readiness(ctx)
	if status.Status != "ready" {
		t.Errorf("readiness = %q, want ready", status.Status)
	}
}
