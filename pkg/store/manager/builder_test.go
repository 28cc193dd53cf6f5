package manager

import (
	"bytes"
	"context"
	"testing"
	"time"

	"mercator-hq/vesta/pkg/store"
	"mercator-hq/vesta/pkg/store/storage"
)

// TestBuilder_RequiresBackend tests that Build refuses a nil backend.
func TestBuilder_RequiresBackend(t *testing.T) {
	if _, err := NewBuilder(nil).Build(); err == nil {
		t.Fatal("Build() succeeded without a backend")
	}
}

// TestBuilder_MinimalManager tests a manager with only a backend: no
// authorization, no audit, no cache, no crypto. Reads and writes work for
// any actor; concerns that need a collaborator stay disabled.
func TestBuilder_MinimalManager(t *testing.T) {
	mgr, err := NewBuilder(storage.NewMemoryBackend()).Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	defer mgr.Close()
	ctx := context.Background()

	// No enforcer means any actor may write and read.
	if _, err := mgr.Set(ctx, "payments", "timeout-ms", store.EnvBase,
		[]byte("2500"), SetOptions{}, "anyone"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	got, err := mgr.Get(ctx, "payments", "timeout-ms", store.EnvBase, "anyone-else")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !bytes.Equal(got.Value, []byte("2500")) {
		t.Errorf("Value = %q, want %q", got.Value, "2500")
	}
}

// TestBuilder_WithClock tests that the injected time source is used for
// operation timing instead of the wall clock.
func TestBuilder_WithClock(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	calls := 0
	clock := func() time.Time {
		calls++
		return fixed
	}

	mgr, err := NewBuilder(storage.NewMemoryBackend()).WithClock(clock).Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}
	defer mgr.Close()

	if _, err := mgr.Set(context.Background(), "payments", "k", store.EnvBase,
		[]byte("v"), SetOptions{}, "alice"); err != nil {
		t.Fatalf("Set() failed: %v", err)
	}
	if calls == 0 {
		t.Error("Injected clock was never consulted")
	}
}
