package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"mercator-hq/vesta/pkg/store"
)

// fakeTier is an in-memory Tier with injectable failures.
type fakeTier struct {
	mu      sync.Mutex
	entries map[string]*store.ConfigEntry
	failAll bool
	sets    int
	deletes int
}

func newFakeTier() *fakeTier {
	return &fakeTier{entries: make(map[string]*store.ConfigEntry)}
}

func (f *fakeTier) Get(ctx context.Context, key string) (*store.ConfigEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return nil, errors.New("tier down")
	}
	entry, ok := f.entries[key]
	if !ok {
		return nil, ErrMiss
	}
	return entry.Clone(), nil
}

func (f *fakeTier) Set(ctx context.Context, key string, entry *store.ConfigEntry, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sets++
	if f.failAll {
		return errors.New("tier down")
	}
	f.entries[key] = entry.Clone()
	return nil
}

func (f *fakeTier) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.failAll {
		return errors.New("tier down")
	}
	delete(f.entries, key)
	return nil
}

func (f *fakeTier) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failAll {
		return errors.New("tier down")
	}
	f.entries = make(map[string]*store.ConfigEntry)
	return nil
}

func (f *fakeTier) Close() error { return nil }

func cacheEntry(value string) *store.ConfigEntry {
	return &store.ConfigEntry{
		ID:          "id-" + value,
		Namespace:   "app",
		Key:         "setting",
		Environment: store.EnvBase,
		Value:       []byte(value),
		Version:     1,
	}
}

func TestManager_PutThenGetFromL1(t *testing.T) {
	manager := NewManager(nil, nil)
	defer manager.Close()

	ctx := context.Background()
	key := store.ConfigKey{Namespace: "app", Key: "setting", Environment: store.EnvBase}

	manager.Put(ctx, key, cacheEntry("v1"))

	entry, ok := manager.Get(ctx, key)
	if !ok {
		t.Fatal("Expected L1 hit")
	}
	if string(entry.Value) != "v1" {
		t.Errorf("Expected value 'v1', got %q", entry.Value)
	}

	stats := manager.Stats()
	if stats.L1Hits != 1 {
		t.Errorf("Expected 1 L1 hit, got %d", stats.L1Hits)
	}
}

func TestManager_MissWithoutTier(t *testing.T) {
	manager := NewManager(nil, nil)
	defer manager.Close()

	key := store.ConfigKey{Namespace: "app", Key: "absent", Environment: store.EnvBase}
	if _, ok := manager.Get(context.Background(), key); ok {
		t.Error("Expected miss for absent key")
	}
}

func TestManager_L2HitPromotesToL1(t *testing.T) {
	tier := newFakeTier()
	manager := NewManager(nil, tier)
	defer manager.Close()

	ctx := context.Background()
	key := store.ConfigKey{Namespace: "app", Key: "setting", Environment: store.EnvBase}

	// Seed L2 only, bypassing the manager.
	if err := tier.Set(ctx, key.String(), cacheEntry("from-l2"), time.Minute); err != nil {
		t.Fatalf("tier.Set() failed: %v", err)
	}

	entry, ok := manager.Get(ctx, key)
	if !ok {
		t.Fatal("Expected L2 hit")
	}
	if string(entry.Value) != "from-l2" {
		t.Errorf("Expected value 'from-l2', got %q", entry.Value)
	}

	stats := manager.Stats()
	if stats.L2Hits != 1 {
		t.Errorf("Expected 1 L2 hit, got %d", stats.L2Hits)
	}

	// Second read must be served by L1.
	if _, ok := manager.Get(ctx, key); !ok {
		t.Fatal("Expected promoted L1 hit")
	}
	stats = manager.Stats()
	if stats.L1Hits != 1 {
		t.Errorf("Expected 1 L1 hit after promotion, got %d", stats.L1Hits)
	}
	if stats.L2Hits != 1 {
		t.Errorf("Expected L2 hits to stay at 1, got %d", stats.L2Hits)
	}
}

func TestManager_TierErrorReadsAsMiss(t *testing.T) {
	tier := newFakeTier()
	tier.failAll = true
	manager := NewManager(nil, tier)
	defer manager.Close()

	key := store.ConfigKey{Namespace: "app", Key: "setting", Environment: store.EnvBase}
	if _, ok := manager.Get(context.Background(), key); ok {
		t.Error("Expected miss when tier is down")
	}

	stats := manager.Stats()
	if stats.L2Errors != 1 {
		t.Errorf("Expected 1 L2 error, got %d", stats.L2Errors)
	}
}

func TestManager_PutSurvivesTierFailure(t *testing.T) {
	tier := newFakeTier()
	tier.failAll = true
	manager := NewManager(nil, tier)
	defer manager.Close()

	ctx := context.Background()
	key := store.ConfigKey{Namespace: "app", Key: "setting", Environment: store.EnvBase}

	manager.Put(ctx, key, cacheEntry("v1"))

	// L1 still serves the entry even though L2 rejected it.
	entry, ok := manager.Get(ctx, key)
	if !ok || string(entry.Value) != "v1" {
		t.Fatalf("Expected L1 hit with 'v1', got ok=%v", ok)
	}
}

func TestManager_InvalidateRemovesBothTiers(t *testing.T) {
	tier := newFakeTier()
	manager := NewManager(nil, tier)
	defer manager.Close()

	ctx := context.Background()
	key := store.ConfigKey{Namespace: "app", Key: "setting", Environment: store.EnvBase}

	manager.Put(ctx, key, cacheEntry("v1"))
	if err := manager.Invalidate(ctx, key); err != nil {
		t.Fatalf("Invalidate() failed: %v", err)
	}

	if _, ok := manager.Get(ctx, key); ok {
		t.Error("Expected miss after invalidation")
	}
	if tier.deletes != 1 {
		t.Errorf("Expected 1 tier delete, got %d", tier.deletes)
	}
}

func TestManager_InvalidateReportsTierFailure(t *testing.T) {
	tier := newFakeTier()
	manager := NewManager(nil, tier)
	defer manager.Close()

	ctx := context.Background()
	key := store.ConfigKey{Namespace: "app", Key: "setting", Environment: store.EnvBase}

	manager.Put(ctx, key, cacheEntry("v1"))
	tier.failAll = true

	if err := manager.Invalidate(ctx, key); err == nil {
		t.Error("Expected invalidation error from failed tier")
	}

	// L1 was still cleared.
	tier.failAll = false
	if _, ok := manager.Get(ctx, key); ok {
		t.Error("Expected L1 entry to be gone despite tier failure")
	}
}

func TestManager_Clear(t *testing.T) {
	tier := newFakeTier()
	manager := NewManager(nil, tier)
	defer manager.Close()

	ctx := context.Background()
	keyA := store.ConfigKey{Namespace: "app", Key: "a", Environment: store.EnvBase}
	keyB := store.ConfigKey{Namespace: "app", Key: "b", Environment: store.EnvBase}

	manager.Put(ctx, keyA, cacheEntry("a"))
	manager.Put(ctx, keyB, cacheEntry("b"))

	if err := manager.Clear(ctx); err != nil {
		t.Fatalf("Clear() failed: %v", err)
	}
	if manager.Len() != 0 {
		t.Errorf("Expected empty L1, got %d entries", manager.Len())
	}
	if _, ok := manager.Get(ctx, keyA); ok {
		t.Error("Expected miss after clear")
	}
}

func TestManager_ReturnsCopies(t *testing.T) {
	manager := NewManager(nil, nil)
	defer manager.Close()

	ctx := context.Background()
	key := store.ConfigKey{Namespace: "app", Key: "setting", Environment: store.EnvBase}

	manager.Put(ctx, key, cacheEntry("pristine"))

	first, ok := manager.Get(ctx, key)
	if !ok {
		t.Fatal("Expected hit")
	}
	first.Value[0] = 'X'

	second, ok := manager.Get(ctx, key)
	if !ok {
		t.Fatal("Expected hit")
	}
	if string(second.Value) != "pristine" {
		t.Errorf("Cached entry was mutated through a returned copy: %q", second.Value)
	}
}

func TestManager_L1Expiry(t *testing.T) {
	manager := NewManager(&Config{L1Capacity: 8, L1TTL: 20 * time.Millisecond, L2TTL: time.Minute}, nil)
	defer manager.Close()

	ctx := context.Background()
	key := store.ConfigKey{Namespace: "app", Key: "setting", Environment: store.EnvBase}

	manager.Put(ctx, key, cacheEntry("short-lived"))
	time.Sleep(60 * time.Millisecond)

	if _, ok := manager.Get(ctx, key); ok {
		t.Error("Expected entry to have expired from L1")
	}
}
