package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"mercator-hq/vesta/pkg/store"
)

// RedisConfig contains configuration for the Redis cache tier.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string

	// Password authenticates against the server. Empty means no auth.
	Password string

	// DB selects the Redis logical database. Default: 0
	DB int

	// KeyPrefix namespaces the tier's keys. Default: "vesta:cache:"
	KeyPrefix string

	// OpTimeout bounds each cache operation so a slow Redis cannot stall
	// the read path. Default: 250ms
	OpTimeout time.Duration

	// ConnectTimeout bounds the initial ping. Default: 2 seconds
	ConnectTimeout time.Duration
}

// DefaultRedisConfig returns the default Redis tier configuration.
func DefaultRedisConfig() *RedisConfig {
	return &RedisConfig{
		Addr:           "localhost:6379",
		KeyPrefix:      "vesta:cache:",
		OpTimeout:      250 * time.Millisecond,
		ConnectTimeout: 2 * time.Second,
	}
}

// RedisTier implements Tier on a Redis server, for deployments where
// multiple nodes share one cache.
type RedisTier struct {
	client *redis.Client
	config *RedisConfig
	logger *slog.Logger
}

// NewRedisTier connects to Redis and verifies the connection before
// accepting traffic.
func NewRedisTier(config *RedisConfig) (*RedisTier, error) {
	if config == nil {
		config = DefaultRedisConfig()
	}
	defaults := DefaultRedisConfig()
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaults.KeyPrefix
	}
	if config.OpTimeout <= 0 {
		config.OpTimeout = defaults.OpTimeout
	}
	if config.ConnectTimeout <= 0 {
		config.ConnectTimeout = defaults.ConnectTimeout
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), config.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisTier{
		client: client,
		config: config,
		logger: slog.Default().With("component", "cache.redis"),
	}, nil
}

func (t *RedisTier) key(key string) string {
	return t.config.KeyPrefix + key
}

// Get returns the cached entry for key, or ErrMiss.
func (t *RedisTier) Get(ctx context.Context, key string) (*store.ConfigEntry, error) {
	opCtx, cancel := context.WithTimeout(ctx, t.config.OpTimeout)
	defer cancel()

	data, err := t.client.Get(opCtx, t.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrMiss
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var entry store.ConfigEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		// A corrupt payload reads as a miss after deleting the key so it
		// cannot poison later reads.
		t.logger.Warn("dropping undecodable cache entry", "key", key, "error", err)
		t.client.Del(opCtx, t.key(key))
		return nil, ErrMiss
	}
	return &entry, nil
}

// Set stores entry under key with the given TTL.
func (t *RedisTier) Set(ctx context.Context, key string, entry *store.ConfigEntry, ttl time.Duration) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("redis set marshal: %w", err)
	}

	opCtx, cancel := context.WithTimeout(ctx, t.config.OpTimeout)
	defer cancel()

	if err := t.client.Set(opCtx, t.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete removes key.
func (t *RedisTier) Delete(ctx context.Context, key string) error {
	opCtx, cancel := context.WithTimeout(ctx, t.config.OpTimeout)
	defer cancel()

	if err := t.client.Del(opCtx, t.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Clear removes every key under the tier's prefix using SCAN so a large
// cache does not block the server the way KEYS would.
func (t *RedisTier) Clear(ctx context.Context) error {
	iter := t.client.Scan(ctx, 0, t.config.KeyPrefix+"*", 100).Iterator()

	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := t.client.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("redis clear: %w", err)
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= 100 {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis clear scan: %w", err)
	}
	return flush()
}

// Close closes the Redis client.
func (t *RedisTier) Close() error {
	return t.client.Close()
}
