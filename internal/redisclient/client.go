package redisclient

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"storefront/internal/catalog"
)

//go:embed scripts/release_lock.lua
var releaseLockScript string

const catalogSnapshotKey = "catalog:snapshot"

// ErrCacheMiss is returned when a cached value is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// ErrLockHeld is returned when another holder owns the lock.
var ErrLockHeld = errors.New("lock held by another request")

type Client struct {
	rdb           *redis.Client
	releaseScript *redis.Script
}

// NewClient creates a new Redis client with Lua scripts loaded
func NewClient(addr, password string, db int) (*Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &Client{
		rdb:           rdb,
		releaseScript: redis.NewScript(releaseLockScript),
	}, nil
}

// Ping checks connectivity for readiness probes
func (c *Client) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Close closes the Redis connection
func (c *Client) Close() error {
	return c.rdb.Close()
}

// GetCatalog returns the cached product snapshot
func (c *Client) GetCatalog(ctx context.Context) ([]catalog.Product, error) {
	raw, err := c.rdb.Get(ctx, catalogSnapshotKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog snapshot: %w", err)
	}

	var products []catalog.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, fmt.Errorf("failed to decode catalog snapshot: %w", err)
	}
	return products, nil
}

// SetCatalog caches the product snapshot for ttl
func (c *Client) SetCatalog(ctx context.Context, products []catalog.Product, ttl time.Duration) error {
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("failed to encode catalog snapshot: %w", err)
	}
	return c.rdb.Set(ctx, catalogSnapshotKey, raw, ttl).Err()
}

// InvalidateCatalog drops the product snapshot
func (c *Client) InvalidateCatalog(ctx context.Context) error {
	return c.rdb.Del(ctx, catalogSnapshotKey).Err()
}

// SetIdempotencyKey stores a result under key unless one is already there.
// It reports whether this call stored it.
func (c *Client) SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return false, fmt.Errorf("failed to encode idempotency value: %w", err)
	}
	return c.rdb.SetNX(ctx, "idempotency:"+key, raw, ttl).Result()
}

// GetIdempotencyKey decodes the result stored under key into out
func (c *Client) GetIdempotencyKey(ctx context.Context, key string, out interface{}) error {
	raw, err := c.rdb.Get(ctx, "idempotency:"+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// AcquireLock takes lockKey for ttl and returns the owner token needed to
// release it. ErrLockHeld means someone else has it.
func (c *Client) AcquireLock(ctx context.Context, lockKey string, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := c.rdb.SetNX(ctx, "lock:"+lockKey, token, ttl).Result()
	if err != nil {
		return "", fmt.Errorf("failed to acquire lock %s: %w", lockKey, err)
	}
	if !ok {
		return "", ErrLockHeld
	}
	return token, nil
}

// ReleaseLock releases lockKey if token still owns it
func (c *Client) ReleaseLock(ctx context.Context, lockKey, token string) error {
	if _, err := c.releaseScript.Run(ctx, c.rdb, []string{"lock:" + lockKey}, token).Result(); err != nil {
		return fmt.Errorf("release lock script failed: %w", err)
	}
	return nil
}
