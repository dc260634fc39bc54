// Package cache provides the Redis-backed directory cache. It keeps hot
// directory lookups (warehouse lock flags) off the database on the
// per-movement hot path.
package cache

import (
	"context"
	"time"

	redis "github.com/redis/go-redis/v9"

	"stockyard/internal/core/id"
	"stockyard/internal/domain/directory"
)

const warehouseLockedKeyPrefix = "stockyard:wh:locked:"

// DirectoryCache implements directory.Cache over Redis. A cache miss is
// a normal condition; callers fall through to the database.
type DirectoryCache struct {
	client *redis.Client
}

// NewDirectoryCache creates a directory cache with its own Redis client.
func NewDirectoryCache(addr, password string, db int) *DirectoryCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	return &DirectoryCache{client: client}
}

// NewDirectoryCacheFromClient wraps an existing Redis client.
func NewDirectoryCacheFromClient(client *redis.Client) *DirectoryCache {
	return &DirectoryCache{client: client}
}

// Ping verifies connectivity.
func (c *DirectoryCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (c *DirectoryCache) Close() error {
	return c.client.Close()
}

func warehouseLockedKey(warehouseID id.ID) string {
	return warehouseLockedKeyPrefix + warehouseID.String()
}

// GetWarehouseLocked returns the cached lock flag for a warehouse.
func (c *DirectoryCache) GetWarehouseLocked(ctx context.Context, warehouseID id.ID) (bool, bool, error) {
	val, err := c.client.Get(ctx, warehouseLockedKey(warehouseID)).Result()
	if err == redis.Nil {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}

	return val == "1", true, nil
}

// SetWarehouseLocked caches the lock flag for a warehouse.
func (c *DirectoryCache) SetWarehouseLocked(ctx context.Context, warehouseID id.ID, locked bool, ttl time.Duration) error {
	val := "0"
	if locked {
		val = "1"
	}
	return c.client.Set(ctx, warehouseLockedKey(warehouseID), val, ttl).Err()
}

// InvalidateWarehouse drops cached state for a warehouse.
func (c *DirectoryCache) InvalidateWarehouse(ctx context.Context, warehouseID id.ID) error {
	return c.client.Del(ctx, warehouseLockedKey(warehouseID)).Err()
}

// Ensure interface compliance.
var _ directory.Cache = (*DirectoryCache)(nil)
