package cache

import (
	"context"
	"encoding/json"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"

	"github.com/redis/go-redis/v9"
)

// RedisCache backs the cache with Redis for multi-process deployments. TTLs
// and eviction are delegated to the server, so stats only report live keys.
type RedisCache struct {
	client *redis.Client
	logger *errors.Logger
}

// NewRedisCache connects to Redis and verifies the connection
func NewRedisCache(cfg config.RedisConfig, logger *errors.Logger) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewStorageError(errors.ErrCodeCacheFailure,
			"Failed to connect to Redis at "+cfg.Addr, err)
	}

	return &RedisCache{
		client: client,
		logger: logger,
	}, nil
}

// GetJSON implements Cache
func (c *RedisCache) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, errors.NewStorageError(errors.ErrCodeCacheFailure,
			"Redis GET failed", err)
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		// An undecodable entry is useless; drop it and report a miss
		if delErr := c.client.Del(ctx, key).Err(); delErr != nil && c.logger != nil {
			c.logger.Warn("Failed to drop undecodable cache entry", "key", key, "error", delErr.Error())
		}
		return false, nil
	}

	return true, nil
}

// SetJSON implements Cache
func (c *RedisCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeCacheFailure,
			"Failed to encode cache value", err)
	}

	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return errors.NewStorageError(errors.ErrCodeCacheFailure,
			"Redis SET failed", err)
	}
	return nil
}

// Delete implements Cache
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return errors.NewStorageError(errors.ErrCodeCacheFailure,
			"Redis DEL failed", err)
	}
	return nil
}

// Clear implements Cache
func (c *RedisCache) Clear(ctx context.Context) error {
	if err := c.client.FlushDB(ctx).Err(); err != nil {
		return errors.NewStorageError(errors.ErrCodeCacheFailure,
			"Redis FLUSHDB failed", err)
	}
	return nil
}

// Stats implements Cache. Redis expires keys server-side, so every counted
// key is active.
func (c *RedisCache) Stats(ctx context.Context) (Stats, error) {
	size, err := c.client.DBSize(ctx).Result()
	if err != nil {
		return Stats{}, errors.NewStorageError(errors.ErrCodeCacheFailure,
			"Redis DBSIZE failed", err)
	}

	return Stats{
		TotalEntries:  int(size),
		ActiveEntries: int(size),
		CacheType:     "redis",
	}, nil
}

// Close releases the Redis connection
func (c *RedisCache) Close() error {
	return c.client.Close()
}
