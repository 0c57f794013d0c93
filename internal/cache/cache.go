package cache

import (
	"context"
	"fmt"
	"time"

	"resumeforge/internal/config"
	"resumeforge/internal/errors"
	"resumeforge/internal/utils"
)

const jdAnalysisKeyPrefix = "jd_analysis:"

// Cache stores JSON-serializable values with a per-entry TTL. Both backends
// treat expired entries as absent.
type Cache interface {
	// GetJSON loads the value stored under key into dest. Returns false when
	// the key is missing, expired, or holds an undecodable value.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	Stats(ctx context.Context) (Stats, error)
	Close() error
}

// Stats describes the current cache population
type Stats struct {
	TotalEntries   int    `json:"totalEntries"`
	ActiveEntries  int    `json:"activeEntries"`
	ExpiredEntries int    `json:"expiredEntries"`
	CacheType      string `json:"cacheType"`
}

// JDAnalysisKey returns the cache key for a raw job description text.
// Identical postings (after trimming) share one key; md5 is a content
// fingerprint here, not a security boundary.
func JDAnalysisKey(rawText string) string {
	return jdAnalysisKeyPrefix + utils.ContentHash(rawText)
}

// New selects a cache backend from configuration
func New(cfg config.CacheConfig, logger *errors.Logger) (Cache, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryCache(cfg.CleanupInterval, logger), nil
	case "redis":
		return NewRedisCache(cfg.Redis, logger)
	default:
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig,
			fmt.Sprintf("Unsupported cache backend: %s", cfg.Backend), nil)
	}
}
