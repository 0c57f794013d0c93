package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"resumeforge/internal/errors"
)

const defaultCleanupInterval = 5 * time.Minute

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryCache is the single-process default backend. One mutex guards every
// read, write, and eviction, including the background sweep. Expired entries
// are treated as absent and evicted lazily on read; the sweep reclaims the
// rest.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	done    chan struct{} // Channel to signal sweep goroutine to stop
	logger  *errors.Logger
}

// NewMemoryCache creates a memory cache and starts its sweep goroutine
func NewMemoryCache(cleanupInterval time.Duration, logger *errors.Logger) *MemoryCache {
	if cleanupInterval <= 0 {
		cleanupInterval = defaultCleanupInterval
	}

	c := &MemoryCache{
		entries: make(map[string]memoryEntry),
		done:    make(chan struct{}),
		logger:  logger,
	}

	go c.sweepRoutine(cleanupInterval)
	return c
}

// GetJSON implements Cache
func (c *MemoryCache) GetJSON(_ context.Context, key string, dest any) (bool, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		ok = false
	}
	c.mu.Unlock()

	if !ok {
		return false, nil
	}

	if err := json.Unmarshal(entry.value, dest); err != nil {
		// An undecodable entry is useless; drop it and report a miss
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()

		if c.logger != nil {
			c.logger.Warn("Dropped undecodable cache entry", "key", key, "error", err.Error())
		}
		return false, nil
	}

	return true, nil
}

// SetJSON implements Cache
func (c *MemoryCache) SetJSON(_ context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return errors.NewInternalError(errors.ErrCodeCacheFailure,
			"Failed to encode cache value", err)
	}

	c.mu.Lock()
	c.entries[key] = memoryEntry{
		value:     raw,
		expiresAt: time.Now().Add(ttl),
	}
	c.mu.Unlock()

	return nil
}

// Delete implements Cache
func (c *MemoryCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

// Clear implements Cache
func (c *MemoryCache) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry)
	c.mu.Unlock()
	return nil
}

// Stats implements Cache
func (c *MemoryCache) Stats(_ context.Context) (Stats, error) {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	total := len(c.entries)
	expired := 0
	for _, entry := range c.entries {
		if now.After(entry.expiresAt) {
			expired++
		}
	}

	return Stats{
		TotalEntries:   total,
		ActiveEntries:  total - expired,
		ExpiredEntries: expired,
		CacheType:      "memory",
	}, nil
}

// Close stops the sweep goroutine
func (c *MemoryCache) Close() error {
	close(c.done)
	return nil
}

// sweepRoutine periodically removes expired entries
func (c *MemoryCache) sweepRoutine(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

// sweep removes every expired entry under the lock
func (c *MemoryCache) sweep() {
	now := time.Now()

	c.mu.Lock()
	removed := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			removed++
		}
	}
	remaining := len(c.entries)
	c.mu.Unlock()

	if removed > 0 && c.logger != nil {
		c.logger.Debug("Cache sweep completed",
			"removed_entries", removed,
			"remaining_entries", remaining)
	}
}
