package cache

import (
	"context"
	"sync"
	"time"

	"github.com/Veraticus/spice-lens/internal/model"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = 15 * time.Minute

// MemoryCache provides thread-safe in-process caching of predictions.
type MemoryCache struct {
	entries map[string]entry
	stopCh  chan struct{}
	ttl     time.Duration
	mu      sync.RWMutex
	once    sync.Once
}

// NewMemoryCache creates a new cache with the specified TTL.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	cache := &MemoryCache{
		entries: make(map[string]entry),
		ttl:     ttl,
		stopCh:  make(chan struct{}),
	}

	go cache.cleanup(cleanupInterval(ttl))

	return cache
}

func cleanupInterval(ttl time.Duration) time.Duration {
	if ttl < 5*time.Minute {
		return ttl
	}
	return 5 * time.Minute
}

// Get retrieves a prediction if it exists and hasn't expired.
func (c *MemoryCache) Get(_ context.Context, key string) (model.PredictionResult, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, exists := c.entries[key]
	if !exists {
		return model.PredictionResult{}, false
	}

	if time.Now().After(e.Expiry) {
		return model.PredictionResult{}, false
	}

	return copyResult(e.Result), true
}

// Set stores a prediction.
func (c *MemoryCache) Set(_ context.Context, key string, result model.PredictionResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		Result: copyResult(result),
		Expiry: time.Now().Add(c.ttl),
	}
}

// cleanup periodically removes expired entries.
func (c *MemoryCache) cleanup(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			c.mu.Lock()
			now := time.Now()
			for key, e := range c.entries {
				if now.After(e.Expiry) {
					delete(c.entries, key)
				}
			}
			c.mu.Unlock()
		}
	}
}

// Clear removes all entries from the cache.
func (c *MemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry)
}

// Size returns the number of entries in the cache.
func (c *MemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (c *MemoryCache) Close() error {
	c.once.Do(func() { close(c.stopCh) })
	return nil
}

// copyResult detaches the risk factor slice so callers never share it.
func copyResult(r model.PredictionResult) model.PredictionResult {
	if r.RiskFactors != nil {
		r.RiskFactors = append([]string(nil), r.RiskFactors...)
	}
	return r
}
