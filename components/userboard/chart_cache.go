package userboard

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"sync"
	"time"
)

// DefaultChartCacheSize bounds the number of rendered charts kept at once.
const DefaultChartCacheSize = 64

// RenderCache hands back chart markup for a key, rendering on a miss.
type RenderCache interface {
	GetOrRender(key string, render func() (string, error)) (string, error)
}

// ChartCacheOption tunes a ChartCache.
type ChartCacheOption func(*ChartCache)

// WithChartCacheSize caps the entry count. Values below one keep the default.
func WithChartCacheSize(size int) ChartCacheOption {
	return func(c *ChartCache) {
		if size > 0 {
			c.size = size
		}
	}
}

// ChartCache keeps chart markup for a fixed lifetime and holds at most
// size entries; a full cache drops expired entries first, then the entry
// closest to expiry.
type ChartCache struct {
	lifetime time.Duration
	size     int
	now      func() time.Time

	mu    sync.Mutex
	items map[string]chartEntry
}

type chartEntry struct {
	markup    string
	expiresAt time.Time
}

// NewChartCache returns a cache whose entries live for lifetime. Zero or a
// negative lifetime turns the cache into a pass-through.
func NewChartCache(lifetime time.Duration, options ...ChartCacheOption) *ChartCache {
	c := &ChartCache{
		lifetime: lifetime,
		size:     DefaultChartCacheSize,
		now:      time.Now,
		items:    map[string]chartEntry{},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

func (c *ChartCache) GetOrRender(key string, render func() (string, error)) (string, error) {
	if c == nil || c.lifetime <= 0 {
		return render()
	}
	if markup, ok := c.lookup(key); ok {
		return markup, nil
	}
	markup, err := render()
	if err != nil {
		return "", err
	}
	c.store(key, markup)
	return markup, nil
}

// Len counts stored entries, including ones that expired but were not swept.
func (c *ChartCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *ChartCache) lookup(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.items[key]
	if !ok {
		return "", false
	}
	if !c.now().Before(entry.expiresAt) {
		delete(c.items, key)
		return "", false
	}
	return entry.markup, true
}

func (c *ChartCache) store(key, markup string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, exists := c.items[key]; !exists && len(c.items) >= c.size {
		c.evict(now)
	}
	c.items[key] = chartEntry{markup: markup, expiresAt: now.Add(c.lifetime)}
}

// evict must be called with mu held.
func (c *ChartCache) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, entry := range c.items {
		if !now.Before(entry.expiresAt) {
			delete(c.items, key)
			continue
		}
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	if len(c.items) >= c.size && oldestKey != "" {
		delete(c.items, oldestKey)
	}
}

// rankingHash fingerprints the ranked entries so identical rankings map to
// the same cache key regardless of the input map order.
func rankingHash(view StatsView) string {
	if len(view.Entries) == 0 {
		return "empty"
	}
	raw, err := json.Marshal(view.Entries)
	if err != nil {
		return "invalid"
	}
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:8])
}
