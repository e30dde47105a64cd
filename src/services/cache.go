package services

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
)

const (
	ckMachineRoster        = "agg_machine_roster"
	ckProfitReport         = "res_profit_report_machine_%s"
	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

// ReportCache holds computed reports. Every invalidation bumps a generation
// counter; a report computed from reads that started before an invalidation
// is never stored.
type ReportCache struct {
	items *cache.Cache

	mu         sync.Mutex
	generation uint64
}

// NewReportCache builds the cache shared by the services. A non-positive ttl
// falls back to DefaultCacheExpiration.
func NewReportCache(ttl time.Duration) *ReportCache {
	if ttl <= 0 {
		ttl = DefaultCacheExpiration
	}
	return &ReportCache{items: cache.New(ttl, CacheCleanupInterval)}
}

func (c *ReportCache) Get(key string) (any, bool) {
	return c.items.Get(key)
}

// Generation must be read before the store reads a report is built from.
func (c *ReportCache) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// SetIfCurrent stores value unless the cache was invalidated after gen was
// read. It reports whether the value was stored.
func (c *ReportCache) SetIfCurrent(key string, value any, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation {
		return false
	}
	c.items.Set(key, value, cache.DefaultExpiration)
	return true
}

// Invalidate drops the given keys. Called after the write they depend on has
// committed.
func (c *ReportCache) Invalidate(keys ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	for _, k := range keys {
		c.items.Delete(k)
	}
}

// InvalidateAll drops every cached report.
func (c *ReportCache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.items.Flush()
}
