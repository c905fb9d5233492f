// Package cache memoizes full resource reads for a fixed time-to-live.
package cache

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"tpcollect/pkg/metrics"
	"tpcollect/pkg/store"
)

type entry struct {
	table     store.Table
	fetchedAt time.Time
}

// Cache holds the last read of every resource. Entries are only dropped by
// expiry or invalidation; the key set is the handful of configured resources.
type Cache struct {
	reader  store.Reader
	ttl     time.Duration
	now     func() time.Time
	metrics *metrics.Metrics

	mu      sync.Mutex
	entries map[string]entry
	// gen is bumped by every invalidation; a read that started under an
	// older generation is returned but not stored.
	gen map[string]uint64
}

type Option func(*Cache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) { c.now = now }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Cache) { c.metrics = m }
}

// New returns a cache in front of reader. A zero ttl re-reads every time.
func New(reader store.Reader, ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		reader:  reader,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
		gen:     make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetOrFetch returns the cached table for key while it is younger than the
// TTL, reading it again otherwise. Failed reads are not cached.
func (c *Cache) GetOrFetch(ctx context.Context, key string) (store.Table, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	now := c.now()
	gen := c.gen[key]
	if ok && now.Sub(e.fetchedAt) < c.ttl {
		c.mu.Unlock()
		c.metrics.CacheHit()
		return e.table, nil
	}
	c.mu.Unlock()
	c.metrics.CacheMiss()

	table, err := c.reader.ReadAll(ctx, key)
	if err != nil {
		return store.Table{}, err
	}
	c.mu.Lock()
	if c.gen[key] != gen {
		c.mu.Unlock()
		return table, nil
	}
	c.entries[key] = entry{table: table, fetchedAt: now}
	c.mu.Unlock()
	log.WithFields(log.Fields{"resource": key, "rows": table.Len()}).Debug("cache refreshed")
	return table, nil
}

func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gen[key]++
	c.mu.Unlock()
}

func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry)
	for key := range c.gen {
		c.gen[key]++
	}
	c.mu.Unlock()
}

func (c *Cache) TTL() time.Duration {
	return c.ttl
}
