// Package cache provides the short-lived in-memory cache for resolved
// balances.
package cache

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultTTL = 60 * time.Second

// Entry is one cached resolution result.
type Entry struct {
	Value      decimal.Decimal
	Source     string
	InsertedAt time.Time
}

// TTLCache memoizes successful resolutions per (namespace, address) key.
// Namespaces keep asset classes apart even when address strings collide
// across chains. An entry past its TTL is treated as absent on read; Sweep
// reclaims the memory. Safe for concurrent use.
type TTLCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
	ttl     time.Duration
	now     func() time.Time
}

func New(ttl time.Duration) *TTLCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &TTLCache{
		entries: make(map[string]Entry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// WithClock replaces the time source, for tests.
func (c *TTLCache) WithClock(now func() time.Time) *TTLCache {
	c.now = now
	return c
}

func (c *TTLCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the entry for the key if one exists and is still fresh.
func (c *TTLCache) Get(namespace, address string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key(namespace, address)]
	if !ok || c.now().Sub(e.InsertedAt) >= c.ttl {
		return Entry{}, false
	}
	return e, true
}

// Put stores or overwrites the entry for the key, stamped with the current
// time. Only successful resolutions belong here; failures must be retried
// in full on the next lookup.
func (c *TTLCache) Put(namespace, address string, value decimal.Decimal, source string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key(namespace, address)] = Entry{
		Value:      value,
		Source:     source,
		InsertedAt: c.now(),
	}
}

// Sweep deletes expired entries and reports how many were removed. Reads
// are already TTL-gated; sweeping only bounds memory growth.
func (c *TTLCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for k, e := range c.entries {
		if now.Sub(e.InsertedAt) >= c.ttl {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func key(namespace, address string) string {
	return namespace + ":" + address
}
