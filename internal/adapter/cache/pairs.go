package cache

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// PairCache caches pairwise rates keyed by symbol. Entries accumulate:
// storing a pair overwrites only that key while older keys persist. All
// entries share a single refresh timestamp, so storing any pair renews
// freshness for every cached pair. Callers depend on this shared-clock
// behavior; do not move to per-key timestamps without revisiting the
// fallback ordering built on top of it.
type PairCache struct {
	mu        sync.RWMutex
	rates     map[string]decimal.Decimal
	fetchedAt time.Time

	ttl time.Duration
	now func() time.Time
}

func NewPairCache(ttl time.Duration) *PairCache {
	return &PairCache{
		rates: make(map[string]decimal.Decimal),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Get returns the cached rate for key iff the key is present and the
// shared timestamp is still fresh.
func (c *PairCache) Get(key string) (decimal.Decimal, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	rate, ok := c.rates[key]
	if !ok || c.now().Sub(c.fetchedAt) >= c.ttl {
		return decimal.Decimal{}, false
	}
	return rate, true
}

// Put stores the rate under key and bumps the shared timestamp.
func (c *PairCache) Put(key string, rate decimal.Decimal) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.rates[key] = rate
	c.fetchedAt = c.now()
}
