package resource

import (
	"sync"
	"weak"

	"go.uber.org/zap"
)

// cacheEntry is a single cache slot. An entry starts reserved (incomplete, no pointer) and becomes
// complete exactly once when the resource it names is stored.
type cacheEntry[T any] struct {
	ptr      weak.Pointer[T]
	complete bool
}

// cache is the implementation of the Cache interface.
type cache[T any] struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry[T]

	name    string
	logger  *zap.Logger
	stats   cacheStatistics
	metrics *cacheMetrics
}

// Cache is a thread-safe map from resource key to a weak handle on the resource. The cache never keeps a
// resource alive: once every strong reference held by callers is dropped, the garbage collector may reclaim
// the resource and the next lookup of its key reports a miss and removes the dead entry.
//
// The cache lock is held only for map operations; no I/O or decoding happens under it.
type Cache[T any] interface {
	// Name returns the name the cache was built with.
	//
	// Returns:
	//   - string: the cache name
	Name() string

	// Get returns the live resource stored under key.
	// Reserved (incomplete) entries and entries whose resource has been collected are misses; a collected
	// entry is removed as a side effect.
	//
	// Parameters:
	//   - key: the resolved resource key
	//
	// Returns:
	//   - *T: the resource, or nil on a miss
	//   - bool: true on a hit
	Get(key string) (*T, bool)

	// Reserve records an incomplete entry for key, marking that a load for it has started.
	// A key that already has a live complete entry or a reservation is left untouched.
	//
	// Parameters:
	//   - key: the resolved resource key
	//
	// Returns:
	//   - bool: true if a new reservation was made
	Reserve(key string) bool

	// Put stores value under key as a complete entry, replacing any previous entry.
	// A nil value removes the key instead.
	//
	// Parameters:
	//   - key: the resolved resource key
	//   - value: the resource to reference weakly
	Put(key string, value *T)

	// PutIfAbsent stores value under key unless a live complete entry already exists.
	//
	// Parameters:
	//   - key: the resolved resource key
	//   - value: the resource to reference weakly
	//
	// Returns:
	//   - *T: the resource now referenced by the cache (the existing one when present)
	//   - bool: true if value was stored, false if an existing resource was kept
	PutIfAbsent(key string, value *T) (*T, bool)

	// Delete removes key, whether reserved, complete or expired.
	//
	// Parameters:
	//   - key: the resolved resource key
	//
	// Returns:
	//   - bool: true if an entry was present
	Delete(key string) bool

	// Clear removes every entry. Resources already handed out remain valid for their holders.
	Clear()

	// Prune removes every complete entry whose resource has been collected.
	//
	// Returns:
	//   - int: the number of entries removed
	Prune() int

	// Len returns the number of entries, including reservations and not-yet-pruned expired entries.
	//
	// Returns:
	//   - int: the entry count
	Len() int

	// Keys returns a snapshot of all keys currently held.
	//
	// Returns:
	//   - []string: the keys in unspecified order
	Keys() []string

	// Stats returns a snapshot of the cache counters.
	//
	// Returns:
	//   - CacheStats: the current counters
	Stats() CacheStats
}

var _ Cache[struct{}] = &cache[struct{}]{}

// NewCache creates a new, empty Cache with the given options applied.
//
// Parameters:
//   - options: a variadic list of CacheBuilderOption functions to configure the Cache
//
// Returns:
//   - Cache[T]: the new cache
func NewCache[T any](options ...CacheBuilderOption) Cache[T] {
	cfg := applyCacheOptions(options...)
	c := &cache[T]{
		entries: make(map[string]*cacheEntry[T]),
		name:    cfg.name,
		logger:  cfg.logger,
	}

	if cfg.registerer != nil {
		m, err := newCacheMetrics(cfg.registerer, cfg.name)
		if err != nil {
			c.logger.Warn("cache metrics disabled", zap.String("cache", cfg.name), zap.Error(err))
		} else {
			c.metrics = m
		}
	}
	return c
}

func (c *cache[T]) Name() string {
	return c.name
}

func (c *cache[T]) Get(key string) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || !e.complete {
		c.miss()
		return nil, false
	}

	v := e.ptr.Value()
	if v == nil {
		delete(c.entries, key)
		c.stats.expired.Add(1)
		c.metrics.recordExpired(1)
		c.metrics.updateSize(len(c.entries))
		c.miss()
		return nil, false
	}

	c.stats.hits.Add(1)
	c.metrics.recordHit()
	return v, true
}

func (c *cache[T]) Reserve(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		if !e.complete || e.ptr.Value() != nil {
			return false
		}
	}
	c.entries[key] = &cacheEntry[T]{}
	c.metrics.updateSize(len(c.entries))
	return true
}

func (c *cache[T]) Put(key string, value *T) {
	if value == nil {
		c.Delete(key)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value)
}

func (c *cache[T]) PutIfAbsent(key string, value *T) (*T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok && e.complete {
		if existing := e.ptr.Value(); existing != nil {
			return existing, false
		}
	}
	if value == nil {
		return nil, false
	}
	c.store(key, value)
	return value, true
}

// store writes a complete entry. The caller must hold c.mu.
func (c *cache[T]) store(key string, value *T) {
	c.entries[key] = &cacheEntry[T]{ptr: weak.Make(value), complete: true}
	c.stats.inserts.Add(1)
	c.metrics.recordInsert()
	c.metrics.updateSize(len(c.entries))
}

func (c *cache[T]) Delete(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	c.stats.deletes.Add(1)
	c.metrics.recordDelete(1)
	c.metrics.updateSize(len(c.entries))
	return true
}

func (c *cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.entries)
	clear(c.entries)
	c.stats.deletes.Add(int64(n))
	c.metrics.recordDelete(n)
	c.metrics.updateSize(0)
}

func (c *cache[T]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		if e.complete && e.ptr.Value() == nil {
			delete(c.entries, key)
			removed++
		}
	}
	if removed > 0 {
		c.stats.expired.Add(int64(removed))
		c.metrics.recordExpired(removed)
		c.metrics.updateSize(len(c.entries))
	}
	return removed
}

func (c *cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *cache[T]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func (c *cache[T]) Stats() CacheStats {
	return CacheStats{
		Hits:    c.stats.hits.Load(),
		Misses:  c.stats.misses.Load(),
		Expired: c.stats.expired.Load(),
		Inserts: c.stats.inserts.Load(),
		Deletes: c.stats.deletes.Load(),
		Size:    c.Len(),
	}
}

// miss records a lookup miss. The caller must hold c.mu.
func (c *cache[T]) miss() {
	c.stats.misses.Add(1)
	c.metrics.recordMiss()
}
