package cache

import (
	"sync"
	"time"
)

// slot stores a cached value and its absolute expiration timestamp.
type slot[V any] struct {
	value     V
	expiresAt time.Time // zero means no expiration
}

func (s slot[V]) fresh(at time.Time) bool {
	return s.expiresAt.IsZero() || at.Before(s.expiresAt)
}

// SimpleCache is a map-backed cache with optional concurrency safety.
// Replacing a value is a single locked write, so readers always see either
// the old or the new value in full.
type SimpleCache[K comparable, V any] struct {
	// nil means the cache is NOT goroutine-safe.
	mu *sync.RWMutex

	items map[K]slot[V]
}

// Options controls construction of a SimpleCache.
type Options struct {
	// ConcurrencySafe controls whether operations are guarded by a RWMutex.
	ConcurrencySafe bool
}

// NewSimpleCache constructs a new SimpleCache with the given options.
func NewSimpleCache[K comparable, V any](opts Options) *SimpleCache[K, V] {
	var mu *sync.RWMutex
	if opts.ConcurrencySafe {
		mu = &sync.RWMutex{}
	}
	return &SimpleCache[K, V]{
		mu:    mu,
		items: make(map[K]slot[V]),
	}
}

func (c *SimpleCache[K, V]) lockR() func() {
	if c.mu == nil {
		return func() {}
	}
	c.mu.RLock()
	return c.mu.RUnlock
}

func (c *SimpleCache[K, V]) lockW() func() {
	if c.mu == nil {
		return func() {}
	}
	c.mu.Lock()
	return c.mu.Unlock
}

// now is a small indirection to allow test stubbing.
var now = time.Now

// Get implements Cache.Get.
func (c *SimpleCache[K, V]) Get(key K) (V, bool) {
	v, fresh, ok := c.Peek(key)
	if !ok || !fresh {
		var zero V
		return zero, false
	}
	return v, true
}

// Peek implements Cache.Peek.
func (c *SimpleCache[K, V]) Peek(key K) (V, bool, bool) {
	unlock := c.lockR()
	defer unlock()

	s, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false, false
	}
	return s.value, s.fresh(now()), true
}

// Set implements Cache.Set.
func (c *SimpleCache[K, V]) Set(key K, value V, ttl time.Duration) {
	unlock := c.lockW()
	defer unlock()

	var exp time.Time
	if ttl > 0 {
		exp = now().Add(ttl)
	}
	c.items[key] = slot[V]{value: value, expiresAt: exp}
}

// Expire implements Cache.Expire.
func (c *SimpleCache[K, V]) Expire(key K) bool {
	unlock := c.lockW()
	defer unlock()

	s, ok := c.items[key]
	if !ok {
		return false
	}
	// one nanosecond in the past so fresh() is false even at a frozen clock
	s.expiresAt = now().Add(-time.Nanosecond)
	c.items[key] = s
	return true
}

// Delete implements Cache.Delete.
func (c *SimpleCache[K, V]) Delete(key K) {
	unlock := c.lockW()
	defer unlock()
	delete(c.items, key)
}

// Ensure SimpleCache implements Cache at compile time.
var _ Cache[any, any] = (*SimpleCache[any, any])(nil)
