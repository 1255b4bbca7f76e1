package cache

import "time"

// Cache is a key-value store with an optional TTL per entry. An expired entry
// stays readable through Peek until it is replaced or deleted.
type Cache[K comparable, V any] interface {
	// Get returns the value and whether it was present and not expired.
	Get(key K) (V, bool)

	// Peek returns the value even if expired. fresh reports whether it is
	// still within its TTL.
	Peek(key K) (value V, fresh bool, ok bool)

	// Set stores the value with an optional TTL. If ttl <= 0, the entry does not expire.
	Set(key K, value V, ttl time.Duration)

	// Expire marks a key as stale without dropping its value.
	Expire(key K) bool

	Delete(key K)
}
