package cache

import "time"

// Cache is the generic cache the dev server keeps compiled assets in.
// Implementations must be safe for concurrent use: the HTTP handlers read
// while the rebuild goroutine replaces contents.
type Cache[K comparable, V any] interface {
	// Get retrieves a value from the cache.
	Get(key K) (V, bool)

	// Set stores a value with cost, returning true if accepted.
	Set(key K, value V, cost int64) bool

	// SetWithTTL stores a value with cost and TTL, returning true if
	// accepted.
	SetWithTTL(key K, value V, cost int64, ttl time.Duration) bool

	// Clear drops everything; a rebuild swaps in a fresh asset set.
	Clear()

	// Wait blocks until pending writes are visible to Get.
	Wait()
}
