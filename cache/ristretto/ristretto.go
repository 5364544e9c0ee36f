package ristretto

import (
	"time"

	"github.com/dgraph-io/ristretto/v2"

	"github.com/packsmith/packsmith/cache"
)

type Cache[K ristretto.Key, V any] struct {
	cache *ristretto.Cache[K, V]
}

func (rc *Cache[K, V]) Get(key K) (V, bool) {
	return rc.cache.Get(key)
}

func (rc *Cache[K, V]) Set(key K, value V, cost int64) bool {
	return rc.cache.Set(key, value, cost)
}

func (rc *Cache[K, V]) SetWithTTL(key K, value V, cost int64, ttl time.Duration) bool {
	return rc.cache.SetWithTTL(key, value, cost, ttl)
}

func (rc *Cache[K, V]) Clear() {
	rc.cache.Clear()
}

func (rc *Cache[K, V]) Wait() {
	rc.cache.Wait()
}

// Key constrains keys to types accepted by ristretto that are also
// comparable, as required by cache.Cache.
type Key interface {
	ristretto.Key
	comparable
}

func New[K Key, V any]() (cache.Cache[K, V], error) {
	c, err := ristretto.NewCache(&ristretto.Config[K, V]{
		NumCounters: 1e6,      // keys to track frequency of
		MaxCost:     1 << 28,  // 256MB, plenty for one site's assets
		BufferItems: 64,       // keys per Get buffer
	})
	if err != nil {
		return nil, err
	}

	return &Cache[K, V]{cache: c}, nil
}
