package params

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru"
)

// cached implements a caching layer on top of a Store. Parameter reads
// sit on the hot path of every stage-window check, while the backing
// store may be remote or slow.
type cached struct {
	cache *lru.Cache
	store Store
}

// NewCached wraps store with an LRU cache of the given size.
func NewCached(store Store, size int) (Store, error) {
	cache, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("creating parameter cache: %w", err)
	}
	return &cached{cache: cache, store: store}, nil
}

func (c *cached) Get(key string) (uint64, error) {
	if value, ok := c.cache.Get(key); ok {
		return value.(uint64), nil
	}
	value, err := c.store.Get(key)
	if err != nil {
		return 0, err
	}
	c.cache.Add(key, value)
	return value, nil
}
