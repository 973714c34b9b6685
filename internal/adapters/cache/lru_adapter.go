package cache

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/zatekoja/asoradar/internal/domain/providers"
)

// LRUAdapter is a size bounded in-process CacheProvider
type LRUAdapter struct {
	cache *lru.Cache[string, entry]
	now   func() time.Time
}

// NewLRUAdapter creates a cache holding at most size entries
func NewLRUAdapter(size int) (*LRUAdapter, error) {
	c, err := lru.New[string, entry](size)
	if err != nil {
		return nil, err
	}
	return &LRUAdapter{cache: c, now: time.Now}, nil
}

// Get retrieves a value from cache
func (a *LRUAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	e, ok := a.cache.Get(key)
	if !ok {
		return nil, providers.ErrCacheMiss
	}
	if e.expired(a.now()) {
		a.cache.Remove(key)
		return nil, providers.ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value in cache with expiration
func (a *LRUAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	a.cache.Add(key, newEntry(value, expirationSeconds, a.now()))
	return nil
}

// Delete removes a value from cache
func (a *LRUAdapter) Delete(ctx context.Context, key string) error {
	a.cache.Remove(key)
	return nil
}

// Exists checks if a key exists in cache
func (a *LRUAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.Get(ctx, key)
	return err == nil, nil
}
