package cache

import (
	"context"
	"sync"
	"time"

	"github.com/zatekoja/asoradar/internal/domain/providers"
)

type entry struct {
	value     []byte
	expiresAt time.Time // zero means never
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

func newEntry(value []byte, expirationSeconds int, now time.Time) entry {
	e := entry{value: append([]byte(nil), value...)}
	if expirationSeconds > 0 {
		e.expiresAt = now.Add(time.Duration(expirationSeconds) * time.Second)
	}
	return e
}

// MemoryAdapter is an unbounded in-process CacheProvider
type MemoryAdapter struct {
	mu   sync.RWMutex
	data map[string]entry
	now  func() time.Time
}

// NewMemoryAdapter creates a new in-memory cache adapter
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		data: make(map[string]entry),
		now:  time.Now,
	}
}

// Get retrieves a value from cache
func (a *MemoryAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	a.mu.RLock()
	e, ok := a.data[key]
	a.mu.RUnlock()
	if !ok || e.expired(a.now()) {
		return nil, providers.ErrCacheMiss
	}
	return e.value, nil
}

// Set stores a value in cache with expiration
func (a *MemoryAdapter) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	e := newEntry(value, expirationSeconds, a.now())
	a.mu.Lock()
	a.data[key] = e
	a.mu.Unlock()
	return nil
}

// Delete removes a value from cache
func (a *MemoryAdapter) Delete(ctx context.Context, key string) error {
	a.mu.Lock()
	delete(a.data, key)
	a.mu.Unlock()
	return nil
}

// Exists checks if a key exists in cache
func (a *MemoryAdapter) Exists(ctx context.Context, key string) (bool, error) {
	_, err := a.Get(ctx, key)
	return err == nil, nil
}

// Len returns the number of stored entries, expired ones included
func (a *MemoryAdapter) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.data)
}
