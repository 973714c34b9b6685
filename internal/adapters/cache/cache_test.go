package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/asoradar/internal/domain/providers"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func TestMemoryAdapter_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	a := NewMemoryAdapter()

	_, err := a.Get(ctx, "missing")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)

	value := []byte(`{"count":1}`)
	require.NoError(t, a.Set(ctx, "suggest:us:5:word", value, 0))
	value[0] = 'x'

	got, err := a.Get(ctx, "suggest:us:5:word")
	require.NoError(t, err)
	assert.Equal(t, `{"count":1}`, string(got))

	ok, err := a.Exists(ctx, "suggest:us:5:word")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, a.Delete(ctx, "suggest:us:5:word"))
	ok, _ = a.Exists(ctx, "suggest:us:5:word")
	assert.False(t, ok)
	assert.Equal(t, 0, a.Len())
}

func TestMemoryAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	a := NewMemoryAdapter()
	a.now = c.now

	require.NoError(t, a.Set(ctx, "k", []byte("v"), 60))
	c.t = c.t.Add(59 * time.Second)
	_, err := a.Get(ctx, "k")
	assert.NoError(t, err)

	c.t = c.t.Add(time.Second)
	_, err = a.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
}

func TestLRUAdapter_EvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	a, err := NewLRUAdapter(2)
	require.NoError(t, err)

	require.NoError(t, a.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, a.Set(ctx, "b", []byte("2"), 0))
	_, err = a.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, a.Set(ctx, "c", []byte("3"), 0))

	_, err = a.Get(ctx, "b")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
	for _, k := range []string{"a", "c"} {
		ok, err := a.Exists(ctx, k)
		require.NoError(t, err)
		assert.True(t, ok, k)
	}
}

func TestLRUAdapter_Expiry(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	a, err := NewLRUAdapter(10)
	require.NoError(t, err)
	a.now = c.now

	require.NoError(t, a.Set(ctx, "k", []byte("v"), 1))
	c.t = c.t.Add(2 * time.Second)

	_, err = a.Get(ctx, "k")
	assert.ErrorIs(t, err, providers.ErrCacheMiss)
	assert.Equal(t, 0, a.cache.Len())
}

func TestNewLRUAdapter_RejectsBadSize(t *testing.T) {
	_, err := NewLRUAdapter(0)
	assert.Error(t, err)
}

func TestRedisAdapter_PrefixesKeys(t *testing.T) {
	a := &RedisAdapter{prefix: "asoradar:"}
	assert.Equal(t, "asoradar:suggest:us:5:word", a.key("suggest:us:5:word"))
}
