package ratelimit

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlidingWindow_AdmitsExactlyLimitConcurrently(t *testing.T) {
	const limit = 3
	w := NewSlidingWindow(limit, time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 150*time.Millisecond)
	defer cancel()

	var admitted, delayed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < limit+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := w.Wait(ctx); err != nil {
				delayed.Add(1)
				return
			}
			admitted.Add(1)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(limit), admitted.Load())
	assert.Equal(t, int32(1), delayed.Load())
	assert.Equal(t, limit, w.InWindow())
}

func TestSlidingWindow_AdmitsAfterWindowSlides(t *testing.T) {
	w := NewSlidingWindow(2, 100*time.Millisecond)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, w.Wait(ctx))
	}
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 90*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

func TestSlidingWindow_PrunesWithFakeClock(t *testing.T) {
	w := NewSlidingWindow(2, time.Minute)
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	_, ok := w.tryAdmit()
	require.True(t, ok)
	now = now.Add(30 * time.Second)
	_, ok = w.tryAdmit()
	require.True(t, ok)

	wait, ok := w.tryAdmit()
	assert.False(t, ok)
	assert.Equal(t, 30*time.Second, wait)

	now = now.Add(31 * time.Second)
	_, ok = w.tryAdmit()
	assert.True(t, ok)
	assert.Equal(t, 2, w.InWindow())
}

func TestTokenBucket_Burst(t *testing.T) {
	b := NewTokenBucket(5, time.Minute)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, b.Wait(ctx))
	}
	assert.Error(t, b.Wait(ctx))
}

func TestNew_SelectsImplementation(t *testing.T) {
	assert.IsType(t, &TokenBucket{}, New("bucket", 10, time.Minute))
	assert.IsType(t, &SlidingWindow{}, New("window", 10, time.Minute))
}
