// Package ratelimit bounds outbound request rate.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// DefaultWindow is the trailing interval admissions are counted over
const DefaultWindow = time.Minute

// Limiter blocks until a request may proceed
type Limiter interface {
	Wait(ctx context.Context) error
}

// New returns a sliding window limiter, or a token bucket when kind is "bucket".
func New(kind string, limit int, window time.Duration) Limiter {
	if kind == "bucket" {
		return NewTokenBucket(limit, window)
	}
	return NewSlidingWindow(limit, window)
}

// SlidingWindow admits at most limit requests in any trailing window.
type SlidingWindow struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	stamps []time.Time // admission times, oldest first
	now    func() time.Time
}

// NewSlidingWindow creates a sliding window limiter
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &SlidingWindow{
		limit:  limit,
		window: window,
		stamps: make([]time.Time, 0, limit),
		now:    time.Now,
	}
}

// Wait blocks until fewer than limit admissions fall inside the window, then
// records one. The check and the record happen under the same lock.
func (w *SlidingWindow) Wait(ctx context.Context) error {
	for {
		wait, ok := w.tryAdmit()
		if ok {
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// tryAdmit records an admission if there is room, otherwise returns how long
// until the oldest admission leaves the window.
func (w *SlidingWindow) tryAdmit() (time.Duration, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()

	now := w.now()
	w.prune(now)

	if len(w.stamps) < w.limit {
		w.stamps = append(w.stamps, now)
		return 0, true
	}

	wait := w.stamps[0].Add(w.window).Sub(now)
	if wait <= 0 {
		wait = time.Millisecond
	}
	return wait, false
}

func (w *SlidingWindow) prune(now time.Time) {
	cutoff := now.Add(-w.window)
	i := 0
	for i < len(w.stamps) && !w.stamps[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.stamps = append(w.stamps[:0], w.stamps[i:]...)
	}
}

// InWindow returns the number of admissions in the current window
func (w *SlidingWindow) InWindow() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.prune(w.now())
	return len(w.stamps)
}

// TokenBucket spreads limit requests per window with a burst of limit.
type TokenBucket struct {
	limiter *rate.Limiter
}

// NewTokenBucket creates a token bucket limiter
func NewTokenBucket(limit int, window time.Duration) *TokenBucket {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &TokenBucket{
		limiter: rate.NewLimiter(rate.Every(window/time.Duration(limit)), limit),
	}
}

// Wait blocks until a token is available
func (b *TokenBucket) Wait(ctx context.Context) error {
	return b.limiter.Wait(ctx)
}
