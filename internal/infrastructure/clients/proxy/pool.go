// Package proxy manages the optional egress proxy pool.
package proxy

import (
	"context"
	"math/rand/v2"
	"net/http"
	"net/url"
	"sync/atomic"
)

// Pool holds the current proxy set. The set is only ever replaced whole.
type Pool struct {
	current atomic.Pointer[[]*url.URL]
}

// NewPool creates a pool seeded with proxies
func NewPool(proxies []*url.URL) *Pool {
	p := &Pool{}
	p.Replace(proxies)
	return p
}

// Replace swaps in a new proxy set
func (p *Pool) Replace(proxies []*url.URL) {
	set := make([]*url.URL, len(proxies))
	copy(set, proxies)
	p.current.Store(&set)
}

// Pick returns a uniformly random proxy, or nil when the pool is empty
func (p *Pool) Pick() *url.URL {
	set := p.current.Load()
	if set == nil || len(*set) == 0 {
		return nil
	}
	return (*set)[rand.IntN(len(*set))]
}

// Size returns the number of proxies in the pool
func (p *Pool) Size() int {
	set := p.current.Load()
	if set == nil {
		return 0
	}
	return len(*set)
}

// Refresh fetches a new set from sourceURL and swaps it in. An empty fetch
// leaves the current set in place. Returns the resulting pool size.
func (p *Pool) Refresh(ctx context.Context, source *Source, sourceURL string) int {
	fetched := source.Fetch(ctx, sourceURL)
	if len(fetched) > 0 {
		p.Replace(fetched)
	}
	return p.Size()
}

type contextKey struct{}

// WithProxy returns a context that routes the request through proxy.
// A nil proxy means a direct connection.
func WithProxy(ctx context.Context, proxy *url.URL) context.Context {
	return context.WithValue(ctx, contextKey{}, proxy)
}

// FromRequest is an http.Transport Proxy func that reads the proxy chosen
// for this request from its context.
func FromRequest(req *http.Request) (*url.URL, error) {
	proxy, _ := req.Context().Value(contextKey{}).(*url.URL)
	return proxy, nil
}
