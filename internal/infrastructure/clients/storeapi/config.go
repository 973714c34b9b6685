package storeapi

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/asoradar/internal/infrastructure/clients/proxy"
	"github.com/zatekoja/asoradar/internal/infrastructure/observability"
	"github.com/zatekoja/asoradar/internal/infrastructure/ratelimit"
	"github.com/zatekoja/asoradar/pkg/config"
)

// OptionsFromConfig maps the store and proxy settings onto request options
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		UserAgent:       cfg.Store.UserAgent,
		Timeout:         cfg.Store.RequestTimeout,
		MaxAttempts:     cfg.Store.MaxAttempts,
		BackoffBase:     cfg.Store.BackoffBase,
		Pause:           cfg.Store.RequestPause,
		ProxyEnabled:    cfg.Proxy.Enabled,
		BreakerFailures: uint32(cfg.Store.BreakerFailures),
		BreakerCooldown: cfg.Store.BreakerCooldown,
	}
}

// NewFromConfig builds the limiter, the proxy pool and the client from cfg.
// The pool is seeded from PROXY_LIST and then refreshed from
// PROXY_SOURCE_URL when one is set. metrics may be nil.
func NewFromConfig(ctx context.Context, cfg *config.Config, metrics *observability.Metrics) *Client {
	limiter := ratelimit.New(cfg.Store.Limiter, cfg.Store.RequestsPerMinute, time.Minute)

	var pool *proxy.Pool
	if cfg.Proxy.Enabled {
		pool = proxy.NewPool(proxy.ParseStatic(cfg.Proxy.Static))
		if cfg.Proxy.SourceURL != "" {
			pool.Refresh(ctx, proxy.NewSource(cfg.Store.RequestTimeout), cfg.Proxy.SourceURL)
		}
		if pool.Size() == 0 {
			log.Warn().Msg("Proxy rotation enabled but no proxies available, using direct connections")
		} else {
			log.Info().Int("proxies", pool.Size()).Msg("Proxy pool ready")
		}
	}

	return NewClient(limiter, pool, metrics, OptionsFromConfig(cfg))
}
