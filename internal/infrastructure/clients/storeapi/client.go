// Package storeapi is the rate limited, retrying HTTP client for the public
// store endpoints.
package storeapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/zatekoja/asoradar/internal/infrastructure/clients/proxy"
	"github.com/zatekoja/asoradar/internal/infrastructure/observability"
	"github.com/zatekoja/asoradar/internal/infrastructure/ratelimit"
	apperrors "github.com/zatekoja/asoradar/pkg/errors"
	"github.com/zatekoja/asoradar/pkg/retry"
)

const maxBodyBytes = 16 << 20

// Options controls request policy
type Options struct {
	UserAgent       string
	Timeout         time.Duration
	MaxAttempts     int
	BackoffBase     time.Duration
	Pause           time.Duration
	ProxyEnabled    bool
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// DefaultOptions returns the production request policy
func DefaultOptions() Options {
	return Options{
		UserAgent:       "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		Timeout:         10 * time.Second,
		MaxAttempts:     3,
		BackoffBase:     2 * time.Second,
		Pause:           500 * time.Millisecond,
		BreakerFailures: 10,
		BreakerCooldown: 30 * time.Second,
	}
}

// Client issues GET requests through the limiter and proxy pool with bounded
// retries on throttling, network failures and 5xx responses.
type Client struct {
	httpClient *http.Client
	limiter    ratelimit.Limiter
	proxies    *proxy.Pool
	breaker    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	opts       Options
}

// NewClient creates a store API client. proxies and metrics may be nil.
func NewClient(limiter ratelimit.Limiter, proxies *proxy.Pool, metrics *observability.Metrics, opts Options) *Client {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 10
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = proxy.FromRequest

	c := &Client{
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		limiter: limiter,
		proxies: proxies,
		metrics: metrics,
		opts:    opts,
	}

	c.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "storeapi",
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		// Throttling and client errors say nothing about upstream health.
		IsSuccessful: func(err error) bool {
			return err == nil || apperrors.TypeOf(err) != apperrors.ErrorTypeExternal
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("Circuit breaker state changed")
		},
	})

	return c
}

// Get fetches endpoint with params and returns the raw body.
//
// Errors: TRANSIENT when the upstream kept throttling past the attempt
// ceiling, PERMANENT for everything else. Context cancellation is returned
// as is.
func (c *Client) Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	ctx, span := observability.StartSpan(ctx, "storeapi.Get")
	defer span.End()
	defer c.pause(ctx)

	reqURL, host, err := buildURL(endpoint, params)
	if err != nil {
		return nil, apperrors.NewPermanentError("invalid request url", err)
	}
	observability.SetSpanAttributes(span, attribute.String("server.address", host))

	cfg := retry.Config{
		MaxAttempts:   c.opts.MaxAttempts,
		InitialDelay:  c.opts.BackoffBase,
		MaxDelay:      c.opts.BackoffBase * 8,
		BackoffFactor: 2,
		ShouldRetry: func(err error) bool {
			switch apperrors.TypeOf(err) {
			case apperrors.ErrorTypeTransient, apperrors.ErrorTypeExternal:
				return true
			default:
				return false
			}
		},
	}

	var body []byte
	err = retry.DoWithLog(ctx, cfg, "storeapi", func() error {
		if err := c.limiter.Wait(ctx); err != nil {
			return retry.Stop(err)
		}
		b, err := c.send(ctx, reqURL, host)
		if err != nil {
			return err
		}
		body = b
		return nil
	}, func(attempt int, err error, next time.Duration) {
		observability.RecordRetry(ctx, c.metrics, host)
		observability.LoggerFromContext(ctx).Debug().
			Err(err).
			Int("attempt", attempt).
			Dur("backoff", next).
			Str("host", host).
			Msg("Retrying store request")
	})
	if err == nil {
		return body, nil
	}

	span.SetStatus(codes.Error, err.Error())
	observability.RecordError(span, err)
	return nil, classify(ctx, err, host, c.opts.MaxAttempts)
}

// GetJSON fetches endpoint and decodes the JSON body into out
func (c *Client) GetJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	body, err := c.Get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewPermanentError("malformed response", err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, reqURL, host string) ([]byte, error) {
	if c.opts.ProxyEnabled && c.proxies != nil {
		ctx = proxy.WithProxy(ctx, c.proxies.Pick())
	}

	out, err := c.breaker.Execute(func() (interface{}, error) {
		return c.do(ctx, reqURL, host)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, apperrors.NewPermanentError("circuit open for "+host, err)
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (c *Client) do(ctx context.Context, reqURL, host string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, apperrors.NewPermanentError("failed to create request", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, retry.Stop(ctx.Err())
		}
		return nil, apperrors.NewExternalError("request failed", err)
	}
	defer resp.Body.Close()
	observability.RecordRequestMetric(ctx, c.metrics, host, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		if err != nil {
			return nil, apperrors.NewExternalError("failed to read body", err)
		}
		return body, nil

	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusForbidden:
		observability.RecordThrottle(ctx, c.metrics, host, resp.StatusCode)
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewTransientError(
			fmt.Sprintf("throttled by %s (status %d)", host, resp.StatusCode),
			nil,
			RetryAfter(resp.Header.Get("Retry-After")),
		)

	case resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, apperrors.NewExternalError(fmt.Sprintf("%s returned status %d", host, resp.StatusCode), nil)

	default:
		return nil, apperrors.NewPermanentError(fmt.Sprintf("%s returned status %d", host, resp.StatusCode), nil)
	}
}

func (c *Client) pause(ctx context.Context) {
	if c.opts.Pause <= 0 {
		return
	}
	timer := time.NewTimer(c.opts.Pause)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// classify maps the final retry error to the caller facing taxonomy.
func classify(ctx context.Context, err error, host string, attempts int) error {
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return err
	}
	switch apperrors.TypeOf(err) {
	case apperrors.ErrorTypeTransient:
		return apperrors.NewTransientError(fmt.Sprintf("%s still throttling after %d attempts", host, attempts), err, 0)
	case apperrors.ErrorTypePermanent:
		return err
	default:
		return apperrors.NewPermanentError(fmt.Sprintf("request to %s failed", host), err)
	}
}

// RetryAfter parses a Retry-After header holding delay seconds.
// Anything else yields zero.
func RetryAfter(header string) time.Duration {
	header = strings.TrimSpace(header)
	if header == "" {
		return 0
	}
	secs, err := strconv.Atoi(header)
	if err != nil || secs < 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func buildURL(endpoint string, params url.Values) (string, string, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", "", fmt.Errorf("endpoint %q is not absolute", endpoint)
	}
	if len(params) > 0 {
		q := u.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), u.Host, nil
}
