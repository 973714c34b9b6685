package proxy

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Source downloads newline-delimited proxy lists
type Source struct {
	httpClient *http.Client
}

// NewSource creates a proxy list source
func NewSource(timeout time.Duration) *Source {
	return &Source{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch downloads and parses the list at sourceURL. It never fails: any
// network, status or parse problem is logged and yields an empty result.
func (s *Source) Fetch(ctx context.Context, sourceURL string) []*url.URL {
	proxies, err := s.fetch(ctx, sourceURL)
	if err != nil {
		log.Warn().Err(err).Str("source", sourceURL).Msg("Proxy list refresh failed, continuing without proxies")
		return nil
	}
	log.Info().Int("count", len(proxies)).Str("source", sourceURL).Msg("Proxy list fetched")
	return proxies
}

func (s *Source) fetch(ctx context.Context, sourceURL string) ([]*url.URL, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("proxy source returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return ParseList(body)
}

// ParseList parses one scheme://host:port per line. Blank lines and lines
// starting with # are skipped. Any other malformed line fails the whole list.
func ParseList(body []byte) ([]*url.URL, error) {
	var proxies []*url.URL
	scanner := bufio.NewScanner(bytes.NewReader(body))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		u, err := ParseEndpoint(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		proxies = append(proxies, u)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return proxies, nil
}

// ParseEndpoint validates a single scheme://host:port proxy endpoint
func ParseEndpoint(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy %q: %w", raw, err)
	}
	switch u.Scheme {
	case "http", "https", "socks5":
	default:
		return nil, fmt.Errorf("invalid proxy %q: unsupported scheme", raw)
	}
	if u.Hostname() == "" || u.Port() == "" {
		return nil, fmt.Errorf("invalid proxy %q: host and port required", raw)
	}
	return u, nil
}

// ParseStatic parses configured proxies, skipping and logging bad entries
func ParseStatic(raw []string) []*url.URL {
	proxies := make([]*url.URL, 0, len(raw))
	for _, item := range raw {
		u, err := ParseEndpoint(item)
		if err != nil {
			log.Warn().Err(err).Msg("Ignoring configured proxy")
			continue
		}
		proxies = append(proxies, u)
	}
	return proxies
}
