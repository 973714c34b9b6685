package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/domain/providers"
	"github.com/zatekoja/asoradar/internal/infrastructure/observability"
)

const (
	// DefaultSuggestionLimit is the number of suggestions returned per term
	DefaultSuggestionLimit = 20
	// suggestionSearchLimit is how many competitor titles are mined per term
	suggestionSearchLimit = 25
)

// SuggestionService turns competitor titles for a term into scored keyword
// suggestions. Results are cached per (term, country, limit).
type SuggestionService struct {
	catalog    providers.CatalogProvider
	cache      providers.CacheProvider
	ttlSeconds int
	metrics    *observability.Metrics
	group      singleflight.Group
}

// NewSuggestionService creates a new suggestion service. ttlSeconds of zero
// keeps entries for the cache's lifetime.
func NewSuggestionService(
	catalog providers.CatalogProvider,
	cache providers.CacheProvider,
	ttlSeconds int,
	metrics *observability.Metrics,
) *SuggestionService {
	return &SuggestionService{
		catalog:    catalog,
		cache:      cache,
		ttlSeconds: ttlSeconds,
		metrics:    metrics,
	}
}

// Suggest returns the top limit suggestions for term and the total number of
// distinct candidates found
func (s *SuggestionService) Suggest(ctx context.Context, term, country string, limit int) (*entities.SuggestionResult, error) {
	term = strings.TrimSpace(term)
	country = strings.ToLower(country)
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	if term == "" {
		return &entities.SuggestionResult{Suggestions: []entities.Suggestion{}}, nil
	}

	key := suggestionCacheKey(term, country, limit)
	if cached, ok := s.fromCache(ctx, key); ok {
		return cached, nil
	}

	// The shared search must outlive any single caller; each caller still
	// gives up on its own context.
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		// A concurrent caller may have filled the cache while we waited.
		if cached, ok := s.fromCache(shared, key); ok {
			return cached, nil
		}

		res, err := s.catalog.Search(shared, term, country, suggestionSearchLimit)
		if err != nil {
			return nil, fmt.Errorf("suggestions for %q: %w", term, err)
		}

		result := ScoreSuggestions(term, res.Titles(), limit)
		s.toCache(shared, key, result)
		return result, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*entities.SuggestionResult), nil
	}
}

func (s *SuggestionService) fromCache(ctx context.Context, key string) (*entities.SuggestionResult, bool) {
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, providers.ErrCacheMiss) {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Suggestion cache read failed")
		}
		observability.RecordCacheMiss(ctx, s.metrics, "suggestions")
		return nil, false
	}

	var result entities.SuggestionResult
	if err := json.Unmarshal(data, &result); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Discarding corrupt suggestion cache entry")
		observability.RecordCacheMiss(ctx, s.metrics, "suggestions")
		return nil, false
	}
	observability.RecordCacheHit(ctx, s.metrics, "suggestions")
	return &result, true
}

func (s *SuggestionService) toCache(ctx context.Context, key string, result *entities.SuggestionResult) {
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, s.ttlSeconds); err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("key", key).Msg("Suggestion cache write failed")
	}
}

func suggestionCacheKey(term, country string, limit int) string {
	return fmt.Sprintf("suggest:%s:%d:%s", country, limit, strings.ToLower(term))
}

// ScoreSuggestions builds, scores and ranks keyword candidates from titles.
// A limit of zero or less means DefaultSuggestionLimit.
func ScoreSuggestions(term string, titles []string, limit int) *entities.SuggestionResult {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	candidates := suggestionCandidates(titles)
	lowerTerm := strings.ToLower(term)

	suggestions := make([]entities.Suggestion, 0, len(candidates))
	for _, c := range candidates {
		suggestions = append(suggestions, entities.Suggestion{
			Keyword: c,
			Score:   scoreCandidate(c, lowerTerm),
		})
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Score > suggestions[j].Score
	})

	total := len(suggestions)
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return &entities.SuggestionResult{Suggestions: suggestions, Count: total}
}

// suggestionCandidates returns distinct cleaned unigrams and bigrams in
// first-seen order
func suggestionCandidates(titles []string) []string {
	seen := make(map[string]struct{})
	var out []string
	add := func(raw string) {
		c := cleanCandidate(raw)
		if utf8.RuneCountInString(c) <= 3 {
			return
		}
		if _, ok := seen[c]; ok {
			return
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}

	for _, title := range titles {
		words := strings.Fields(title)
		for _, w := range words {
			if utf8.RuneCountInString(w) > 3 {
				add(w)
			}
		}
		for i := 0; i+1 < len(words); i++ {
			if utf8.RuneCountInString(words[i]) > 2 && utf8.RuneCountInString(words[i+1]) > 2 {
				add(words[i] + " " + words[i+1])
			}
		}
	}
	return out
}

// cleanCandidate lower-cases, drops anything but letters, digits and spaces,
// and collapses whitespace
func cleanCandidate(s string) string {
	stripped := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return unicode.ToLower(r)
		case unicode.IsSpace(r):
			return ' '
		default:
			return -1
		}
	}, s)
	return strings.Join(strings.Fields(stripped), " ")
}

func scoreCandidate(candidate, lowerTerm string) int {
	var lengthScore float64
	switch len(strings.Fields(candidate)) {
	case 2:
		lengthScore = 100
	case 3:
		lengthScore = 90
	case 1:
		lengthScore = 80
	default:
		lengthScore = 70
	}

	matchScore := 50.0
	if lowerTerm != "" && strings.Contains(candidate, lowerTerm) {
		matchScore = 100
	}
	return int(math.Round((lengthScore + matchScore) / 2))
}

// MergeSuggestions combines suggestion lists, keeping the highest score per
// keyword, ordered by score with first-seen tie-break
func MergeSuggestions(lists ...[]entities.Suggestion) []entities.Suggestion {
	index := make(map[string]int)
	var merged []entities.Suggestion
	for _, list := range lists {
		for _, s := range list {
			if i, ok := index[s.Keyword]; ok {
				if s.Score > merged[i].Score {
					merged[i].Score = s.Score
				}
				continue
			}
			index[s.Keyword] = len(merged)
			merged = append(merged, s)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged
}
