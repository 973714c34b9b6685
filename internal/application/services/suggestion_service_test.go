package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/asoradar/internal/adapters/cache"
	"github.com/zatekoja/asoradar/internal/application/services"
	"github.com/zatekoja/asoradar/internal/domain/entities"
)

func TestScoreSuggestions(t *testing.T) {
	res := services.ScoreSuggestions("word", []string{"Word Puzzle Games", "Word Search: Puzzle!"}, 5)

	assert.Equal(t, 8, res.Count)
	assert.Equal(t, []entities.Suggestion{
		{Keyword: "word puzzle", Score: 100},
		{Keyword: "word search", Score: 100},
		{Keyword: "word", Score: 90},
		{Keyword: "puzzle games", Score: 75},
		{Keyword: "search puzzle", Score: 75},
	}, res.Suggestions)
}

func TestScoreSuggestions_CleansAndDiscardsShortCandidates(t *testing.T) {
	res := services.ScoreSuggestions("chat", []string{"A.I. Chat", "Go Fit Pro"}, 20)

	var keywords []string
	for _, s := range res.Suggestions {
		keywords = append(keywords, s.Keyword)
		assert.GreaterOrEqual(t, s.Score, 0)
		assert.LessOrEqual(t, s.Score, 100)
	}
	assert.ElementsMatch(t, []string{"chat", "ai chat", "fit pro"}, keywords)
}

func TestScoreSuggestions_NeverExceedsLimitAndDedups(t *testing.T) {
	titles := []string{"Photo Editor Pro", "Photo Editor Pro", "Photo Editor - Filters", "PHOTO editor"}
	for _, limit := range []int{1, 2, 3, 50} {
		res := services.ScoreSuggestions("photo", titles, limit)
		assert.LessOrEqual(t, len(res.Suggestions), limit)

		seen := map[string]bool{}
		for _, s := range res.Suggestions {
			assert.False(t, seen[s.Keyword], "duplicate %q", s.Keyword)
			seen[s.Keyword] = true
		}
	}
}

func TestScoreSuggestions_UnsetLimitUsesDefault(t *testing.T) {
	var titles []string
	for i := 0; i < 30; i++ {
		titles = append(titles, fmt.Sprintf("Photo Studio%02d", i))
	}

	res := services.ScoreSuggestions("photo", titles, 0)
	assert.Len(t, res.Suggestions, services.DefaultSuggestionLimit)
	assert.Greater(t, res.Count, services.DefaultSuggestionLimit)
}

func TestSuggestionService_CachesIdenticalLookups(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.titles["puzzle"] = []string{"Puzzle Quest", "Block Puzzle"}
	svc := services.NewSuggestionService(catalog, cache.NewMemoryAdapter(), 0, nil)
	ctx := context.Background()

	first, err := svc.Suggest(ctx, "puzzle", "us", 20)
	require.NoError(t, err)
	require.Equal(t, 1, catalog.SearchCalls())

	second, err := svc.Suggest(ctx, "puzzle", "us", 20)
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.SearchCalls())
	assert.Equal(t, first, second)

	_, err = svc.Suggest(ctx, "puzzle", "us", 5)
	require.NoError(t, err)
	_, err = svc.Suggest(ctx, "puzzle", "gb", 20)
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.SearchCalls())
}

func TestSuggestionService_ConcurrentColdLookupsShareOneSearch(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.titles["chess"] = []string{"Chess Master", "Chess Online"}
	svc := services.NewSuggestionService(catalog, cache.NewMemoryAdapter(), 0, nil)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := svc.Suggest(context.Background(), "chess", "us", 20)
			assert.NoError(t, err)
			assert.NotEmpty(t, res.Suggestions)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, catalog.SearchCalls())
}

func TestSuggestionService_CancelledCallerDoesNotFailSharedLookup(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.titles["chess"] = []string{"Chess Master", "Chess Online"}
	catalog.searchStarted = make(chan struct{}, 1)
	catalog.searchGate = make(chan struct{})
	svc := services.NewSuggestionService(catalog, cache.NewMemoryAdapter(), 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.Suggest(ctx, "chess", "us", 20)
		firstErr <- err
	}()
	<-catalog.searchStarted
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	type outcome struct {
		res *entities.SuggestionResult
		err error
	}
	second := make(chan outcome, 1)
	go func() {
		res, err := svc.Suggest(context.Background(), "chess", "us", 20)
		second <- outcome{res, err}
	}()
	close(catalog.searchGate)

	got := <-second
	require.NoError(t, got.err)
	assert.NotEmpty(t, got.res.Suggestions)
	assert.Equal(t, 1, catalog.SearchCalls())
}

func TestSuggestionService_ErrorsAreNotCached(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.searchErr = errUpstream
	svc := services.NewSuggestionService(catalog, cache.NewMemoryAdapter(), 0, nil)

	_, err := svc.Suggest(context.Background(), "maps", "us", 20)
	assert.ErrorIs(t, err, errUpstream)

	catalog.mu.Lock()
	catalog.searchErr = nil
	catalog.titles["maps"] = []string{"Offline Maps"}
	catalog.mu.Unlock()

	res, err := svc.Suggest(context.Background(), "maps", "us", 20)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Suggestions)
	assert.Equal(t, 2, catalog.SearchCalls())
}

func TestSuggestionService_EmptyTerm(t *testing.T) {
	catalog := newFakeCatalog()
	svc := services.NewSuggestionService(catalog, cache.NewMemoryAdapter(), 0, nil)

	res, err := svc.Suggest(context.Background(), "   ", "us", 20)
	require.NoError(t, err)
	assert.Empty(t, res.Suggestions)
	assert.Equal(t, 0, catalog.SearchCalls())
}

func TestMergeSuggestions_KeepsMaxScore(t *testing.T) {
	merged := services.MergeSuggestions(
		[]entities.Suggestion{{Keyword: "word game", Score: 75}, {Keyword: "puzzle", Score: 65}},
		[]entities.Suggestion{{Keyword: "word game", Score: 100}, {Keyword: "crossword", Score: 90}},
	)

	assert.Equal(t, []entities.Suggestion{
		{Keyword: "word game", Score: 100},
		{Keyword: "crossword", Score: 90},
		{Keyword: "puzzle", Score: 65},
	}, merged)
}
