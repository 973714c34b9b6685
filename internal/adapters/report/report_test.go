package report

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/asoradar/internal/domain/entities"
)

func sampleReport() *entities.CountryReport {
	return &entities.CountryReport{
		RunID:       "run-1",
		Country:     "us",
		Chart:       entities.ChartTopFree,
		GeneratedAt: time.Date(2025, 7, 1, 9, 30, 0, 0, time.UTC),
		Apps: []entities.AppReport{
			{
				Rank: 1,
				App: entities.AppRecord{
					ID:          "1",
					Name:        "Word Puzzle, Deluxe",
					Developer:   "Acme",
					Category:    "Games",
					Rating:      4.5,
					RatingCount: 1200,
					ReleaseDate: time.Date(2025, 6, 20, 7, 0, 0, 0, time.UTC),
					Price:       "Free",
					StoreURL:    "https://apps.apple.com/us/app/word-puzzle/id1",
				},
				Status: entities.AppStatusNew,
				Keywords: []entities.KeywordReport{
					{Keyword: "word", Metrics: entities.KeywordMetrics{Volume: 60, Competitive: 100, Popularity: 70, Quality: 70, Top10Chance: 14, OpportunityScore: 37}},
				},
				Suggestions: []entities.Suggestion{{Keyword: "word games", Score: 100}},
			},
			{
				Rank:   2,
				App:    entities.AppRecord{ID: "2", Name: "Photo Editor"},
				Status: entities.AppStatusTrending,
			},
		},
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "AppStore_Top_Free_Apps_US_2025-07-01.csv", FileName(sampleReport()))

	r := sampleReport()
	r.Chart = entities.ChartTopGrossing
	r.Country = "gb"
	assert.Equal(t, "AppStore_Top_Grossing_Apps_GB_2025-07-01.csv", FileName(r))
}

func TestCSVAdapter_Write(t *testing.T) {
	dir := t.TempDir()
	a := NewCSVAdapter(dir, 2, 1)

	require.NoError(t, a.Write(context.Background(), sampleReport()))

	f, err := os.Open(filepath.Join(dir, "AppStore_Top_Free_Apps_US_2025-07-01.csv"))
	require.NoError(t, err)
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)

	header := records[0]
	assert.Equal(t, []string{"Rank", "AppName", "Status", "Developer", "Category", "Rating", "RatingCount", "ReleaseDate", "Price", "Keyword 1", "Keyword 2"}, header[:11])
	assert.Equal(t, "Keyword 1 Volume", header[11])
	assert.Equal(t, "Keyword 2 Opportunity_Score", header[22])
	assert.Equal(t, []string{"Suggestion 1", "Suggestion 1 Score", "AppStoreLink"}, header[23:])

	first := records[1]
	require.Len(t, first, len(header))
	assert.Equal(t, []string{"1", "Word Puzzle, Deluxe", "New Discovery", "Acme", "Games", "4.5", "1200", "2025-06-20", "Free", "word", ""}, first[:11])
	assert.Equal(t, []string{"60", "100", "70", "70", "14", "37"}, first[11:17])
	assert.Equal(t, []string{"word games", "100", "https://apps.apple.com/us/app/word-puzzle/id1"}, first[23:])

	second := records[2]
	require.Len(t, second, len(header))
	assert.Equal(t, "Trending", second[2])
	assert.Equal(t, "N/A", second[3])
	assert.Equal(t, "N/A", second[7])
	assert.Equal(t, "N/A", second[len(second)-1])

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestCSVAdapter_WidensForLargerReports(t *testing.T) {
	r := sampleReport()
	r.Apps[0].Suggestions = append(r.Apps[0].Suggestions, entities.Suggestion{Keyword: "puzzle", Score: 65})

	kw, sg := NewCSVAdapter(t.TempDir(), 0, 1).slots(r)
	assert.Equal(t, 1, kw)
	assert.Equal(t, 2, sg)
}

type stubSink struct {
	writes int
	err    error
}

func (s *stubSink) Write(ctx context.Context, report *entities.CountryReport) error {
	s.writes++
	return s.err
}

func (s *stubSink) Close() error { return s.err }

func TestMultiSink_WritesToAllAndJoinsErrors(t *testing.T) {
	boom := errors.New("boom")
	failing := &stubSink{err: boom}
	ok := &stubSink{}
	m := NewMultiSink(failing, nil, ok)

	assert.Equal(t, 2, m.Len())
	err := m.Write(context.Background(), sampleReport())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, failing.writes)
	assert.Equal(t, 1, ok.writes)
	assert.ErrorIs(t, m.Close(), boom)
}
