package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/stopwords"
)

func TestKeywordExtraction_RanksRepeatedWordFirst(t *testing.T) {
	svc := NewKeywordExtractionService(stopwords.Default())

	got := svc.Extract("Great Word Puzzle Game Word", "en", DefaultExtractOptions())

	assert.Equal(t, []string{"word", "puzzle", "word puzzle"}, got)
}

func TestKeywordExtraction_Candidates(t *testing.T) {
	svc := NewKeywordExtractionService(stopwords.Default())

	got := svc.Candidates("Photo editor: photo filters and photo editor tools", "us", DefaultExtractOptions())

	assert.Equal(t, entities.KeywordCandidate{Text: "photo", Frequency: 3}, got[0])
	assert.Equal(t, entities.KeywordCandidate{Text: "editor", Frequency: 2}, got[1])
	assert.Equal(t, entities.KeywordCandidate{Text: "photo editor", Frequency: 2}, got[2])
	// "and" is a stopword, so no n-gram may span it
	for _, c := range got {
		assert.NotContains(t, strings.Fields(c.Text), "and")
	}
}

func TestKeywordExtraction_Filters(t *testing.T) {
	svc := NewKeywordExtractionService(stopwords.Default())

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", []string{}},
		{"whitespace", "   \n\t", []string{}},
		{"punctuation only", "!!! ??? ...", []string{}},
		{"numbers dropped", "2048 2048 tiles", []string{"tiles"}},
		{"too short dropped", "go go maps", []string{"maps"}},
		{"too long dropped", strings.Repeat("x", 26) + " chess", []string{"chess"}},
		{"only stopwords", "the best free app", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, svc.Extract(tt.text, "us", DefaultExtractOptions()))
		})
	}
}

func TestKeywordExtraction_NeverReturnsStopwordsOrMoreThanLimit(t *testing.T) {
	svc := NewKeywordExtractionService(stopwords.Default())
	texts := []string{
		"The best photo editor for your phone. Edit photos with filters, stickers and more!",
		"Ein tolles Spiel für die ganze Familie und Freunde mit vielen Rätseln",
		"Juego de palabras para toda la familia con más de mil niveles",
		"Kelime oyunu ve bulmaca ile eğlenceli vakit geçirin çok güzel",
	}
	countries := []string{"us", "de", "mx", "tr"}

	for i, text := range texts {
		stop := stopwords.Default().ForCountry(countries[i])
		for _, limit := range []int{1, 3, 5, 10} {
			got := svc.Extract(text, countries[i], ExtractOptions{Limit: limit})
			assert.LessOrEqual(t, len(got), limit)
			for _, kw := range got {
				for _, tok := range strings.Fields(kw) {
					assert.False(t, stop.Contains(tok), "%q contains stopword %q", kw, tok)
				}
			}
		}
	}
}

func TestKeywordExtraction_UnicodeTokens(t *testing.T) {
	svc := NewKeywordExtractionService(stopwords.Default())
	got := svc.Extract("Bulmaca bulmaca Çiçek", "tr", ExtractOptions{Limit: 2})
	assert.Equal(t, []string{"bulmaca", "çiçek"}, got)
}

func TestKeywordExtraction_UnsetLimitUsesDefault(t *testing.T) {
	svc := NewKeywordExtractionService(stopwords.Default())
	text := "chess puzzle quest tiles maps timer budget"

	for _, limit := range []int{0, -1} {
		got := svc.Extract(text, "us", ExtractOptions{Limit: limit})
		assert.Len(t, got, DefaultExtractOptions().Limit)
	}
	assert.Len(t, svc.Extract(text, "us", ExtractOptions{Limit: 2}), 2)
}
