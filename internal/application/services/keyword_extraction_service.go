package services

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/stopwords"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// ExtractOptions bounds keyword extraction. Zero or negative fields take the
// DefaultExtractOptions value, so Limit 0 means 5 rather than none.
type ExtractOptions struct {
	Limit     int
	MinLength int
	MaxLength int
}

// DefaultExtractOptions returns limit 5, token length 3..25
func DefaultExtractOptions() ExtractOptions {
	return ExtractOptions{Limit: 5, MinLength: 3, MaxLength: 25}
}

func (o ExtractOptions) withDefaults() ExtractOptions {
	d := DefaultExtractOptions()
	if o.Limit <= 0 {
		o.Limit = d.Limit
	}
	if o.MinLength <= 0 {
		o.MinLength = d.MinLength
	}
	if o.MaxLength <= 0 {
		o.MaxLength = d.MaxLength
	}
	return o
}

// KeywordExtractionService mines ranked 1-3 word keyword candidates from text
type KeywordExtractionService struct {
	stopwords *stopwords.Registry
}

// NewKeywordExtractionService creates a new keyword extraction service
func NewKeywordExtractionService(registry *stopwords.Registry) *KeywordExtractionService {
	if registry == nil {
		registry = stopwords.Default()
	}
	return &KeywordExtractionService{stopwords: registry}
}

// Extract returns up to opts.Limit keywords (5 when unset), most frequent first
func (s *KeywordExtractionService) Extract(text, country string, opts ExtractOptions) []string {
	opts = opts.withDefaults()
	candidates := s.Candidates(text, country, opts)
	if len(candidates) > opts.Limit {
		candidates = candidates[:opts.Limit]
	}

	keywords := make([]string, 0, len(candidates))
	for _, c := range candidates {
		keywords = append(keywords, c.Text)
	}
	return keywords
}

// Candidates returns every candidate n-gram with its frequency, ordered by
// frequency descending. Ties keep first-seen order: unigrams in text order,
// then bigrams, then trigrams.
func (s *KeywordExtractionService) Candidates(text, country string, opts ExtractOptions) []entities.KeywordCandidate {
	opts = opts.withDefaults()
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	if len(tokens) == 0 {
		return []entities.KeywordCandidate{}
	}

	stop := s.stopwords.ForCountry(country)
	keep := make([]bool, len(tokens))
	for i, tok := range tokens {
		keep[i] = acceptToken(tok, stop, opts)
	}

	candidates := make([]entities.KeywordCandidate, 0, len(tokens)*3)
	index := make(map[string]int, len(tokens)*3)
	add := func(text string) {
		if i, ok := index[text]; ok {
			candidates[i].Frequency++
			return
		}
		index[text] = len(candidates)
		candidates = append(candidates, entities.KeywordCandidate{Text: text, Frequency: 1})
	}

	for n := 1; n <= 3; n++ {
	window:
		for i := 0; i+n <= len(tokens); i++ {
			for j := i; j < i+n; j++ {
				if !keep[j] {
					continue window
				}
			}
			add(strings.Join(tokens[i:i+n], " "))
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Frequency > candidates[j].Frequency
	})
	return candidates
}

func acceptToken(tok string, stop stopwords.Set, opts ExtractOptions) bool {
	n := utf8.RuneCountInString(tok)
	if n < opts.MinLength || n > opts.MaxLength {
		return false
	}
	if isNumeric(tok) {
		return false
	}
	return !stop.Contains(tok)
}

func isNumeric(tok string) bool {
	for _, r := range tok {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
