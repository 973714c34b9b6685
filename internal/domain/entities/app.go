package entities

import (
	"strings"
	"time"
	"unicode"
)

// AppRecord is a store listing as returned by the catalog lookup.
// Identity is (ID, Country).
type AppRecord struct {
	ID          string    `json:"id" db:"app_id"`
	Country     string    `json:"country" db:"country"`
	Name        string    `json:"name" db:"name"`
	Developer   string    `json:"developer" db:"developer"`
	Category    string    `json:"category" db:"category"`
	Genres      []string  `json:"genres,omitempty" db:"-"`
	BundleID    string    `json:"bundle_id,omitempty" db:"bundle_id"`
	Rating      float64   `json:"rating" db:"rating"`
	RatingCount int64     `json:"rating_count" db:"rating_count"`
	ReleaseDate time.Time `json:"release_date" db:"release_date"`
	Price       string    `json:"price" db:"price"`
	StoreURL    string    `json:"store_url" db:"store_url"`
	Description string    `json:"description,omitempty" db:"-"`
}

// KeywordText is the text keywords are mined from: title then description.
func (a AppRecord) KeywordText() string {
	if a.Description == "" {
		return a.Name
	}
	return a.Name + " " + a.Description
}

// TitleContains reports whether keyword appears in the app name as whole
// words, so "art" does not match "Smart Timer".
func (a AppRecord) TitleContains(keyword string) bool {
	want := titleTokens(keyword)
	if len(want) == 0 {
		return false
	}
	have := titleTokens(a.Name)
next:
	for i := 0; i+len(want) <= len(have); i++ {
		for j, w := range want {
			if have[i+j] != w {
				continue next
			}
		}
		return true
	}
	return false
}

func titleTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r) && r != '_'
	})
}

// Chart identifies a ranked store feed.
type Chart string

const (
	ChartTopFree     Chart = "top-free"
	ChartTopPaid     Chart = "top-paid"
	ChartTopGrossing Chart = "top-grossing"
)

// ParseChart maps a chart id to a Chart, falling back to top-free.
func ParseChart(s string) Chart {
	switch Chart(s) {
	case ChartTopPaid:
		return ChartTopPaid
	case ChartTopGrossing:
		return ChartTopGrossing
	default:
		return ChartTopFree
	}
}

// DisplayName returns the human readable chart title
func (c Chart) DisplayName() string {
	switch c {
	case ChartTopPaid:
		return "Top Paid Apps"
	case ChartTopGrossing:
		return "Top Grossing Apps"
	default:
		return "Top Free Apps"
	}
}

// SearchResult is the outcome of a store text search
type SearchResult struct {
	Term        string      `json:"term"`
	Country     string      `json:"country"`
	ResultCount int         `json:"result_count"`
	Apps        []AppRecord `json:"apps"`
}

// Titles returns the app names in result order
func (r *SearchResult) Titles() []string {
	titles := make([]string, 0, len(r.Apps))
	for _, app := range r.Apps {
		titles = append(titles, app.Name)
	}
	return titles
}
