package entities

import "time"

// AppStatus labels how recently an app entered the store
type AppStatus string

const (
	AppStatusNew      AppStatus = "New Discovery"
	AppStatusTrending AppStatus = "Trending"
)

// StatusFor returns AppStatusNew when released less than newAppDays before now.
// Unknown release dates count as Trending.
func StatusFor(release, now time.Time, newAppDays int) AppStatus {
	if release.IsZero() {
		return AppStatusTrending
	}
	if now.Sub(release) < time.Duration(newAppDays)*24*time.Hour {
		return AppStatusNew
	}
	return AppStatusTrending
}

// KeywordReport pairs an extracted keyword with its metrics
type KeywordReport struct {
	Keyword string         `json:"keyword"`
	Signals KeywordSignals `json:"signals"`
	Metrics KeywordMetrics `json:"metrics"`
}

// AppReport is one analyzed app row
type AppReport struct {
	Rank        int             `json:"rank"`
	App         AppRecord       `json:"app"`
	Status      AppStatus       `json:"status"`
	Keywords    []KeywordReport `json:"keywords"`
	Suggestions []Suggestion    `json:"suggestions"`
}

// CountryReport is the batch written to sinks for one storefront and chart
type CountryReport struct {
	RunID       string      `json:"run_id"`
	Country     string      `json:"country"`
	Chart       Chart       `json:"chart"`
	GeneratedAt time.Time   `json:"generated_at"`
	Apps        []AppReport `json:"apps"`
}
