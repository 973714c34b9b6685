package entities

// KeywordCandidate is a 1-3 word n-gram mined from app text
type KeywordCandidate struct {
	Text      string `json:"text"`
	Frequency int    `json:"frequency"`
}

// Suggestion is a related keyword with a 0-100 score
type Suggestion struct {
	Keyword string `json:"keyword"`
	Score   int    `json:"score"`
}

// SuggestionResult holds the top suggestions and the total candidate count
type SuggestionResult struct {
	Suggestions []Suggestion `json:"suggestions"`
	Count       int          `json:"count"`
}

// KeywordSignals are the raw ranking inputs for a keyword.
// Missing signals stay at their zero value.
type KeywordSignals struct {
	AutocompleteRank   int     `json:"autocomplete_rank"`
	CompetingApps      int     `json:"competing_apps"`
	AvgTop10Downloads  float64 `json:"avg_top10_downloads"`
	AvgTop10Rating     float64 `json:"avg_top10_rating"`
	AvgTop10Reviews    float64 `json:"avg_top10_reviews"`
	AdsPopularityScore float64 `json:"ads_popularity_score"`
	TitleKeyword       bool    `json:"title_keyword"`
	AutocompleteTrend  float64 `json:"autocomplete_trend_7d"`
}

// KeywordMetrics are the normalized opportunity scores for a keyword
type KeywordMetrics struct {
	Volume           int `json:"volume" db:"volume"`
	Competitive      int `json:"competitive" db:"competitive"`
	Popularity       int `json:"popularity" db:"popularity"`
	Quality          int `json:"quality" db:"quality"`
	Top10Chance      int `json:"top_10_chance" db:"top10_chance"`
	OpportunityScore int `json:"opportunity_score" db:"opportunity_score"`
}
