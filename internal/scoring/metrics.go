// Package scoring converts raw keyword ranking signals into normalized
// opportunity metrics. Everything here is a pure function.
package scoring

import (
	"math"

	"github.com/zatekoja/asoradar/internal/domain/entities"
)

const (
	// UnrankedVolume is the volume floor for terms without an autocomplete rank
	UnrankedVolume = 10.0

	reviewCap   = 10000.0
	downloadCap = 10000.0
)

// ComputeKeywordMetrics derives volume, competition, popularity, quality,
// top-10 chance and opportunity from signals. Intermediate values stay
// unrounded; only the outputs are rounded.
func ComputeKeywordMetrics(s entities.KeywordSignals) entities.KeywordMetrics {
	volume := Volume(s.AutocompleteRank)
	competitive := Competitive(s.CompetingApps)

	popularity := finite(s.AdsPopularityScore)
	if popularity == 0 {
		popularity = volume * 0.8
	}

	quality := finite(s.AvgTop10Rating)/5*50 +
		math.Min(finite(s.AvgTop10Downloads), downloadCap)/200 +
		math.Min(finite(s.AvgTop10Reviews), reviewCap)/200

	top10 := Top10Chance(volume, competitive, s.TitleKeyword, finite(s.AutocompleteTrend))

	opportunity := volume*0.6 + (100-competitive)*0.3 + top10*0.1

	return entities.KeywordMetrics{
		Volume:           roundInt(volume),
		Competitive:      roundInt(competitive),
		Popularity:       roundInt(popularity),
		Quality:          roundInt(quality),
		Top10Chance:      roundInt(top10),
		OpportunityScore: roundInt(opportunity),
	}
}

// Volume is 110 - rank*10 for ranked terms, never below the unranked floor
func Volume(autocompleteRank int) float64 {
	if autocompleteRank <= 0 {
		return UnrankedVolume
	}
	return math.Max(110-float64(autocompleteRank)*10, UnrankedVolume)
}

// Competitive grows with the log of competing apps, capped at 100
func Competitive(competingApps int) float64 {
	if competingApps < 0 {
		competingApps = 0
	}
	return math.Min(100, math.Log(float64(competingApps)+1)*20)
}

// Top10Chance is the logistic estimate, in percent, of ranking in the top ten
func Top10Chance(volume, competitive float64, titleKeyword bool, trend7d float64) float64 {
	x := volume - competitive + trend7d*2
	if titleKeyword {
		x += 20
	}
	return sigmoid(x/10) * 100
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// finite maps NaN to zero so a bad upstream number cannot poison every output
func finite(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}

func roundInt(v float64) int {
	switch {
	case math.IsNaN(v):
		return 0
	case v > math.MaxInt32:
		return math.MaxInt32
	case v < math.MinInt32:
		return math.MinInt32
	}
	return int(math.Round(v))
}
