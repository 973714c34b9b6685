package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/domain/providers"
	"github.com/zatekoja/asoradar/internal/infrastructure/observability"
	"github.com/zatekoja/asoradar/internal/scoring"
)

// sinkFlushTimeout bounds the final write of a country batch after the run
// context has been cancelled
const sinkFlushTimeout = 30 * time.Second

const (
	// maxCompetitionSearch is the largest page the store search returns
	maxCompetitionSearch = 200
	topResults           = 10
)

// AnalysisOptions configures a batch run
type AnalysisOptions struct {
	Chart           entities.Chart
	TopLimit        int
	Workers         int
	KeywordsPerApp  int
	SuggestionLimit int
	TopSuggestions  int
	NewAppDays      int

	// CompetitionSearchLimit is the search size used to count competing
	// apps. The store reports only the results it returns, so the count
	// saturates at this value.
	CompetitionSearchLimit int
}

// DefaultAnalysisOptions mirrors the production defaults in pkg/config
func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		Chart:                  entities.ChartTopFree,
		TopLimit:               100,
		Workers:                5,
		KeywordsPerApp:         3,
		SuggestionLimit:        5,
		TopSuggestions:         5,
		NewAppDays:             60,
		CompetitionSearchLimit: maxCompetitionSearch,
	}
}

// RunSummary reports what a batch run produced
type RunSummary struct {
	RunID            string
	CountriesWritten int
	CountriesSkipped int
	AppsAnalyzed     int
	AppsFailed       int
}

// AnalysisService drives the per-country pipeline: chart, details, keywords,
// suggestions, metrics, and finally the report sink
type AnalysisService struct {
	catalog     providers.CatalogProvider
	suggestions providers.SuggestionProvider
	extractor   *KeywordExtractionService
	sink        providers.ReportSink
	metrics     *observability.Metrics
	opts        AnalysisOptions
	now         func() time.Time
}

// NewAnalysisService creates a new analysis service
func NewAnalysisService(
	catalog providers.CatalogProvider,
	suggestions providers.SuggestionProvider,
	extractor *KeywordExtractionService,
	sink providers.ReportSink,
	metrics *observability.Metrics,
	opts AnalysisOptions,
) *AnalysisService {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.CompetitionSearchLimit < 1 || opts.CompetitionSearchLimit > maxCompetitionSearch {
		opts.CompetitionSearchLimit = maxCompetitionSearch
	}
	return &AnalysisService{
		catalog:     catalog,
		suggestions: suggestions,
		extractor:   extractor,
		sink:        sink,
		metrics:     metrics,
		opts:        opts,
		now:         time.Now,
	}
}

// Run analyzes every country in order. A country whose chart is empty is
// skipped. When ctx is cancelled the current country's collected apps are
// still written before Run returns ctx.Err().
func (s *AnalysisService) Run(ctx context.Context, runID string, countries []string) (RunSummary, error) {
	summary := RunSummary{RunID: runID}
	logger := observability.LoggerFromContext(ctx)

	for _, country := range countries {
		if ctx.Err() != nil {
			break
		}
		country = strings.ToLower(strings.TrimSpace(country))
		logger.Info().Str("country", strings.ToUpper(country)).Msg("Starting analysis")

		report, failed := s.AnalyzeCountry(ctx, runID, country)
		summary.AppsFailed += failed
		if report == nil || len(report.Apps) == 0 {
			summary.CountriesSkipped++
			logger.Error().Str("country", strings.ToUpper(country)).Msg("No data was analyzed, skipping report")
			continue
		}

		if err := s.flush(ctx, report); err != nil {
			summary.CountriesSkipped++
			logger.Error().Err(err).Str("country", strings.ToUpper(country)).Msg("Failed to write report")
			continue
		}
		summary.CountriesWritten++
		summary.AppsAnalyzed += len(report.Apps)
		logger.Info().
			Str("country", strings.ToUpper(country)).
			Int("apps", len(report.Apps)).
			Msg("Report written")
	}

	return summary, ctx.Err()
}

// flush writes the report even if ctx is already cancelled
func (s *AnalysisService) flush(ctx context.Context, report *entities.CountryReport) error {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sinkFlushTimeout)
	defer cancel()
	return s.sink.Write(writeCtx, report)
}

// AnalyzeCountry fetches the chart for country and analyzes each app on a
// bounded worker pool. It returns nil when the chart is empty, plus the
// number of apps that had to be skipped.
func (s *AnalysisService) AnalyzeCountry(ctx context.Context, runID, country string) (*entities.CountryReport, int) {
	ctx, span := observability.StartSpan(ctx, "analysis.country")
	defer span.End()
	logger := observability.LoggerFromContext(ctx)

	apps := s.catalog.TopApps(ctx, country, s.opts.Chart, s.opts.TopLimit)
	if len(apps) == 0 {
		logger.Error().Str("country", strings.ToUpper(country)).Msg("Could not retrieve app list")
		return nil, 0
	}
	logger.Info().Int("apps", len(apps)).Str("country", strings.ToUpper(country)).Msg("Chart fetched")

	results := make([]*entities.AppReport, len(apps))
	var failed atomic.Int32

	var g errgroup.Group
	g.SetLimit(s.opts.Workers)
	for i, app := range apps {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			report, err := s.AnalyzeApp(ctx, country, i+1, app)
			if err != nil {
				failed.Add(1)
				observability.RecordAppOutcome(ctx, s.metrics, country, false)
				if !errors.Is(err, context.Canceled) {
					logger.Warn().
						Err(err).
						Str("app_id", app.ID).
						Str("progress", fmt.Sprintf("%d/%d", i+1, len(apps))).
						Msg("Skipping app")
				}
				return nil
			}
			observability.RecordAppOutcome(ctx, s.metrics, country, true)
			results[i] = report
			return nil
		})
	}
	_ = g.Wait()

	report := &entities.CountryReport{
		RunID:       runID,
		Country:     country,
		Chart:       s.opts.Chart,
		GeneratedAt: s.now(),
		Apps:        make([]entities.AppReport, 0, len(apps)),
	}
	for _, r := range results {
		if r != nil {
			report.Apps = append(report.Apps, *r)
		}
	}
	return report, int(failed.Load())
}

// AnalyzeApp builds the report row for one chart entry
func (s *AnalysisService) AnalyzeApp(ctx context.Context, country string, rank int, app entities.AppRecord) (*entities.AppReport, error) {
	details, err := s.catalog.AppDetails(ctx, app.ID, country)
	if err != nil {
		return nil, err
	}
	if details.StoreURL == "" {
		details.StoreURL = app.StoreURL
	}
	if details.ReleaseDate.IsZero() {
		details.ReleaseDate = app.ReleaseDate
	}
	if details.Name == "" {
		details.Name = app.Name
	}

	observability.LoggerFromContext(ctx).Info().
		Int("rank", rank).
		Str("app", details.Name).
		Str("country", strings.ToUpper(country)).
		Msg("Analyzing")

	keywords := s.extractor.Extract(details.KeywordText(), country, ExtractOptions{Limit: s.opts.KeywordsPerApp})

	report := &entities.AppReport{
		Rank:     rank,
		App:      *details,
		Status:   entities.StatusFor(details.ReleaseDate, s.now(), s.opts.NewAppDays),
		Keywords: make([]entities.KeywordReport, 0, len(keywords)),
	}

	var lists [][]entities.Suggestion
	for _, kw := range keywords {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var suggestions []entities.Suggestion
		res, err := s.suggestions.Suggest(ctx, kw, country, s.opts.SuggestionLimit)
		if err != nil {
			observability.LoggerFromContext(ctx).Warn().Err(err).Str("keyword", kw).Msg("No suggestions for keyword")
		} else {
			suggestions = res.Suggestions
			lists = append(lists, suggestions)
		}

		signals := s.keywordSignals(ctx, kw, country, details, suggestions)
		report.Keywords = append(report.Keywords, entities.KeywordReport{
			Keyword: kw,
			Signals: signals,
			Metrics: scoring.ComputeKeywordMetrics(signals),
		})
	}

	merged := MergeSuggestions(lists...)
	if s.opts.TopSuggestions > 0 && len(merged) > s.opts.TopSuggestions {
		merged = merged[:s.opts.TopSuggestions]
	}
	report.Suggestions = merged
	return report, nil
}

// keywordSignals gathers what the public store exposes about a keyword:
// result count, the top results' ratings, and where the keyword sits among
// its own suggestions. Search failures leave the competition signals at zero.
func (s *AnalysisService) keywordSignals(ctx context.Context, keyword, country string, app *entities.AppRecord, suggestions []entities.Suggestion) entities.KeywordSignals {
	signals := entities.KeywordSignals{
		TitleKeyword: app.TitleContains(keyword),
	}
	for i, sg := range suggestions {
		if sg.Keyword == keyword {
			signals.AutocompleteRank = i + 1
			break
		}
	}

	// One full page serves both the count and the top 10 averages.
	res, err := s.catalog.Search(ctx, keyword, country, s.opts.CompetitionSearchLimit)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			observability.LoggerFromContext(ctx).Debug().Err(err).Str("keyword", keyword).Msg("Competition search failed")
		}
		return signals
	}

	signals.CompetingApps = max(res.ResultCount, len(res.Apps))
	top := res.Apps
	if len(top) > topResults {
		top = top[:topResults]
	}
	if len(top) > 0 {
		var rating, reviews float64
		for _, a := range top {
			rating += a.Rating
			reviews += float64(a.RatingCount)
		}
		signals.AvgTop10Rating = rating / float64(len(top))
		signals.AvgTop10Reviews = reviews / float64(len(top))
	}
	return signals
}
