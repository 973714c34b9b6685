package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/domain/providers"
	apperrors "github.com/zatekoja/asoradar/pkg/errors"
)

// DocumentWriter upserts documents into the keyword collection.
// *typesense.Client satisfies it.
type DocumentWriter interface {
	UpsertDocument(ctx context.Context, document map[string]interface{}) error
}

// KeywordIndexAdapter indexes per-keyword metrics in Typesense so
// opportunities can be searched across runs and countries
type KeywordIndexAdapter struct {
	writer DocumentWriter
}

// Ensure KeywordIndexAdapter implements ReportSink
var _ providers.ReportSink = (*KeywordIndexAdapter)(nil)

// NewKeywordIndexAdapter creates a new keyword index adapter
func NewKeywordIndexAdapter(writer DocumentWriter) *KeywordIndexAdapter {
	return &KeywordIndexAdapter{writer: writer}
}

// Write upserts one document per (app, keyword). Failed documents are
// reported together after the rest have been attempted.
func (a *KeywordIndexAdapter) Write(ctx context.Context, report *entities.CountryReport) error {
	if report == nil {
		return apperrors.NewValidationError("report is nil")
	}
	docs := BuildKeywordDocuments(report)

	var errs []error
	for _, doc := range docs {
		if err := a.writer.UpsertDocument(ctx, doc); err != nil {
			errs = append(errs, fmt.Errorf("failed to index keyword %v: %w", doc["keyword"], err))
		}
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	log.Info().Str("country", report.Country).Int("documents", len(docs)).Msg("Keywords indexed")
	return nil
}

// Close is a no-op
func (a *KeywordIndexAdapter) Close() error {
	return nil
}

// KeywordDocumentID is stable for a (country, chart, app, keyword) so
// re-runs overwrite rather than duplicate
func KeywordDocumentID(country string, chart entities.Chart, appID, keyword string) string {
	key := strings.Join([]string{country, string(chart), appID, keyword}, "|")
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(key)).String()
}

// BuildKeywordDocuments flattens report into keyword documents
func BuildKeywordDocuments(report *entities.CountryReport) []map[string]interface{} {
	if report == nil {
		return nil
	}

	var docs []map[string]interface{}
	for _, r := range report.Apps {
		suggestions := make([]string, 0, len(r.Suggestions))
		for _, s := range r.Suggestions {
			suggestions = append(suggestions, s.Keyword)
		}

		for _, kw := range r.Keywords {
			docs = append(docs, map[string]interface{}{
				"id":                KeywordDocumentID(report.Country, report.Chart, r.App.ID, kw.Keyword),
				"keyword":           kw.Keyword,
				"country":           report.Country,
				"chart":             string(report.Chart),
				"app_id":            r.App.ID,
				"app_name":          r.App.Name,
				"category":          r.App.Category,
				"rank":              r.Rank,
				"volume":            kw.Metrics.Volume,
				"competitive":       kw.Metrics.Competitive,
				"popularity":        kw.Metrics.Popularity,
				"quality":           kw.Metrics.Quality,
				"top10_chance":      kw.Metrics.Top10Chance,
				"opportunity_score": kw.Metrics.OpportunityScore,
				"suggestions":       suggestions,
				"generated_at":      report.GeneratedAt.Unix(),
			})
		}
	}
	return docs
}
