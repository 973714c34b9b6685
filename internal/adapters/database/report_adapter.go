package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/domain/providers"
	"github.com/zatekoja/asoradar/internal/infrastructure/clients/postgres"
	apperrors "github.com/zatekoja/asoradar/pkg/errors"
)

const (
	appReportsTable     = "app_reports"
	keywordMetricsTable = "keyword_metrics"
)

var reportSchema = []string{
	`CREATE TABLE IF NOT EXISTS app_reports (
		run_id        TEXT NOT NULL,
		country       TEXT NOT NULL,
		chart         TEXT NOT NULL,
		rank          INTEGER NOT NULL,
		app_id        TEXT NOT NULL,
		name          TEXT NOT NULL,
		developer     TEXT,
		category      TEXT,
		rating        DOUBLE PRECISION NOT NULL DEFAULT 0,
		rating_count  BIGINT NOT NULL DEFAULT 0,
		release_date  DATE,
		price         TEXT,
		status        TEXT NOT NULL,
		store_url     TEXT,
		suggestions   JSONB NOT NULL DEFAULT '[]',
		generated_at  TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (run_id, country, chart, app_id)
	)`,
	`CREATE TABLE IF NOT EXISTS keyword_metrics (
		run_id            TEXT NOT NULL,
		country           TEXT NOT NULL,
		chart             TEXT NOT NULL,
		app_id            TEXT NOT NULL,
		position          INTEGER NOT NULL,
		keyword           TEXT NOT NULL,
		volume            INTEGER NOT NULL,
		competitive       INTEGER NOT NULL,
		popularity        INTEGER NOT NULL,
		quality           INTEGER NOT NULL,
		top10_chance      INTEGER NOT NULL,
		opportunity_score INTEGER NOT NULL,
		PRIMARY KEY (run_id, country, chart, app_id, keyword)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_keyword_metrics_opportunity ON keyword_metrics (country, opportunity_score DESC)`,
}

// ReportAdapter persists country reports in Postgres
type ReportAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// Ensure ReportAdapter implements ReportSink
var _ providers.ReportSink = (*ReportAdapter)(nil)

// NewReportAdapter creates a new report adapter
func NewReportAdapter(client *postgres.Client) *ReportAdapter {
	return &ReportAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// EnsureSchema creates the report tables when missing
func (a *ReportAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range reportSchema {
		if _, err := a.client.DB().ExecContext(ctx, stmt); err != nil {
			return apperrors.NewInternalError("failed to create report schema", err)
		}
	}
	return nil
}

// Write replaces the rows for (run, country, chart) with report in a single
// transaction
func (a *ReportAdapter) Write(ctx context.Context, report *entities.CountryReport) error {
	if report == nil {
		return apperrors.NewValidationError("report is nil")
	}

	statements, err := a.buildStatements(report)
	if err != nil {
		return err
	}

	tx, err := a.client.BeginTx(ctx)
	if err != nil {
		return apperrors.NewInternalError("failed to begin report transaction", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	for _, stmt := range statements {
		if _, err = tx.ExecContext(ctx, stmt.query, stmt.args...); err != nil {
			return apperrors.NewInternalError(fmt.Sprintf("failed to write %s", stmt.table), err)
		}
	}

	if err = tx.Commit(); err != nil {
		return apperrors.NewInternalError("failed to commit report", err)
	}

	log.Info().
		Str("country", report.Country).
		Str("run_id", report.RunID).
		Int("apps", len(report.Apps)).
		Msg("Report stored in Postgres")
	return nil
}

// Close is a no-op; the client is owned by the caller
func (a *ReportAdapter) Close() error {
	return nil
}

type statement struct {
	table string
	query string
	args  []interface{}
}

func (a *ReportAdapter) buildStatements(report *entities.CountryReport) ([]statement, error) {
	scope := goqu.Ex{
		"run_id":  report.RunID,
		"country": report.Country,
		"chart":   string(report.Chart),
	}

	var statements []statement
	for _, table := range []string{keywordMetricsTable, appReportsTable} {
		query, args, err := a.db.Delete(table).Where(scope).ToSQL()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to build delete query", err)
		}
		statements = append(statements, statement{table: table, query: query, args: args})
	}

	appRows, keywordRows, err := reportRecords(report)
	if err != nil {
		return nil, err
	}

	if len(appRows) > 0 {
		query, args, err := a.db.Insert(appReportsTable).Rows(appRows...).ToSQL()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to build app report insert query", err)
		}
		statements = append(statements, statement{table: appReportsTable, query: query, args: args})
	}
	if len(keywordRows) > 0 {
		query, args, err := a.db.Insert(keywordMetricsTable).Rows(keywordRows...).ToSQL()
		if err != nil {
			return nil, apperrors.NewInternalError("failed to build keyword metrics insert query", err)
		}
		statements = append(statements, statement{table: keywordMetricsTable, query: query, args: args})
	}
	return statements, nil
}

func reportRecords(report *entities.CountryReport) ([]interface{}, []interface{}, error) {
	var appRows, keywordRows []interface{}
	for _, r := range report.Apps {
		suggestions := r.Suggestions
		if suggestions == nil {
			suggestions = []entities.Suggestion{}
		}
		encoded, err := json.Marshal(suggestions)
		if err != nil {
			return nil, nil, apperrors.NewInternalError("failed to encode suggestions", err)
		}

		appRows = append(appRows, goqu.Record{
			"run_id":       report.RunID,
			"country":      report.Country,
			"chart":        string(report.Chart),
			"rank":         r.Rank,
			"app_id":       r.App.ID,
			"name":         r.App.Name,
			"developer":    sql.NullString{String: r.App.Developer, Valid: r.App.Developer != ""},
			"category":     sql.NullString{String: r.App.Category, Valid: r.App.Category != ""},
			"rating":       r.App.Rating,
			"rating_count": r.App.RatingCount,
			"release_date": sql.NullTime{Time: r.App.ReleaseDate, Valid: !r.App.ReleaseDate.IsZero()},
			"price":        sql.NullString{String: r.App.Price, Valid: r.App.Price != ""},
			"status":       string(r.Status),
			"store_url":    sql.NullString{String: r.App.StoreURL, Valid: r.App.StoreURL != ""},
			"suggestions":  string(encoded),
			"generated_at": report.GeneratedAt,
		})

		for i, kw := range r.Keywords {
			keywordRows = append(keywordRows, goqu.Record{
				"run_id":            report.RunID,
				"country":           report.Country,
				"chart":             string(report.Chart),
				"app_id":            r.App.ID,
				"position":          i + 1,
				"keyword":           kw.Keyword,
				"volume":            kw.Metrics.Volume,
				"competitive":       kw.Metrics.Competitive,
				"popularity":        kw.Metrics.Popularity,
				"quality":           kw.Metrics.Quality,
				"top10_chance":      kw.Metrics.Top10Chance,
				"opportunity_score": kw.Metrics.OpportunityScore,
			})
		}
	}
	return appRows, keywordRows, nil
}
