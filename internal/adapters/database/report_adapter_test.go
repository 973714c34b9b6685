package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/infrastructure/clients/postgres"
)

func setupMockDB(t *testing.T) (*ReportAdapter, sqlmock.Sqlmock) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}
	t.Cleanup(func() { mockDB.Close() })
	return NewReportAdapter(postgres.NewFromDB(mockDB)), mock
}

func testReport() *entities.CountryReport {
	return &entities.CountryReport{
		RunID:       "run-1",
		Country:     "us",
		Chart:       entities.ChartTopFree,
		GeneratedAt: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Apps: []entities.AppReport{
			{
				Rank:   1,
				App:    entities.AppRecord{ID: "1", Name: "Word Puzzle", Developer: "Acme"},
				Status: entities.AppStatusTrending,
				Keywords: []entities.KeywordReport{
					{Keyword: "word", Metrics: entities.KeywordMetrics{Volume: 60, OpportunityScore: 37}},
					{Keyword: "puzzle", Metrics: entities.KeywordMetrics{Volume: 55}},
				},
				Suggestions: []entities.Suggestion{{Keyword: "word games", Score: 100}},
			},
		},
	}
}

func TestReportAdapter_Write(t *testing.T) {
	adapter, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "keyword_metrics" WHERE .*"run_id" = 'run-1'`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "app_reports"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "app_reports"`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO "keyword_metrics" .*'puzzle'`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	require.NoError(t, adapter.Write(context.Background(), testReport()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapter_Write_RollsBackOnFailure(t *testing.T) {
	adapter, mock := setupMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "keyword_metrics"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "app_reports"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO "app_reports"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := adapter.Write(context.Background(), testReport())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapter_Write_NoAppsOnlyClearsScope(t *testing.T) {
	adapter, mock := setupMockDB(t)
	report := testReport()
	report.Apps = nil

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "keyword_metrics"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "app_reports"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, adapter.Write(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportAdapter_EnsureSchema(t *testing.T) {
	adapter, mock := setupMockDB(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS app_reports`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS keyword_metrics`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE INDEX IF NOT EXISTS idx_keyword_metrics_opportunity`).WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, adapter.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
