package report

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/domain/providers"
	apperrors "github.com/zatekoja/asoradar/pkg/errors"
)

var keywordMetricColumns = []string{"Volume", "Competitive", "Popularity", "Quality", "Top_10_Chance", "Opportunity_Score"}

// CSVAdapter writes one CSV file per country report
type CSVAdapter struct {
	dir             string
	keywordSlots    int
	suggestionSlots int
}

// Ensure CSVAdapter implements ReportSink
var _ providers.ReportSink = (*CSVAdapter)(nil)

// NewCSVAdapter creates a CSV sink writing into dir. The slot counts fix the
// minimum number of keyword and suggestion column groups.
func NewCSVAdapter(dir string, keywordSlots, suggestionSlots int) *CSVAdapter {
	if dir == "" {
		dir = "."
	}
	return &CSVAdapter{dir: dir, keywordSlots: keywordSlots, suggestionSlots: suggestionSlots}
}

// FileName returns AppStore_<Chart_Name>_<CC>_<YYYY-MM-DD>.csv for report
func FileName(report *entities.CountryReport) string {
	chartName := strings.ReplaceAll(report.Chart.DisplayName(), " ", "_")
	return fmt.Sprintf("AppStore_%s_%s_%s.csv",
		chartName,
		strings.ToUpper(report.Country),
		report.GeneratedAt.Format("2006-01-02"),
	)
}

// Path returns where report will be written
func (a *CSVAdapter) Path(report *entities.CountryReport) string {
	return filepath.Join(a.dir, FileName(report))
}

// Write renders report to a temporary file and renames it into place
func (a *CSVAdapter) Write(ctx context.Context, report *entities.CountryReport) error {
	if report == nil {
		return apperrors.NewValidationError("report is nil")
	}
	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return apperrors.NewInternalError("failed to create report directory", err)
	}

	tmp, err := os.CreateTemp(a.dir, ".report-*.csv")
	if err != nil {
		return apperrors.NewInternalError("failed to create report file", err)
	}
	defer os.Remove(tmp.Name())

	kwSlots, sgSlots := a.slots(report)
	w := csv.NewWriter(tmp)
	if err := w.Write(header(kwSlots, sgSlots)); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("failed to write report header", err)
	}
	for i := range report.Apps {
		if err := w.Write(row(&report.Apps[i], kwSlots, sgSlots)); err != nil {
			tmp.Close()
			return apperrors.NewInternalError("failed to write report row", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return apperrors.NewInternalError("failed to flush report", err)
	}
	if err := tmp.Close(); err != nil {
		return apperrors.NewInternalError("failed to close report file", err)
	}

	path := a.Path(report)
	if err := os.Rename(tmp.Name(), path); err != nil {
		return apperrors.NewInternalError("failed to move report into place", err)
	}

	log.Info().Str("path", path).Int("rows", len(report.Apps)).Msg("Report successfully saved")
	return nil
}

// Close is a no-op; every Write produces a complete file
func (a *CSVAdapter) Close() error {
	return nil
}

func (a *CSVAdapter) slots(report *entities.CountryReport) (int, int) {
	kw, sg := a.keywordSlots, a.suggestionSlots
	for _, app := range report.Apps {
		kw = max(kw, len(app.Keywords))
		sg = max(sg, len(app.Suggestions))
	}
	return kw, sg
}

func header(kwSlots, sgSlots int) []string {
	cols := []string{"Rank", "AppName", "Status", "Developer", "Category", "Rating", "RatingCount", "ReleaseDate", "Price"}
	for i := 1; i <= kwSlots; i++ {
		cols = append(cols, fmt.Sprintf("Keyword %d", i))
	}
	for i := 1; i <= kwSlots; i++ {
		for _, m := range keywordMetricColumns {
			cols = append(cols, fmt.Sprintf("Keyword %d %s", i, m))
		}
	}
	for i := 1; i <= sgSlots; i++ {
		cols = append(cols, fmt.Sprintf("Suggestion %d", i))
	}
	for i := 1; i <= sgSlots; i++ {
		cols = append(cols, fmt.Sprintf("Suggestion %d Score", i))
	}
	return append(cols, "AppStoreLink")
}

func row(r *entities.AppReport, kwSlots, sgSlots int) []string {
	app := r.App
	releaseDate := "N/A"
	if !app.ReleaseDate.IsZero() {
		releaseDate = app.ReleaseDate.Format("2006-01-02")
	}

	cols := []string{
		strconv.Itoa(r.Rank),
		app.Name,
		string(r.Status),
		orNA(app.Developer),
		orNA(app.Category),
		strconv.FormatFloat(app.Rating, 'f', -1, 64),
		strconv.FormatInt(app.RatingCount, 10),
		releaseDate,
		orNA(app.Price),
	}

	for i := 0; i < kwSlots; i++ {
		if i < len(r.Keywords) {
			cols = append(cols, r.Keywords[i].Keyword)
		} else {
			cols = append(cols, "")
		}
	}
	for i := 0; i < kwSlots; i++ {
		if i >= len(r.Keywords) {
			cols = append(cols, make([]string, len(keywordMetricColumns))...)
			continue
		}
		m := r.Keywords[i].Metrics
		for _, v := range []int{m.Volume, m.Competitive, m.Popularity, m.Quality, m.Top10Chance, m.OpportunityScore} {
			cols = append(cols, strconv.Itoa(v))
		}
	}

	for i := 0; i < sgSlots; i++ {
		if i < len(r.Suggestions) {
			cols = append(cols, r.Suggestions[i].Keyword)
		} else {
			cols = append(cols, "")
		}
	}
	for i := 0; i < sgSlots; i++ {
		if i < len(r.Suggestions) {
			cols = append(cols, strconv.Itoa(r.Suggestions[i].Score))
		} else {
			cols = append(cols, "")
		}
	}

	return append(cols, orNA(app.StoreURL))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
