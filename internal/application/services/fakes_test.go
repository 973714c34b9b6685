package services_test

import (
	"context"
	"errors"
	"sync"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	apperrors "github.com/zatekoja/asoradar/pkg/errors"
)

// fakeCatalog is an in-memory CatalogProvider that counts calls
type fakeCatalog struct {
	mu        sync.Mutex
	charts    map[string][]entities.AppRecord
	details   map[string]*entities.AppRecord
	titles    map[string][]string
	searchErr error

	searchCalls int
	searchLimit []int
	onDetails   func(id string)

	// searchStarted receives once per search when set; searches block on
	// searchGate until it is closed
	searchStarted chan struct{}
	searchGate    chan struct{}
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		charts:  make(map[string][]entities.AppRecord),
		details: make(map[string]*entities.AppRecord),
		titles:  make(map[string][]string),
	}
}

func (f *fakeCatalog) TopApps(ctx context.Context, country string, chart entities.Chart, limit int) []entities.AppRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.charts[country]
}

func (f *fakeCatalog) AppDetails(ctx context.Context, id, country string) (*entities.AppRecord, error) {
	if f.onDetails != nil {
		f.onDetails(id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	app, ok := f.details[id]
	if !ok {
		return nil, apperrors.NewNotFoundError("app " + id)
	}
	copied := *app
	return &copied, nil
}

// Search behaves like the store search: at most limit results, and
// ResultCount counts only what was returned.
func (f *fakeCatalog) Search(ctx context.Context, term, country string, limit int) (*entities.SearchResult, error) {
	if f.searchStarted != nil {
		f.searchStarted <- struct{}{}
	}
	if f.searchGate != nil {
		select {
		case <-f.searchGate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchCalls++
	f.searchLimit = append(f.searchLimit, limit)
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	res := &entities.SearchResult{Term: term, Country: country}
	for _, title := range f.titles[term] {
		if len(res.Apps) == limit {
			break
		}
		res.Apps = append(res.Apps, entities.AppRecord{Name: title, Rating: 4, RatingCount: 100})
	}
	res.ResultCount = len(res.Apps)
	return res, nil
}

func (f *fakeCatalog) SearchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.searchCalls
}

// recordingSink keeps every report it is given
type recordingSink struct {
	mu      sync.Mutex
	reports []*entities.CountryReport
	ctxErrs []error
	err     error
}

func (s *recordingSink) Write(ctx context.Context, report *entities.CountryReport) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, report)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	return s.err
}

func (s *recordingSink) Close() error { return nil }

var errUpstream = errors.New("upstream unavailable")
