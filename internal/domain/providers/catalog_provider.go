package providers

import (
	"context"

	"github.com/zatekoja/asoradar/internal/domain/entities"
)

// CatalogProvider reads ranked feeds, listings and search results from a store
type CatalogProvider interface {
	// TopApps returns the ranked chart for a storefront. Failures yield an
	// empty slice, never an error.
	TopApps(ctx context.Context, country string, chart entities.Chart, limit int) []entities.AppRecord

	// AppDetails returns the full listing, or a NOT_FOUND error when absent
	AppDetails(ctx context.Context, id, country string) (*entities.AppRecord, error)

	// Search runs a store text search
	Search(ctx context.Context, term, country string, limit int) (*entities.SearchResult, error)
}

// SuggestionProvider returns scored related keywords for a term
type SuggestionProvider interface {
	Suggest(ctx context.Context, term, country string, limit int) (*entities.SuggestionResult, error)
}
