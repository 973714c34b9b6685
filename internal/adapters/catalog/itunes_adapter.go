package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/domain/providers"
	apperrors "github.com/zatekoja/asoradar/pkg/errors"
)

// Getter is the subset of the store API client the catalog needs
type Getter interface {
	Get(ctx context.Context, endpoint string, params url.Values) ([]byte, error)
}

// ITunesAdapter implements CatalogProvider against the public iTunes
// marketing feeds and search API
type ITunesAdapter struct {
	client     Getter
	feedBase   string
	searchBase string
}

// NewITunesAdapter creates a new catalog adapter
func NewITunesAdapter(client Getter, feedBaseURL, searchBaseURL string) providers.CatalogProvider {
	return &ITunesAdapter{
		client:     client,
		feedBase:   strings.TrimRight(feedBaseURL, "/"),
		searchBase: strings.TrimRight(searchBaseURL, "/"),
	}
}

// TopApps returns the ranked chart. Unreachable or malformed feeds yield an
// empty slice.
func (a *ITunesAdapter) TopApps(ctx context.Context, country string, chart entities.Chart, limit int) []entities.AppRecord {
	endpoint := fmt.Sprintf("%s/%s/ios-apps/apps/%s/%d/explicit.json", a.feedBase, country, chart, limit)

	body, err := a.client.Get(ctx, endpoint, nil)
	if err != nil {
		log.Error().Err(err).Str("country", country).Str("chart", string(chart)).Msg("Failed to fetch top apps feed")
		return nil
	}

	results := gjson.GetBytes(body, "feed.results")
	if !results.IsArray() {
		log.Error().Str("country", country).Str("chart", string(chart)).Msg("Could not parse top apps feed")
		return nil
	}

	apps := make([]entities.AppRecord, 0, len(results.Array()))
	results.ForEach(func(_, item gjson.Result) bool {
		id := item.Get("id").String()
		if id == "" {
			return true
		}
		app := entities.AppRecord{
			ID:        id,
			Country:   country,
			Name:      item.Get("name").String(),
			Developer: item.Get("artistName").String(),
			StoreURL:  item.Get("url").String(),
		}
		if app.Name == "" {
			app.Name, _ = AppNameFromURL(app.StoreURL)
		}
		app.ReleaseDate = parseDate(item.Get("releaseDate").String())
		item.Get("genres.#.name").ForEach(func(_, g gjson.Result) bool {
			app.Genres = append(app.Genres, g.String())
			return true
		})
		if len(app.Genres) > 0 {
			app.Category = app.Genres[0]
		}
		apps = append(apps, app)
		return true
	})

	log.Debug().Int("count", len(apps)).Str("country", country).Msg("Fetched top apps feed")
	return apps
}

// AppDetails looks up a single app. An empty result set is NOT_FOUND.
func (a *ITunesAdapter) AppDetails(ctx context.Context, id, country string) (*entities.AppRecord, error) {
	var resp lookupResponse
	if err := a.getJSON(ctx, a.searchBase+"/lookup", url.Values{
		"id":      {id},
		"country": {country},
	}, &resp); err != nil {
		return nil, fmt.Errorf("lookup app %s/%s: %w", country, id, err)
	}

	if resp.ResultCount == 0 || len(resp.Results) == 0 {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("app %s not found in %s", id, country))
	}

	app := resp.Results[0].toEntity(country)
	if app.ID == "" {
		app.ID = id
	}
	return &app, nil
}

// Search runs a software search for term
func (a *ITunesAdapter) Search(ctx context.Context, term, country string, limit int) (*entities.SearchResult, error) {
	var resp lookupResponse
	if err := a.getJSON(ctx, a.searchBase+"/search", url.Values{
		"term":    {term},
		"country": {country},
		"media":   {"software"},
		"limit":   {strconv.Itoa(limit)},
	}, &resp); err != nil {
		return nil, fmt.Errorf("search %q in %s: %w", term, country, err)
	}

	result := &entities.SearchResult{
		Term:        term,
		Country:     country,
		ResultCount: resp.ResultCount,
		Apps:        make([]entities.AppRecord, 0, len(resp.Results)),
	}
	for _, item := range resp.Results {
		result.Apps = append(result.Apps, item.toEntity(country))
	}
	return result, nil
}

func (a *ITunesAdapter) getJSON(ctx context.Context, endpoint string, params url.Values, out any) error {
	body, err := a.client.Get(ctx, endpoint, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewPermanentError("malformed response", err)
	}
	return nil
}

type lookupResponse struct {
	ResultCount int            `json:"resultCount"`
	Results     []lookupResult `json:"results"`
}

type lookupResult struct {
	TrackID           int64    `json:"trackId"`
	TrackName         string   `json:"trackName"`
	ArtistName        string   `json:"artistName"`
	PrimaryGenreName  string   `json:"primaryGenreName"`
	Genres            []string `json:"genres"`
	BundleID          string   `json:"bundleId"`
	AverageUserRating float64  `json:"averageUserRating"`
	UserRatingCount   int64    `json:"userRatingCount"`
	ReleaseDate       string   `json:"releaseDate"`
	FormattedPrice    string   `json:"formattedPrice"`
	TrackViewURL      string   `json:"trackViewUrl"`
	Description       string   `json:"description"`
}

func (r lookupResult) toEntity(country string) entities.AppRecord {
	id := ""
	if r.TrackID != 0 {
		id = strconv.FormatInt(r.TrackID, 10)
	}
	name := r.TrackName
	if name == "" {
		name, _ = AppNameFromURL(r.TrackViewURL)
	}
	return entities.AppRecord{
		ID:          id,
		Country:     country,
		Name:        name,
		Developer:   r.ArtistName,
		Category:    r.PrimaryGenreName,
		Genres:      r.Genres,
		BundleID:    r.BundleID,
		Rating:      r.AverageUserRating,
		RatingCount: r.UserRatingCount,
		ReleaseDate: parseDate(r.ReleaseDate),
		Price:       r.FormattedPrice,
		StoreURL:    r.TrackViewURL,
		Description: r.Description,
	}
}

// parseDate accepts RFC 3339 timestamps and bare dates. Unparseable input
// yields the zero time.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t
	}
	return time.Time{}
}

var appURLPattern = regexp.MustCompile(`/app/([^/]+)/id\d+`)

// AppNameFromURL extracts the slug from a store listing URL and turns it
// into words, e.g. .../app/word-puzzle-pro/id123 gives "word puzzle pro".
func AppNameFromURL(storeURL string) (string, bool) {
	m := appURLPattern.FindStringSubmatch(storeURL)
	if m == nil {
		return "", false
	}
	slug, err := url.PathUnescape(m[1])
	if err != nil {
		slug = m[1]
	}
	return strings.ReplaceAll(slug, "-", " "), true
}
