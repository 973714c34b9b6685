package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"

	"github.com/zatekoja/asoradar/pkg/config"
	"github.com/zatekoja/asoradar/pkg/retry"
)

// Client represents a Typesense client bound to the keyword collection
type Client struct {
	client     *typesense.Client
	collection string
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(ctx context.Context, cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	retryConfig := retry.DefaultConfig()
	retryConfig.MaxAttempts = 5
	err := retry.DoWithLog(ctx, retryConfig, "Typesense",
		func() error {
			_, err := client.Health(ctx, 2*time.Second)
			return err
		},
		func(attempt int, err error, nextDelay time.Duration) {
			log.Warn().Err(err).Int("attempt", attempt).Dur("retry_in", nextDelay).Msg("Typesense connection attempt failed")
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("Connected to Typesense")
	return &Client{client: client, collection: cfg.Collection}, nil
}

// Wrap adapts an existing typesense client without a health check
func Wrap(client *typesense.Client, collection string) *Client {
	return &Client{client: client, collection: collection}
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// Collection returns the keyword collection name
func (c *Client) Collection() string {
	return c.collection
}

// KeywordSchema is the collection layout for indexed keyword metrics
func KeywordSchema(name string) *api.CollectionSchema {
	return &api.CollectionSchema{
		Name: name,
		Fields: []api.Field{
			{Name: "keyword", Type: "string"},
			{Name: "country", Type: "string", Facet: pointer.True()},
			{Name: "chart", Type: "string", Facet: pointer.True()},
			{Name: "app_id", Type: "string"},
			{Name: "app_name", Type: "string"},
			{Name: "category", Type: "string", Facet: pointer.True(), Optional: pointer.True()},
			{Name: "rank", Type: "int32"},
			{Name: "volume", Type: "int32"},
			{Name: "competitive", Type: "int32"},
			{Name: "popularity", Type: "int32"},
			{Name: "quality", Type: "int32"},
			{Name: "top10_chance", Type: "int32"},
			{Name: "opportunity_score", Type: "int32"},
			{Name: "suggestions", Type: "string[]", Optional: pointer.True()},
			{Name: "generated_at", Type: "int64"},
		},
		DefaultSortingField: pointer.String("opportunity_score"),
	}
}

// InitSchema ensures the keyword collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == c.collection {
			return nil
		}
	}

	if _, err := c.client.Collections().Create(ctx, KeywordSchema(c.collection)); err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", c.collection).Msg("Created Typesense collection")
	return nil
}

// UpsertDocument indexes or replaces a document in the keyword collection
func (c *Client) UpsertDocument(ctx context.Context, document map[string]interface{}) error {
	_, err := c.client.Collection(c.collection).Documents().Upsert(ctx, document)
	return err
}
