package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/domain/providers"
	redisclient "github.com/zatekoja/asoradar/internal/infrastructure/clients/redis"
	apperrors "github.com/zatekoja/asoradar/pkg/errors"
)

// topKeywordCount is how many keywords a report event carries
const topKeywordCount = 5

// RedisEventBus publishes run events over Redis Pub/Sub
type RedisEventBus struct {
	client *redisclient.Client
}

// NewRedisEventBus creates a new Redis-based event publisher
func NewRedisEventBus(client *redisclient.Client) providers.EventPublisher {
	return &RedisEventBus{client: client}
}

// Publish publishes an event to all subscribers
func (b *RedisEventBus) Publish(ctx context.Context, channel string, event *entities.RunEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := b.client.Client().Publish(ctx, channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}

	log.Debug().Str("channel", channel).Str("event_id", event.ID).Msg("Published event")
	return nil
}

// ReportEventSink announces each written country report on the run channels
type ReportEventSink struct {
	publisher providers.EventPublisher
}

// Ensure ReportEventSink implements ReportSink
var _ providers.ReportSink = (*ReportEventSink)(nil)

// NewReportEventSink creates a sink that publishes a summary per report
func NewReportEventSink(publisher providers.EventPublisher) *ReportEventSink {
	return &ReportEventSink{publisher: publisher}
}

// Write publishes to the global and the country channel
func (s *ReportEventSink) Write(ctx context.Context, report *entities.CountryReport) error {
	if report == nil {
		return apperrors.NewValidationError("report is nil")
	}
	event := BuildReportEvent(report)
	for _, channel := range []string{providers.EventChannelRuns, providers.GetCountryChannel(report.Country)} {
		if err := s.publisher.Publish(ctx, channel, event); err != nil {
			return err
		}
	}
	return nil
}

// Close is a no-op; the Redis client is owned by the caller
func (s *ReportEventSink) Close() error {
	return nil
}

// BuildReportEvent summarizes report: app counts and the best keywords by
// opportunity score
func BuildReportEvent(report *entities.CountryReport) *entities.RunEvent {
	event := &entities.RunEvent{
		ID:        uuid.NewString(),
		Type:      entities.RunEventReportCompleted,
		RunID:     report.RunID,
		Country:   report.Country,
		Chart:     report.Chart,
		Apps:      len(report.Apps),
		Timestamp: report.GeneratedAt,
	}

	best := make(map[string]int)
	var order []string
	for _, app := range report.Apps {
		if app.Status == entities.AppStatusNew {
			event.NewApps++
		}
		for _, kw := range app.Keywords {
			score, seen := best[kw.Keyword]
			if !seen {
				order = append(order, kw.Keyword)
			}
			if !seen || kw.Metrics.OpportunityScore > score {
				best[kw.Keyword] = kw.Metrics.OpportunityScore
			}
		}
	}

	top := make([]entities.Suggestion, 0, len(order))
	for _, k := range order {
		top = append(top, entities.Suggestion{Keyword: k, Score: best[k]})
	}
	sort.SliceStable(top, func(i, j int) bool { return top[i].Score > top[j].Score })
	if len(top) > topKeywordCount {
		top = top[:topKeywordCount]
	}
	event.TopKeywords = top
	return event
}
