package providers

import (
	"context"
	"strings"

	"github.com/zatekoja/asoradar/internal/domain/entities"
)

// EventPublisher defines the interface for publishing run events
type EventPublisher interface {
	// Publish publishes an event to all subscribers of channel
	Publish(ctx context.Context, channel string, event *entities.RunEvent) error
}

// EventChannel constants for run events
const (
	// EventChannelRuns receives every run event
	EventChannelRuns = "asoradar:runs"

	// EventChannelCountryPrefix is the prefix for per-storefront channels
	EventChannelCountryPrefix = "asoradar:runs:"
)

// GetCountryChannel returns the channel name for a storefront
func GetCountryChannel(country string) string {
	return EventChannelCountryPrefix + strings.ToLower(country)
}
