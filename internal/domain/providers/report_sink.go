package providers

import (
	"context"

	"github.com/zatekoja/asoradar/internal/domain/entities"
)

// ReportSink persists analyzed country reports
type ReportSink interface {
	Write(ctx context.Context, report *entities.CountryReport) error
	Close() error
}
