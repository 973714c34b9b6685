package report

import (
	"context"
	"errors"

	"github.com/zatekoja/asoradar/internal/domain/entities"
	"github.com/zatekoja/asoradar/internal/domain/providers"
)

// MultiSink fans a report out to every configured sink. A failing sink does
// not stop the others; their errors are joined.
type MultiSink struct {
	sinks []providers.ReportSink
}

// NewMultiSink creates a fan-out sink, skipping nil entries
func NewMultiSink(sinks ...providers.ReportSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len returns the number of wrapped sinks
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Write delivers report to every sink
func (m *MultiSink) Write(ctx context.Context, report *entities.CountryReport) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Write(ctx, report); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every sink
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
