// Package joblog delivers job log entries to one or more destinations.
package joblog

import (
	"context"
	"errors"
	"fmt"

	"github.com/gosuda/qbsync/internal/domain"
)

// Sink receives job log entries. Implementations must be safe for
// concurrent use.
type Sink interface {
	Record(ctx context.Context, entry domain.JobLogEntry) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, entry domain.JobLogEntry) error

// Record calls f.
func (f SinkFunc) Record(ctx context.Context, entry domain.JobLogEntry) error {
	return f(ctx, entry)
}

// Multi fans an entry out to every sink. A failing sink does not stop the
// others; all errors are joined.
type Multi []Sink

// Record delivers entry to every sink in order.
func (m Multi) Record(ctx context.Context, entry domain.JobLogEntry) error {
	var errs []error
	for _, s := range m {
		if err := s.Record(ctx, entry); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("joblog.Multi.Record: %w", errors.Join(errs...))
	}
	return nil
}

// Alerting reports whether an entry is worth paging someone about: a job
// that was given up on, or a connection error from the connector.
func Alerting(entry domain.JobLogEntry) bool {
	switch {
	case entry.Kind == domain.CategoryConnection:
		return true
	case entry.Status == domain.StatusFailedAborted, entry.Status == domain.StatusSkipped:
		return true
	default:
		return false
	}
}
