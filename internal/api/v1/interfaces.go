package v1

import (
	"context"

	"github.com/gosuda/qbsync/internal/domain"
	"github.com/gosuda/qbsync/internal/session"
)

// SessionRegistry abstracts the live session table for handler testing.
// *session.Registry satisfies this interface.
type SessionRegistry interface {
	List() []session.Snapshot
	Lookup(ticket string) (*session.Session, error)
	Close(ticket string) bool
}

// JobLogReader abstracts job log queries for handler testing.
// *postgres.JobLogRepo satisfies this interface.
type JobLogReader interface {
	ListByTicket(ctx context.Context, ticket string, limit, offset int) ([]*domain.JobLogEntry, error)
	CountByTicket(ctx context.Context, ticket string) (int64, error)
}
