package v1_test

import (
	"context"
	"time"

	"github.com/gosuda/qbsync/internal/auth"
	"github.com/gosuda/qbsync/internal/domain"
	"github.com/gosuda/qbsync/internal/server/middleware"
	"github.com/gosuda/qbsync/internal/session"
)

// ---------------------------------------------------------------------------
// Context helpers: inject role into context for DoCtx
// ---------------------------------------------------------------------------

func roleCtx(role string) context.Context {
	ctx := context.WithValue(context.Background(), middleware.ContextKeySubject, "ops")
	return context.WithValue(ctx, middleware.ContextKeyUserRole, role)
}

func adminCtx() context.Context  { return roleCtx(auth.RoleAdmin) }
func viewerCtx() context.Context { return roleCtx(auth.RoleViewer) }

func fixedTime() time.Time {
	return time.Date(2024, 10, 25, 9, 0, 0, 0, time.UTC)
}

func sampleSession(ticket string) *session.Session {
	jobs := domain.Batches{
		Customers: []domain.Customer{{ID: "C1001", Name: "John Doe"}, {ID: "C1002", Name: "Jane Smith"}},
	}.Jobs()
	return session.New(ticket, jobs, fixedTime())
}

// ---------------------------------------------------------------------------
// Mock SessionRegistry
// ---------------------------------------------------------------------------

type mockRegistry struct {
	listFunc   func() []session.Snapshot
	lookupFunc func(ticket string) (*session.Session, error)
	closeFunc  func(ticket string) bool
}

func (m *mockRegistry) List() []session.Snapshot { return m.listFunc() }

func (m *mockRegistry) Lookup(ticket string) (*session.Session, error) {
	return m.lookupFunc(ticket)
}

func (m *mockRegistry) Close(ticket string) bool { return m.closeFunc(ticket) }

// ---------------------------------------------------------------------------
// Mock JobLogReader
// ---------------------------------------------------------------------------

type mockJobLogs struct {
	listFunc  func(ctx context.Context, ticket string, limit, offset int) ([]*domain.JobLogEntry, error)
	countFunc func(ctx context.Context, ticket string) (int64, error)
}

func (m *mockJobLogs) ListByTicket(ctx context.Context, ticket string, limit, offset int) ([]*domain.JobLogEntry, error) {
	return m.listFunc(ctx, ticket, limit, offset)
}

func (m *mockJobLogs) CountByTicket(ctx context.Context, ticket string) (int64, error) {
	return m.countFunc(ctx, ticket)
}
