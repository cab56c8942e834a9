package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// JobLogEntry records one job outcome or connection error. Entries are
// append-only and used for audit and replay diagnostics.
type JobLogEntry struct {
	ID        uuid.UUID     `json:"id"`
	Ticket    string        `json:"ticket"`
	Kind      string        `json:"kind"` // job kind, or CategoryConnection
	JobID     string        `json:"job_id,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
	Status    string        `json:"status"`
	Payload   string        `json:"payload,omitempty"` // rendered request document
	Message   string        `json:"message,omitempty"`
	Duration  time.Duration `json:"duration_ns"`
	CreatedAt time.Time     `json:"created_at"`
}

// JobLogRepository stores and retrieves job log entries per session ticket.
type JobLogRepository interface {
	Append(ctx context.Context, entry *JobLogEntry) error
	ListByTicket(ctx context.Context, ticket string, limit, offset int) ([]*JobLogEntry, error)
	CountByTicket(ctx context.Context, ticket string) (int64, error)
}
