package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/qbsync/internal/domain"
)

type JobLogRepo struct {
	pool *pgxpool.Pool
}

func NewJobLogRepo(pool *pgxpool.Pool) *JobLogRepo {
	return &JobLogRepo{pool: pool}
}

func (r *JobLogRepo) Append(ctx context.Context, entry *domain.JobLogEntry) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO job_log_entries
		   (id, ticket, kind, job_id, request_id, status, payload, message, duration_ns, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		entry.ID, entry.Ticket, entry.Kind, entry.JobID, entry.RequestID, entry.Status,
		entry.Payload, entry.Message, int64(entry.Duration), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("jobLogRepo.Append: %w", err)
	}

	return nil
}

// Record makes the repository usable as a job log sink.
func (r *JobLogRepo) Record(ctx context.Context, entry domain.JobLogEntry) error {
	return r.Append(ctx, &entry)
}

func (r *JobLogRepo) ListByTicket(ctx context.Context, ticket string, limit, offset int) ([]*domain.JobLogEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, ticket, kind, job_id, request_id, status, payload, message, duration_ns, created_at
		 FROM job_log_entries WHERE ticket = $1
		 ORDER BY created_at ASC
		 LIMIT $2 OFFSET $3`,
		ticket, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("jobLogRepo.ListByTicket: %w", err)
	}
	defer rows.Close()

	var entries []*domain.JobLogEntry
	for rows.Next() {
		var (
			e          domain.JobLogEntry
			durationNS int64
		)

		err = rows.Scan(&e.ID, &e.Ticket, &e.Kind, &e.JobID, &e.RequestID, &e.Status,
			&e.Payload, &e.Message, &durationNS, &e.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("jobLogRepo.ListByTicket: scan: %w", err)
		}
		e.Duration = time.Duration(durationNS)
		entries = append(entries, &e)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("jobLogRepo.ListByTicket: rows: %w", err)
	}

	return entries, nil
}

func (r *JobLogRepo) CountByTicket(ctx context.Context, ticket string) (int64, error) {
	var count int64

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM job_log_entries WHERE ticket = $1`,
		ticket,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("jobLogRepo.CountByTicket: %w", err)
	}

	return count, nil
}
