package v1

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/qbsync/internal/domain"
)

type ListJobLogsInput struct {
	Ticket string `path:"ticket" minLength:"1" maxLength:"64" doc:"Session ticket"`
	Limit  int    `query:"limit" minimum:"1" maximum:"500" default:"100" doc:"Max results"`
	Offset int    `query:"offset" minimum:"0" default:"0" doc:"Offset for pagination"`
}

type ListJobLogsOutput struct {
	Body struct {
		Entries []*domain.JobLogEntry `json:"entries"`
		Total   int64                 `json:"total"`
	}
}

// RegisterJobLogRoutes serves the persisted job log. Entries outlive their
// session, so closed tickets remain queryable. A nil reader answers 501.
func RegisterJobLogRoutes(api huma.API, logs JobLogReader) {
	huma.Register(api, huma.Operation{
		OperationID: "list-job-logs",
		Method:      http.MethodGet,
		Path:        "/sessions/{ticket}/logs",
		Summary:     "List job log entries for a session, oldest first",
		Tags:        []string{"Job logs"},
	}, func(ctx context.Context, input *ListJobLogsInput) (*ListJobLogsOutput, error) {
		if logs == nil {
			return nil, huma.Error501NotImplemented("job log storage is not configured")
		}

		entries, err := logs.ListByTicket(ctx, input.Ticket, input.Limit, input.Offset)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to list job logs", err)
		}

		total, err := logs.CountByTicket(ctx, input.Ticket)
		if err != nil {
			return nil, huma.Error500InternalServerError("failed to count job logs", err)
		}

		out := &ListJobLogsOutput{}
		out.Body.Entries = entries
		if out.Body.Entries == nil {
			out.Body.Entries = []*domain.JobLogEntry{}
		}
		out.Body.Total = total
		return out, nil
	})
}
