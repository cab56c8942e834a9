package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/qbsync/internal/auth"
	"github.com/gosuda/qbsync/internal/server/middleware"
	"github.com/gosuda/qbsync/internal/session"
)

type ListSessionsInput struct{}

type ListSessionsOutput struct {
	Body []session.Snapshot
}

type TicketInput struct {
	Ticket string `path:"ticket" minLength:"1" maxLength:"64" doc:"Session ticket"`
}

type GetSessionOutput struct {
	Body session.Snapshot
}

type CloseSessionOutput struct{}

func RegisterSessionRoutes(api huma.API, registry SessionRegistry) {
	huma.Register(api, huma.Operation{
		OperationID: "list-sessions",
		Method:      http.MethodGet,
		Path:        "/sessions",
		Summary:     "List live connector sessions, oldest first",
		Tags:        []string{"Sessions"},
	}, func(_ context.Context, _ *ListSessionsInput) (*ListSessionsOutput, error) {
		sessions := registry.List()
		if sessions == nil {
			sessions = []session.Snapshot{}
		}
		return &ListSessionsOutput{Body: sessions}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-session",
		Method:      http.MethodGet,
		Path:        "/sessions/{ticket}",
		Summary:     "Get a session's queue counters and in-flight job",
		Tags:        []string{"Sessions"},
	}, func(_ context.Context, input *TicketInput) (*GetSessionOutput, error) {
		sess, err := registry.Lookup(input.Ticket)
		if err != nil {
			if errors.Is(err, session.ErrNotFound) {
				return nil, huma.Error404NotFound("session not found")
			}
			return nil, huma.Error500InternalServerError("failed to look up session", err)
		}

		return &GetSessionOutput{Body: sess.Snapshot()}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "close-session",
		Method:        http.MethodDelete,
		Path:          "/sessions/{ticket}",
		Summary:       "Discard a session and its remaining queue",
		Tags:          []string{"Sessions"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *TicketInput) (*CloseSessionOutput, error) {
		role, ok := middleware.RoleFromContext(ctx)
		if !ok || role != auth.RoleAdmin {
			return nil, huma.Error403Forbidden("admin role required")
		}

		if !registry.Close(input.Ticket) {
			return nil, huma.Error404NotFound("session not found")
		}

		subject, _ := middleware.SubjectFromContext(ctx)
		log.Info().Str("ticket", input.Ticket).Str("subject", subject).Msg("v1.CloseSession: session discarded")

		return &CloseSessionOutput{}, nil
	})
}
