package server

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	v1 "github.com/gosuda/qbsync/internal/api/v1"
	"github.com/gosuda/qbsync/internal/api/ws"
)

func registerConnectorRoutes(r chi.Router, handler http.Handler) {
	r.Method(http.MethodPost, "/qbwc", handler)
	r.Method(http.MethodPost, "/", handler)
}

func registerAPIRoutes(api huma.API, sessions v1.SessionRegistry, logs v1.JobLogReader) {
	v1.RegisterSessionRoutes(api, sessions)
	v1.RegisterJobLogRoutes(api, logs)
}

func registerWSRoutes(r chi.Router, hub *ws.Hub) {
	r.Get("/sessions", hub.ServeAll)
	r.Get("/sessions/{ticket}", hub.ServeSession)
}
