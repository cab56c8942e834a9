package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	v1 "github.com/gosuda/qbsync/internal/api/v1"
	"github.com/gosuda/qbsync/internal/api/webconnector"
	"github.com/gosuda/qbsync/internal/api/ws"
	"github.com/gosuda/qbsync/internal/config"
	"github.com/gosuda/qbsync/internal/server/middleware"
)

// Deps are the collaborators the routes are wired to. JobLogs and Events may
// be nil when their backing store is not configured.
type Deps struct {
	Dispatcher webconnector.Dispatcher
	Sessions   Sessions
	JobLogs    v1.JobLogReader
	Events     ws.Subscriber
}

// Sessions is the registry view the status API and the live stream need.
// *session.Registry satisfies this interface.
type Sessions interface {
	v1.SessionRegistry
	ws.SessionLookup
}

// Server is the HTTP server that wires all application routes and middleware.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	cfg        *config.Config
}

// New creates a Server with all routes wired. ctx bounds background work
// started by middleware, such as rate limiter cleanup.
func New(ctx context.Context, cfg *config.Config, deps Deps) *Server {
	router := chi.NewRouter()

	// Global middleware stack.
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(chimw.Logger)
	router.Use(chimw.Recoverer)

	s := &Server{
		router: router,
		cfg:    cfg,
		httpServer: &http.Server{
			Addr:         cfg.Server.Addr,
			Handler:      router,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
	}

	// Web Connector SOAP endpoint. Both paths are common in .qwc AppURLs.
	router.Group(func(r chi.Router) {
		r.Use(middleware.RateLimitByIP(ctx, cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst))
		registerConnectorRoutes(r, webconnector.NewHandler(deps.Dispatcher, cfg.Connector.MaxBodyBytes))
	})

	// Status API and live stream, only with a signing secret.
	if cfg.JWT.Enabled() {
		corsHandler := cors.New(cors.Options{
			AllowedOrigins:   cfg.Server.CORSOrigins,
			AllowedMethods:   []string{"GET", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			ExposedHeaders:   []string{"X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}).Handler

		router.Route("/api/v1", func(r chi.Router) {
			r.Use(corsHandler)
			r.Use(middleware.Auth(cfg.JWT.Secret))

			apiConfig := huma.DefaultConfig("qbsync status API", "1.0.0")
			apiConfig.Servers = []*huma.Server{
				{URL: "/api/v1"},
			}
			api := humachi.New(r, apiConfig)
			registerAPIRoutes(api, deps.Sessions, deps.JobLogs)
		})

		router.Route("/ws", func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT.Secret))
			registerWSRoutes(r, ws.NewHub(deps.Events, deps.Sessions))
		})
	} else {
		log.Info().Msg("server.New: QBSYNC_JWT_SECRET not set, status API disabled")
	}

	// Health check (unauthenticated).
	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start begins listening for HTTP requests.
func (s *Server) Start(_ context.Context) error {
	log.Info().Str("addr", s.httpServer.Addr).Msg("server.Start: listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server.Start: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server.Shutdown: %w", err)
	}
	return nil
}
