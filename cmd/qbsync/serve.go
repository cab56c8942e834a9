package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	slacklib "github.com/slack-go/slack"
	"github.com/spf13/cobra"

	"github.com/gosuda/qbsync/internal/api/ws"
	"github.com/gosuda/qbsync/internal/auth"
	"github.com/gosuda/qbsync/internal/config"
	"github.com/gosuda/qbsync/internal/joblog"
	"github.com/gosuda/qbsync/internal/manifest"
	"github.com/gosuda/qbsync/internal/qbwc"
	"github.com/gosuda/qbsync/internal/qbxml"
	"github.com/gosuda/qbsync/internal/server"
	"github.com/gosuda/qbsync/internal/session"
	"github.com/gosuda/qbsync/internal/store/postgres"
	redisstore "github.com/gosuda/qbsync/internal/store/redis"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the Web Connector endpoint (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			setupLogging(cfg.Log)
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config) error {
	authenticator, err := newAuthenticator(cfg.Connector)
	if err != nil {
		return err
	}

	source, err := newJobSource(ctx, cfg.Connector.ManifestPath)
	if err != nil {
		return err
	}

	var (
		sinks   joblog.Multi
		jobLogs *postgres.JobLogRepo
		events  ws.Subscriber
	)

	// Job log file.
	if cfg.JobLog.Path != "" || cfg.JobLog.Stdout {
		fileSink, closeFile, fileErr := newFileSink(cfg.JobLog)
		if fileErr != nil {
			return fileErr
		}
		defer closeFile()
		sinks = append(sinks, fileSink)
	}

	// PostgreSQL job log.
	if cfg.Database.Enabled() {
		if cfg.Database.MaxConns > math.MaxInt32 {
			return fmt.Errorf("database max_conns %d out of int32 range", cfg.Database.MaxConns)
		}
		store, dbErr := postgres.New(ctx, cfg.Database.DSN(), int32(cfg.Database.MaxConns)) //nolint:gosec // bounds checked above
		if dbErr != nil {
			return dbErr
		}
		defer store.Close()
		if dbErr = store.Migrate(ctx); dbErr != nil {
			return dbErr
		}
		sinks = append(sinks, store.JobLogs())
		jobLogs = store.JobLogs()
	}

	// Redis live events.
	if cfg.Redis.Enabled() {
		pubsub, redisErr := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if redisErr != nil {
			return redisErr
		}
		defer pubsub.Close()
		sinks = append(sinks, redisstore.NewEventPublisher(pubsub))
		events = pubsub
	}

	// Slack alerts.
	if cfg.Slack.Enabled() {
		sinks = append(sinks, joblog.NewSlackSink(slacklib.New(cfg.Slack.BotToken), cfg.Slack.Channel))
		log.Info().Str("channel", cfg.Slack.Channel).Msg("serve: Slack alerts enabled")
	}

	var logger qbwc.JobLogger
	if len(sinks) > 0 {
		async := joblog.NewAsync(sinks, cfg.JobLog.Buffer)
		defer async.Close()
		logger = async
	}

	// Graceful shutdown on SIGINT / SIGTERM.
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	registry := session.NewRegistry(authenticator, source)
	if cfg.Connector.SessionIdleTTL > 0 {
		go registry.RunReaper(ctx, cfg.Connector.ReapInterval, cfg.Connector.SessionIdleTTL)
	}

	dispatcher := qbwc.NewDispatcher(registry, qbxml.NewRenderer(), logger, qbwc.Config{
		ServerVersion: cfg.Connector.ServerVersion,
		MaxRetries:    cfg.Connector.MaxRetries,
	})

	deps := server.Deps{
		Dispatcher: dispatcher,
		Sessions:   registry,
		Events:     events,
	}
	if jobLogs != nil {
		deps.JobLogs = jobLogs
	}
	srv := server.New(ctx, cfg, deps)

	// Start server in background goroutine.
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(ctx)
	}()

	// Block until shutdown signal or listener failure.
	select {
	case <-ctx.Done():
	case startErr := <-errCh:
		if startErr != nil {
			return startErr
		}
	}
	log.Info().Msg("serve: shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := srv.Shutdown(shutdownCtx); shutdownErr != nil {
		return shutdownErr
	}

	log.Info().Int("open_sessions", registry.Len()).Msg("serve: stopped")
	return nil
}

func newAuthenticator(cfg config.ConnectorConfig) (*auth.StaticAuthenticator, error) {
	if cfg.PasswordHash != "" {
		return auth.NewStaticAuthenticatorFromHash(cfg.Username, cfg.PasswordHash)
	}
	return auth.NewStaticAuthenticator(cfg.Username, cfg.Password)
}

// newJobSource validates the manifest once at startup so a broken file fails
// fast instead of at the first connector run.
func newJobSource(ctx context.Context, path string) (session.JobSource, error) {
	if path == "" {
		log.Warn().Msg("serve: QBSYNC_MANIFEST_PATH not set, serving the built-in sample data")
		return manifest.NewStatic(manifest.Sample()), nil
	}

	src := manifest.NewFileSource(path)
	b, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", path).Int("jobs", b.Len()).Msg("serve: manifest loaded")
	return src, nil
}

func newFileSink(cfg config.JobLogConfig) (joblog.Sink, func(), error) {
	var tee io.Writer
	if cfg.Stdout {
		tee = os.Stdout
	}
	if cfg.Path == "" {
		return joblog.NewWriterSink(tee), func() {}, nil
	}

	sink, err := joblog.NewFileSink(cfg.Path, tee)
	if err != nil {
		return nil, nil, err
	}
	return sink, func() {
		if closeErr := sink.Close(); closeErr != nil {
			log.Warn().Err(closeErr).Msg("serve: closing job log file")
		}
	}, nil
}
