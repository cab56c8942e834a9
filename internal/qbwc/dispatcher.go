// Package qbwc implements the server half of the QuickBooks Web Connector
// polling protocol on top of the session registry.
package qbwc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/qbsync/internal/domain"
	"github.com/gosuda/qbsync/internal/session"
)

// Wire sentinels. They exist only at the Handle edge.
const (
	InvalidCredentials = "nvu"
	ServerBusy         = "busy"
	InvalidTicket      = "INVALID_TICKET"
	InvalidProgress    = -1
	Ack                = "OK"
)

// DefaultServerVersion is returned by serverVersion unless configured.
const DefaultServerVersion = "1.0"

// DefaultMaxRetries is the number of retries a failed job gets before it is
// abandoned.
const DefaultMaxRetries = 2

var (
	// ErrInvalidTicket is returned when a call names no live session.
	ErrInvalidTicket = errors.New("qbwc: invalid ticket") //nolint:gochecknoglobals // sentinel error
	// ErrUnknownMethod is returned by Handle for a method outside the protocol.
	ErrUnknownMethod = errors.New("qbwc: unknown method") //nolint:gochecknoglobals // sentinel error
)

// JobRenderer turns jobs into request documents and responses into verdicts.
// *qbxml.Renderer satisfies this interface.
type JobRenderer interface {
	Render(job domain.Job, requestID string) (string, error)
	Interpret(doc string) domain.Verdict
}

// JobLogger receives one entry per job outcome and per connection error.
// Every joblog.Sink satisfies this interface.
type JobLogger interface {
	Record(ctx context.Context, entry domain.JobLogEntry) error
}

// Config holds the dispatcher's protocol settings.
type Config struct {
	ServerVersion string
	MaxRetries    int
}

// AuthResult is a successful login.
type AuthResult struct {
	Ticket string
	Jobs   int
}

// Dispatcher maps the seven Web Connector calls onto sessions. It holds no
// per-session state of its own.
type Dispatcher struct {
	registry *session.Registry
	renderer JobRenderer
	logger   JobLogger
	cfg      Config
	now      func() time.Time
}

// NewDispatcher creates a dispatcher. A nil logger discards job log entries.
func NewDispatcher(registry *session.Registry, renderer JobRenderer, logger JobLogger, cfg Config) *Dispatcher {
	if cfg.ServerVersion == "" {
		cfg.ServerVersion = DefaultServerVersion
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = discard{}
	}
	return &Dispatcher{
		registry: registry,
		renderer: renderer,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// WithClock replaces the dispatcher clock. Intended for tests.
func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// ServerVersion returns the configured server version token.
func (d *Dispatcher) ServerVersion() string {
	log.Debug().Msg("qbwc.Dispatcher.ServerVersion: called")
	return d.cfg.ServerVersion
}

// ClientVersion records the connector's version. Every version is accepted,
// so the result is always empty.
func (d *Dispatcher) ClientVersion(version string) string {
	log.Info().Str("client_version", version).Msg("qbwc.Dispatcher.ClientVersion: called")
	return ""
}

// Authenticate checks the credentials and opens a session.
func (d *Dispatcher) Authenticate(ctx context.Context, username, password string) (AuthResult, error) {
	s, err := d.registry.Authenticate(ctx, username, password)
	if err != nil {
		log.Warn().Err(err).Str("user", username).Msg("qbwc.Dispatcher.Authenticate: rejected")
		return AuthResult{}, fmt.Errorf("qbwc.Dispatcher.Authenticate: %w", err)
	}

	res := AuthResult{Ticket: s.Ticket(), Jobs: s.Snapshot().TotalJobs}
	log.Info().
		Str("user", username).
		Str("ticket", res.Ticket).
		Int("jobs", res.Jobs).
		Msg("qbwc.Dispatcher.Authenticate: session opened")
	return res, nil
}

// SendRequestXML hands out the next request document of the session. An
// empty document means the session has no more work.
func (d *Dispatcher) SendRequestXML(ctx context.Context, ticket string) (string, error) {
	s, err := d.registry.Lookup(ticket)
	if err != nil {
		log.Warn().Str("ticket", ticket).Msg("qbwc.Dispatcher.SendRequestXML: invalid ticket")
		return "", fmt.Errorf("qbwc.Dispatcher.SendRequestXML: %w", ErrInvalidTicket)
	}

	now := d.now()
	dispatch := s.Next(now, d.renderer.Render)

	if dispatch.Displaced != nil {
		log.Warn().
			Str("ticket", ticket).
			Stringer("job", dispatch.Displaced).
			Msg("qbwc.Dispatcher.SendRequestXML: unacknowledged job offered again")
	}
	for _, sk := range dispatch.Skipped {
		log.Error().Err(sk.Err).
			Str("ticket", ticket).
			Stringer("job", sk.Job).
			Msg("qbwc.Dispatcher.SendRequestXML: job could not be rendered, abandoned")
		d.record(ctx, domain.JobLogEntry{
			Ticket:  ticket,
			Kind:    string(sk.Job.Kind),
			JobID:   sk.Job.ID,
			Status:  domain.StatusSkipped,
			Message: sk.Err.Error(),
		}, now)
	}

	if dispatch.Drained {
		log.Info().
			Str("ticket", ticket).
			Int("progress", dispatch.Progress).
			Msg("qbwc.Dispatcher.SendRequestXML: no more jobs")
		return "", nil
	}

	f := dispatch.InFlight
	log.Info().
		Str("ticket", ticket).
		Str("kind", string(f.Job.Kind)).
		Str("job_id", f.Job.ID).
		Str("request_id", f.RequestID).
		Int("retry", f.Job.RetryCount).
		Msg("qbwc.Dispatcher.SendRequestXML: sending job")
	return f.Document, nil
}

// ReceiveResponseXML applies QuickBooks' response to the in-flight job and
// returns the session's progress percentage. A response with nothing in
// flight is ignored.
func (d *Dispatcher) ReceiveResponseXML(ctx context.Context, ticket, response string) (int, error) {
	s, err := d.registry.Lookup(ticket)
	if err != nil {
		log.Warn().Str("ticket", ticket).Msg("qbwc.Dispatcher.ReceiveResponseXML: invalid ticket")
		return 0, fmt.Errorf("qbwc.Dispatcher.ReceiveResponseXML: %w", ErrInvalidTicket)
	}

	verdict := d.renderer.Interpret(response)

	now := d.now()
	c, ok := s.Complete(now, verdict, d.cfg.MaxRetries)
	if !ok {
		log.Warn().
			Str("ticket", ticket).
			Int("progress", c.Progress).
			Msg("qbwc.Dispatcher.ReceiveResponseXML: no job in flight, response ignored")
		return c.Progress, nil
	}

	entry := domain.JobLogEntry{
		Ticket:    ticket,
		Kind:      string(c.InFlight.Job.Kind),
		JobID:     c.InFlight.Job.ID,
		RequestID: c.InFlight.RequestID,
		Status:    c.Status,
		Payload:   c.InFlight.Document,
		Duration:  c.Duration,
	}
	if !verdict.Succeeded() {
		entry.Message = verdict.Message
	}
	d.record(ctx, entry, now)

	var ev *zerolog.Event
	if verdict.Succeeded() {
		ev = log.Info()
	} else {
		ev = log.Warn().Str("status_code", verdict.StatusCode).Str("reason", verdict.Message)
	}
	ev.Str("ticket", ticket).
		Str("request_id", c.InFlight.RequestID).
		Str("status", c.Status).
		Dur("duration", c.Duration).
		Int("progress", c.Progress).
		Msg("qbwc.Dispatcher.ReceiveResponseXML: job finished")

	return c.Progress, nil
}

// ConnectionError records a failure the connector hit while talking to
// QuickBooks. The in-flight job, if any, is put back at the front of the queue
// with its retry count unchanged. It always acknowledges.
func (d *Dispatcher) ConnectionError(ctx context.Context, ticket, message, hresult string) string {
	now := d.now()
	entry := domain.JobLogEntry{
		Ticket:  ticket,
		Kind:    domain.CategoryConnection,
		Status:  domain.StatusReported,
		Message: connectionMessage(hresult, message),
	}

	if s, err := d.registry.Lookup(ticket); err == nil {
		if f, rescued := s.Rescue(now); rescued {
			entry.JobID = f.Job.ID
			entry.RequestID = f.RequestID
			entry.Payload = f.Document
			entry.Duration = now.Sub(f.StartedAt)
			log.Info().
				Str("ticket", ticket).
				Stringer("job", f.Job).
				Msg("qbwc.Dispatcher.ConnectionError: in-flight job requeued")
		}
	}

	d.record(ctx, entry, now)
	log.Error().
		Str("ticket", ticket).
		Str("hresult", hresult).
		Str("message", message).
		Msg("qbwc.Dispatcher.ConnectionError: reported by connector")

	return Ack
}

// CloseConnection ends the session. Unknown tickets are acknowledged too.
func (d *Dispatcher) CloseConnection(ticket string) string {
	ev := log.Info().Str("ticket", ticket)
	if s, err := d.registry.Lookup(ticket); err == nil {
		snap := s.Snapshot()
		ev = ev.Int("completed", snap.CompletedJobs).Int("total", snap.TotalJobs)
	}

	closed := d.registry.Close(ticket)
	ev.Bool("closed", closed).Msg("qbwc.Dispatcher.CloseConnection: session closed")

	return Ack
}

func (d *Dispatcher) record(ctx context.Context, entry domain.JobLogEntry, now time.Time) {
	entry.ID = uuid.New()
	entry.CreatedAt = now
	if err := d.logger.Record(ctx, entry); err != nil {
		log.Warn().Err(err).
			Str("ticket", entry.Ticket).
			Str("status", entry.Status).
			Msg("qbwc.Dispatcher: job log write failed")
	}
}

func connectionMessage(hresult, message string) string {
	switch {
	case hresult == "":
		return message
	case message == "":
		return hresult
	default:
		return hresult + ": " + message
	}
}

type discard struct{}

func (discard) Record(context.Context, domain.JobLogEntry) error { return nil }
