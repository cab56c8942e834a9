package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gosuda/qbsync/internal/domain"
)

var (
	// ErrNotFound is returned when a ticket does not name a live session.
	ErrNotFound = errors.New("session: ticket not found") //nolint:gochecknoglobals // sentinel error
	// ErrInvalidCredentials is returned when the Authenticator rejects a login.
	ErrInvalidCredentials = errors.New("session: invalid credentials") //nolint:gochecknoglobals // sentinel error
)

// Authenticator verifies the Web Connector's credentials.
// *auth.StaticAuthenticator satisfies this interface.
type Authenticator interface {
	Verify(ctx context.Context, username, password string) error
}

// JobSource supplies the records to sync for a new session.
// *manifest.FileSource and manifest.Static satisfy this interface.
type JobSource interface {
	Load(ctx context.Context) (domain.Batches, error)
}

// Registry maps tickets to live sessions. It is the only state shared across
// requests; each Session guards its own queue.
type Registry struct {
	auth   Authenticator
	source JobSource
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry creates an empty registry.
func NewRegistry(auth Authenticator, source JobSource) *Registry {
	return &Registry{
		auth:     auth,
		source:   source,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

// WithClock replaces the registry clock. Intended for tests.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Authenticate verifies the credentials and, on success, opens a session
// whose queue holds the source's batches in dependency order.
func (r *Registry) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	if err := r.auth.Verify(ctx, username, password); err != nil {
		return nil, fmt.Errorf("session.Registry.Authenticate: %w: %w", ErrInvalidCredentials, err)
	}

	batches, err := r.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("session.Registry.Authenticate: load jobs: %w", err)
	}
	jobs := batches.Jobs()

	r.mu.Lock()
	defer r.mu.Unlock()

	ticket := uuid.NewString()
	for r.sessions[ticket] != nil {
		ticket = uuid.NewString()
	}

	s := New(ticket, jobs, r.now())
	r.sessions[ticket] = s

	return s, nil
}

// Lookup returns the session for ticket.
func (r *Registry) Lookup(ticket string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[ticket]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("session.Registry.Lookup: %w", ErrNotFound)
	}
	return s, nil
}

// Close discards the session for ticket. Closing an unknown or already
// closed ticket is a no-op. It reports whether a session was removed.
func (r *Registry) Close(ticket string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.sessions[ticket]
	delete(r.sessions, ticket)
	return ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// List returns snapshots of all live sessions, oldest first.
func (r *Registry) List() []Snapshot {
	r.mu.RLock()
	sessions := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.RUnlock()

	snaps := make([]Snapshot, 0, len(sessions))
	for _, s := range sessions {
		snaps = append(snaps, s.Snapshot())
	}
	sort.Slice(snaps, func(i, j int) bool {
		if snaps[i].CreatedAt.Equal(snaps[j].CreatedAt) {
			return snaps[i].Ticket < snaps[j].Ticket
		}
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})

	return snaps
}
