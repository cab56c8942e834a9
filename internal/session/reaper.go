package session

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// Reap closes every session whose last protocol call is before cutoff and
// returns their tickets.
func (r *Registry) Reap(cutoff time.Time) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var reaped []string
	for ticket, s := range r.sessions {
		if s.IdleSince().Before(cutoff) {
			delete(r.sessions, ticket)
			reaped = append(reaped, ticket)
		}
	}
	return reaped
}

// RunReaper closes sessions idle for longer than ttl, checking every
// interval, until ctx is done. A Web Connector that crashes mid-run never
// calls closeConnection, so without this its session would live forever.
func (r *Registry) RunReaper(ctx context.Context, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, ticket := range r.Reap(r.now().Add(-ttl)) {
				log.Info().Str("ticket", ticket).Dur("idle_ttl", ttl).Msg("session.RunReaper: closed idle session")
			}
		case <-ctx.Done():
			return
		}
	}
}
