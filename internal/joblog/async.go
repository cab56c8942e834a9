package joblog

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/qbsync/internal/domain"
)

var (
	// ErrDropped is returned when the async buffer is full.
	ErrDropped = errors.New("joblog: buffer full, entry dropped") //nolint:gochecknoglobals // sentinel error
	// ErrClosed is returned when recording to a closed Async sink.
	ErrClosed = errors.New("joblog: sink closed") //nolint:gochecknoglobals // sentinel error
)

type item struct {
	ctx   context.Context //nolint:containedctx // carried across the queue to the worker
	entry domain.JobLogEntry
}

// Async hands entries to a background worker so Record never blocks on the
// destination. Entries that do not fit in the buffer are dropped.
type Async struct {
	next Sink

	mu     sync.RWMutex
	closed bool
	queue  chan item
	done   chan struct{}
}

// NewAsync starts a worker that forwards entries to next.
func NewAsync(next Sink, buffer int) *Async {
	if buffer < 1 {
		buffer = 1
	}
	a := &Async{
		next:  next,
		queue: make(chan item, buffer),
		done:  make(chan struct{}),
	}
	go a.run()
	return a
}

// Record enqueues entry without blocking.
func (a *Async) Record(ctx context.Context, entry domain.JobLogEntry) error {
	a.mu.RLock()
	defer a.mu.RUnlock()

	if a.closed {
		return ErrClosed
	}

	select {
	case a.queue <- item{ctx: context.WithoutCancel(ctx), entry: entry}:
		return nil
	default:
		return ErrDropped
	}
}

// Close stops accepting entries and waits until the queued ones are written.
func (a *Async) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()

	<-a.done
}

func (a *Async) run() {
	defer close(a.done)
	for it := range a.queue {
		if err := a.next.Record(it.ctx, it.entry); err != nil {
			log.Warn().Err(err).
				Str("ticket", it.entry.Ticket).
				Str("status", it.entry.Status).
				Msg("joblog.Async: write failed")
		}
	}
}
