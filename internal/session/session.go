package session

import (
	"sync"
	"time"

	"github.com/gosuda/qbsync/internal/domain"
)

// RenderFunc turns a job into the request document for the given request ID.
type RenderFunc func(job domain.Job, requestID string) (string, error)

// InFlight is the job most recently handed to the Web Connector and not yet
// acknowledged, together with the exact document that was sent.
type InFlight struct {
	Job       domain.Job
	RequestID string
	Document  string
	StartedAt time.Time
}

// Skipped is a job abandoned at dispatch time because it could not be rendered.
type Skipped struct {
	Job domain.Job
	Err error
}

// Dispatch is the result of Session.Next.
type Dispatch struct {
	InFlight InFlight
	// Drained is true when no job was available; InFlight is then empty.
	Drained bool
	// Displaced holds a previously in-flight job that was never acknowledged
	// and has been put back at the front of the queue.
	Displaced *domain.Job
	Skipped   []Skipped
	Progress  int
}

// Completion is the result of applying a response verdict to the in-flight job.
type Completion struct {
	InFlight  InFlight
	Verdict   domain.Verdict
	Status    string
	Requeued  bool
	Abandoned bool
	Duration  time.Duration
	Progress  int
}

// Session is one authenticated Web Connector run. All methods are safe for
// concurrent use; the mutex is per session so unrelated sessions never contend.
type Session struct {
	ticket    string
	createdAt time.Time

	mu           sync.Mutex
	queue        *Queue
	total        int
	completed    int
	inFlight     *InFlight
	lastActivity time.Time
}

// New creates a session whose queue holds jobs in the given order.
func New(ticket string, jobs []domain.Job, now time.Time) *Session {
	return &Session{
		ticket:       ticket,
		createdAt:    now,
		queue:        NewQueue(jobs),
		total:        len(jobs),
		lastActivity: now,
	}
}

// Ticket returns the opaque session identifier.
func (s *Session) Ticket() string { return s.ticket }

// Next hands out the front job. The job is rendered with the request ID of
// its current attempt and recorded as in flight.
//
// If a job is already in flight (the agent asked again without reporting a
// response) it is put back at the front first, so it is offered again rather
// than lost. Jobs that fail to render are abandoned and count as completed.
func (s *Session) Next(now time.Time, render RenderFunc) Dispatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = now

	var d Dispatch
	if s.inFlight != nil {
		displaced := s.inFlight.Job
		s.queue.RequeueFront(displaced)
		s.inFlight = nil
		d.Displaced = &displaced
	}

	for {
		job, ok := s.queue.DequeueFront()
		if !ok {
			d.Drained = true
			d.Progress = s.progressLocked()
			return d
		}

		requestID := job.RequestID()
		doc, err := render(job, requestID)
		if err != nil {
			s.completed++
			d.Skipped = append(d.Skipped, Skipped{Job: job, Err: err})
			continue
		}

		f := InFlight{Job: job, RequestID: requestID, Document: doc, StartedAt: now}
		s.inFlight = &f
		d.InFlight = f
		d.Progress = s.progressLocked()
		return d
	}
}

// Complete applies a response verdict to the in-flight job. A failed job is
// retried at the front of the queue until its retry count reaches
// maxRetries, after which it is abandoned. Abandoned and successful jobs both
// count as completed. ok is false when nothing was in flight; the session is
// left unchanged in that case.
func (s *Session) Complete(now time.Time, verdict domain.Verdict, maxRetries int) (c Completion, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = now

	if s.inFlight == nil {
		return Completion{Progress: s.progressLocked()}, false
	}

	f := *s.inFlight
	s.inFlight = nil

	c = Completion{
		InFlight: f,
		Verdict:  verdict,
		Duration: now.Sub(f.StartedAt),
	}

	switch {
	case verdict.Succeeded():
		s.completed++
		c.Status = domain.StatusSuccess
	case f.Job.RetryCount < maxRetries:
		retry := f.Job
		retry.RetryCount++
		s.queue.RequeueFront(retry)
		c.Requeued = true
		c.Status = domain.RetryingStatus(retry.RetryCount, maxRetries)
	default:
		s.completed++
		c.Abandoned = true
		c.Status = domain.StatusFailedAborted
	}

	c.Progress = s.progressLocked()
	return c, true
}

// Rescue puts the in-flight job back at the front of the queue with its retry
// count unchanged. It is used when the agent reports a connection error and
// never confirmed the outcome.
func (s *Session) Rescue(now time.Time) (InFlight, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastActivity = now

	if s.inFlight == nil {
		return InFlight{}, false
	}

	f := *s.inFlight
	s.inFlight = nil
	s.queue.RequeueFront(f.Job)
	return f, true
}

// Progress returns the completion percentage, floor(100*completed/total).
func (s *Session) Progress() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progressLocked()
}

func (s *Session) progressLocked() int {
	if s.total == 0 {
		return 0
	}
	return 100 * s.completed / s.total
}

// IdleSince returns the time of the last protocol call on this session.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// InFlightJob describes the in-flight job in a Snapshot.
type InFlightJob struct {
	Kind       domain.JobKind `json:"kind"`
	ID         string         `json:"id"`
	RequestID  string         `json:"request_id"`
	RetryCount int            `json:"retry_count"`
	StartedAt  time.Time      `json:"started_at"`
}

// Snapshot is a point-in-time copy of a session's counters.
type Snapshot struct {
	Ticket        string       `json:"ticket"`
	TotalJobs     int          `json:"total_jobs"`
	CompletedJobs int          `json:"completed_jobs"`
	PendingJobs   int          `json:"pending_jobs"`
	InFlight      *InFlightJob `json:"in_flight,omitempty"`
	Progress      int          `json:"progress"`
	CreatedAt     time.Time    `json:"created_at"`
	LastActivity  time.Time    `json:"last_activity"`
}

// Snapshot returns a consistent copy of the session state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		Ticket:        s.ticket,
		TotalJobs:     s.total,
		CompletedJobs: s.completed,
		PendingJobs:   s.queue.Len(),
		Progress:      s.progressLocked(),
		CreatedAt:     s.createdAt,
		LastActivity:  s.lastActivity,
	}
	if s.inFlight != nil {
		snap.InFlight = &InFlightJob{
			Kind:       s.inFlight.Job.Kind,
			ID:         s.inFlight.Job.ID,
			RequestID:  s.inFlight.RequestID,
			RetryCount: s.inFlight.Job.RetryCount,
			StartedAt:  s.inFlight.StartedAt,
		}
	}
	return snap
}
