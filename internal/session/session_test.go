package session_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/qbsync/internal/domain"
	"github.com/gosuda/qbsync/internal/session"
)

const maxRetries = 2

var (
	success = domain.Verdict{Outcome: domain.OutcomeSuccess, StatusCode: "0"}
	failure = domain.Verdict{Outcome: domain.OutcomeFailure, StatusCode: "3100", Message: "name already in use"}
)

// echoRender renders a job as its request ID so tests can see what was sent.
func echoRender(_ domain.Job, requestID string) (string, error) {
	return "<" + requestID + "/>", nil
}

func newSession(t *testing.T, jobs []domain.Job) (*session.Session, time.Time) {
	t.Helper()
	now := time.Date(2024, 10, 25, 9, 0, 0, 0, time.UTC)
	return session.New("ticket-1", jobs, now), now
}

func TestSession_NextRecordsInFlight(t *testing.T) {
	t.Parallel()

	s, now := newSession(t, customerJobs("C1", "C2"))

	d := s.Next(now, echoRender)

	require.False(t, d.Drained)
	assert.Equal(t, "C1", d.InFlight.Job.ID)
	assert.Equal(t, "customer_C1_r0", d.InFlight.RequestID)
	assert.Equal(t, "<customer_C1_r0/>", d.InFlight.Document)
	assert.Equal(t, now, d.InFlight.StartedAt)

	snap := s.Snapshot()
	require.NotNil(t, snap.InFlight)
	assert.Equal(t, "C1", snap.InFlight.ID)
	assert.Equal(t, 1, snap.PendingJobs)
	assert.Equal(t, 2, snap.TotalJobs)
}

func TestSession_SuccessAdvancesProgress(t *testing.T) {
	t.Parallel()

	jobs := append(customerJobs("C1", "C2"), domain.NewJob(domain.Invoice{ID: "INV-001"}))
	s, now := newSession(t, jobs)

	d := s.Next(now, echoRender)
	require.Equal(t, "C1", d.InFlight.Job.ID)

	c, ok := s.Complete(now.Add(2*time.Second), success, maxRetries)
	require.True(t, ok)

	assert.Equal(t, domain.StatusSuccess, c.Status)
	assert.False(t, c.Requeued)
	assert.False(t, c.Abandoned)
	assert.Equal(t, 2*time.Second, c.Duration)
	assert.Equal(t, 33, c.Progress)
	assert.Nil(t, s.Snapshot().InFlight)
}

func TestSession_RetryThenAbandon(t *testing.T) {
	t.Parallel()

	s, now := newSession(t, customerJobs("C1", "C2"))

	// First two failures requeue the job at the front.
	for attempt := 1; attempt <= maxRetries; attempt++ {
		d := s.Next(now, echoRender)
		require.Equal(t, "C1", d.InFlight.Job.ID, "retried job is offered before C2")
		assert.Equal(t, attempt-1, d.InFlight.Job.RetryCount)

		c, ok := s.Complete(now, failure, maxRetries)
		require.True(t, ok)
		assert.True(t, c.Requeued)
		assert.Equal(t, domain.RetryingStatus(attempt, maxRetries), c.Status)
		assert.Zero(t, c.Progress, "a retried job is not completed")
	}

	// Third failure abandons it and counts it as completed.
	d := s.Next(now, echoRender)
	require.Equal(t, "C1", d.InFlight.Job.ID)
	assert.Equal(t, maxRetries, d.InFlight.Job.RetryCount)
	assert.Equal(t, "customer_C1_r2", d.InFlight.RequestID)

	c, ok := s.Complete(now, failure, maxRetries)
	require.True(t, ok)
	assert.True(t, c.Abandoned)
	assert.False(t, c.Requeued)
	assert.Equal(t, domain.StatusFailedAborted, c.Status)
	assert.Equal(t, 50, c.Progress)

	snap := s.Snapshot()
	assert.Equal(t, 1, snap.CompletedJobs)
	assert.Equal(t, 1, snap.PendingJobs)

	next := s.Next(now, echoRender)
	assert.Equal(t, "C2", next.InFlight.Job.ID, "abandoned job is never requeued")
}

func TestSession_ZeroMaxRetriesAbandonsImmediately(t *testing.T) {
	t.Parallel()

	s, now := newSession(t, customerJobs("C1"))
	s.Next(now, echoRender)

	c, ok := s.Complete(now, failure, 0)
	require.True(t, ok)
	assert.True(t, c.Abandoned)
	assert.Equal(t, 100, c.Progress)
}

func TestSession_CompleteWithoutInFlightIsNoop(t *testing.T) {
	t.Parallel()

	s, now := newSession(t, customerJobs("C1"))

	c, ok := s.Complete(now, success, maxRetries)

	assert.False(t, ok)
	assert.Zero(t, c.Progress)
	snap := s.Snapshot()
	assert.Zero(t, snap.CompletedJobs)
	assert.Equal(t, 1, snap.PendingJobs)
}

func TestSession_RescueRequeuesSameJob(t *testing.T) {
	t.Parallel()

	s, now := newSession(t, customerJobs("C1", "C2"))

	d := s.Next(now, echoRender)
	require.Equal(t, "C1", d.InFlight.Job.ID)

	rescued, ok := s.Rescue(now)
	require.True(t, ok)
	assert.Equal(t, "C1", rescued.Job.ID)
	assert.Nil(t, s.Snapshot().InFlight)

	again := s.Next(now, echoRender)
	assert.Equal(t, "C1", again.InFlight.Job.ID)
	assert.Zero(t, again.InFlight.Job.RetryCount, "rescue does not count as a retry")
	assert.Equal(t, d.InFlight.Document, again.InFlight.Document)

	_, ok = s.Rescue(now)
	assert.True(t, ok)
	_, ok = s.Rescue(now)
	assert.False(t, ok, "nothing in flight after a rescue")
}

func TestSession_NextDisplacesUnacknowledgedJob(t *testing.T) {
	t.Parallel()

	s, now := newSession(t, customerJobs("C1", "C2"))

	s.Next(now, echoRender)
	d := s.Next(now, echoRender)

	require.NotNil(t, d.Displaced)
	assert.Equal(t, "C1", d.Displaced.ID)
	assert.Equal(t, "C1", d.InFlight.Job.ID, "displaced job is offered again")
	assert.Equal(t, 1, s.Snapshot().PendingJobs)
}

func TestSession_DrainedReachesFullProgress(t *testing.T) {
	t.Parallel()

	s, now := newSession(t, customerJobs("C1", "C2", "C3"))

	last := -1
	for {
		d := s.Next(now, echoRender)
		if d.Drained {
			break
		}
		c, ok := s.Complete(now, success, maxRetries)
		require.True(t, ok)
		assert.GreaterOrEqual(t, c.Progress, last, "progress never decreases")
		last = c.Progress
	}

	assert.Equal(t, 100, s.Progress())
	snap := s.Snapshot()
	assert.Equal(t, snap.TotalJobs, snap.CompletedJobs)
	assert.Nil(t, snap.InFlight)

	d := s.Next(now, echoRender)
	assert.True(t, d.Drained, "drained session stays drained")
	assert.Equal(t, 100, d.Progress)
}

func TestSession_EmptyQueue(t *testing.T) {
	t.Parallel()

	s, now := newSession(t, nil)

	d := s.Next(now, echoRender)
	assert.True(t, d.Drained)
	assert.Zero(t, s.Progress(), "progress is clamped to 0 when there are no jobs")
}

func TestSession_RenderFailureAbandonsJob(t *testing.T) {
	t.Parallel()

	s, now := newSession(t, customerJobs("BAD", "C2"))
	render := func(job domain.Job, requestID string) (string, error) {
		if job.ID == "BAD" {
			return "", errors.New("boom")
		}
		return echoRender(job, requestID)
	}

	d := s.Next(now, render)

	require.Len(t, d.Skipped, 1)
	assert.Equal(t, "BAD", d.Skipped[0].Job.ID)
	assert.Equal(t, "C2", d.InFlight.Job.ID)
	assert.Equal(t, 50, d.Progress)
}

func TestSession_Invariants_Concurrent(t *testing.T) {
	t.Parallel()

	s, now := newSession(t, customerJobs("C1", "C2", "C3", "C4", "C5", "C6", "C7", "C8"))

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for range 20 {
				s.Next(now, echoRender)
				if i%3 == 0 {
					s.Rescue(now)
				} else {
					verdict := success
					if i%2 == 0 {
						verdict = failure
					}
					s.Complete(now, verdict, maxRetries)
				}

				snap := s.Snapshot()
				assert.LessOrEqual(t, snap.CompletedJobs, snap.TotalJobs)
				inFlight := 0
				if snap.InFlight != nil {
					inFlight = 1
				}
				assert.Equal(t, snap.TotalJobs, snap.CompletedJobs+snap.PendingJobs+inFlight,
					"a job is queued, in flight or finished, never two at once")
			}
		}(i)
	}
	wg.Wait()
}
