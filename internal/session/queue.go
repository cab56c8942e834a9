package session

import (
	"github.com/gammazero/deque"

	"github.com/gosuda/qbsync/internal/domain"
)

// Queue is the ordered list of pending jobs for one session. The front is the
// next job to hand out. Retries and rescued jobs go back to the front.
//
// Queue does no locking; the owning Session serializes access.
type Queue struct {
	jobs deque.Deque[domain.Job]
}

// NewQueue returns a queue holding jobs in the given order.
func NewQueue(jobs []domain.Job) *Queue {
	q := &Queue{}
	q.EnqueueAll(jobs)
	return q
}

// EnqueueAll appends jobs to the back, preserving their order.
func (q *Queue) EnqueueAll(jobs []domain.Job) {
	q.jobs.Grow(len(jobs))
	for _, j := range jobs {
		q.jobs.PushBack(j)
	}
}

// DequeueFront removes and returns the first job. ok is false when the queue
// is empty.
func (q *Queue) DequeueFront() (job domain.Job, ok bool) {
	if q.jobs.Len() == 0 {
		return domain.Job{}, false
	}
	return q.jobs.PopFront(), true
}

// RequeueFront puts job ahead of every queued job.
func (q *Queue) RequeueFront(job domain.Job) {
	q.jobs.PushFront(job)
}

// Len returns the number of queued jobs.
func (q *Queue) Len() int {
	return q.jobs.Len()
}

// Peek returns the job at position i without removing it.
func (q *Queue) Peek(i int) (domain.Job, bool) {
	if i < 0 || i >= q.jobs.Len() {
		return domain.Job{}, false
	}
	return q.jobs.At(i), true
}
