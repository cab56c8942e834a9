package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gosuda/qbsync/internal/domain"
)

// EventTypeJobLog marks an event carrying a job log entry.
const EventTypeJobLog = "job_log"

// Event is the JSON message published for live session watchers.
type Event struct {
	Type      string             `json:"type"`
	Ticket    string             `json:"ticket"`
	Entry     domain.JobLogEntry `json:"entry"`
	Timestamp time.Time          `json:"timestamp"`
}

// Publisher sends a payload to a channel. *PubSub satisfies this interface.
type Publisher interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// EventPublisher is a job log sink that publishes every entry to the
// session's channel and to AllSessionsChannel.
type EventPublisher struct {
	pub Publisher
	now func() time.Time
}

// NewEventPublisher creates an EventPublisher.
func NewEventPublisher(pub Publisher) *EventPublisher {
	return &EventPublisher{pub: pub, now: time.Now}
}

// Record publishes entry.
func (p *EventPublisher) Record(ctx context.Context, entry domain.JobLogEntry) error {
	payload, err := json.Marshal(Event{
		Type:      EventTypeJobLog,
		Ticket:    entry.Ticket,
		Entry:     entry,
		Timestamp: p.now(),
	})
	if err != nil {
		return fmt.Errorf("redis.EventPublisher.Record: marshal: %w", err)
	}

	if err := p.pub.Publish(ctx, SessionChannel(entry.Ticket), payload); err != nil {
		return fmt.Errorf("redis.EventPublisher.Record: %w", err)
	}
	if err := p.pub.Publish(ctx, AllSessionsChannel, payload); err != nil {
		return fmt.Errorf("redis.EventPublisher.Record: %w", err)
	}
	return nil
}
