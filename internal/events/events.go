package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/observability"
)

// Event topics published by the services.
const (
	AnnouncementPublished = "announcement.published"
	TimetableChanged      = "timetable.changed"
	SemesterCurrent       = "semester.current"
	SubmissionGraded      = "submission.graded"
)

// Event is the envelope sent to subscribers.
type Event struct {
	Topic         string      `json:"topic"`
	ActorID       uint        `json:"actor_id"`
	EntityID      uint        `json:"entity_id"`
	Payload       interface{} `json:"payload,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
}

// Publisher fans domain events out to other consumers.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type natsPublisher struct {
	conn   *nats.Conn
	prefix string
	logger zerolog.Logger
}

// NewNATSPublisher publishes events on "<prefix>.<topic>" subjects.
func NewNATSPublisher(conn *nats.Conn, prefix string, logger zerolog.Logger) Publisher {
	return &natsPublisher{
		conn:   conn,
		prefix: normalizePrefix(prefix),
		logger: logger.With().Str("component", "event_publisher").Logger(),
	}
}

func (p *natsPublisher) Publish(ctx context.Context, event Event) error {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	if event.CorrelationID == "" {
		event.CorrelationID = observability.CorrelationID(ctx)
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	subject := subjectFor(p.prefix, event.Topic)
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}

	p.logger.Debug().Str("subject", subject).Uint("entity_id", event.EntityID).Msg("event published")
	return nil
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.ReplaceAll(strings.TrimSpace(prefix), ":", "."), ".")
}

func subjectFor(prefix, topic string) string {
	if prefix == "" {
		return topic
	}
	return prefix + "." + topic
}

type noopPublisher struct{}

// NewNoopPublisher returns a publisher that drops every event.
func NewNoopPublisher() Publisher { return noopPublisher{} }

func (noopPublisher) Publish(context.Context, Event) error { return nil }

// Recorder keeps published events in memory.
type Recorder struct {
	Events []Event
}

// Publish implements Publisher.
func (r *Recorder) Publish(_ context.Context, event Event) error {
	r.Events = append(r.Events, event)
	return nil
}

// Topics lists the recorded topics in order.
func (r *Recorder) Topics() []string {
	topics := make([]string, 0, len(r.Events))
	for _, event := range r.Events {
		topics = append(topics, event.Topic)
	}
	return topics
}
