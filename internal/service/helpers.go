package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/events"
	"github.com/noah-isme/edutrack-api/internal/observability"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func clampPageSize(size int) int {
	if size <= 0 {
		return defaultPageSize
	}
	if size > maxPageSize {
		return maxPageSize
	}
	return size
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func pageOf(page, pageSize int) repository.Page {
	return repository.Page{Page: maxInt(page, 1), PageSize: clampPageSize(pageSize)}
}

// Clock returns the current time. Services take one so tests can pin "now".
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now().UTC()
	}
	return c().UTC()
}

// Hooks bundles the side channels every mutating service reports to.
type Hooks struct {
	Activity  ActivityRecorder
	Publisher events.Publisher
	Clock     Clock
}

func (h Hooks) record(ctx context.Context, logger zerolog.Logger, id policy.Identity, action string, kind policy.EntityKind, entityID uint, metadata map[string]interface{}) {
	if h.Activity == nil {
		return
	}
	entry := ActivityEntry{
		ActorID:    id.ID,
		ActorRole:  string(id.Role),
		Action:     action,
		EntityType: string(kind),
		Metadata:   metadata,
	}
	if entityID != 0 {
		entry.EntityID = &entityID
	}
	if _, err := h.Activity.Record(ctx, entry); err != nil {
		logger.Warn().Err(err).Str("action", action).Msg("failed to record activity")
	}
}

func (h Hooks) publish(ctx context.Context, logger zerolog.Logger, event events.Event) {
	if h.Publisher == nil {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = h.Clock.now()
	}
	if err := h.Publisher.Publish(ctx, event); err != nil {
		observability.EventsPublished().WithLabelValues(event.Topic, "error").Inc()
		logger.Warn().Err(err).Str("topic", event.Topic).Msg("failed to publish event")
		return
	}
	observability.EventsPublished().WithLabelValues(event.Topic, "ok").Inc()
}

func trimmed(value *string) string {
	if value == nil {
		return ""
	}
	return strings.TrimSpace(*value)
}
