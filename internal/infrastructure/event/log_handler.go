package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// EventLogHandler is a wildcard handler that writes every domain event
// to the structured log. Subscribed with no event types so it sees the
// whole stream.
type EventLogHandler struct {
	logger *zap.Logger
}

// NewEventLogHandler creates a new event log handler
func NewEventLogHandler(logger *zap.Logger) *EventLogHandler {
	return &EventLogHandler{logger: logger}
}

// EventTypes returns nil: this handler receives all events
func (h *EventLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *EventLogHandler) Handle(_ context.Context, evt shared.DomainEvent) error {
	h.logger.Info("domain event",
		zap.String("event_type", evt.EventType()),
		zap.String("event_id", evt.EventID().String()),
		zap.String("aggregate_type", evt.AggregateType()),
		zap.String("aggregate_id", evt.AggregateID().String()),
		zap.Time("occurred_at", evt.OccurredAt()),
	)
	return nil
}

// Ensure EventLogHandler implements EventHandler
var _ shared.EventHandler = (*EventLogHandler)(nil)
