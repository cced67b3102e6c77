package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// Event type names for leak events
const (
	EventTypeLeakDetected = "LeakDetected"
	EventTypeLeakResolved = "LeakResolved"
)

// LeakDetectedEvent is raised when a revenue leak is first recorded
type LeakDetectedEvent struct {
	shared.BaseDomainEvent
	LeakID          uuid.UUID       `json:"leak_id"`
	EntityType      LeakEntityType  `json:"entity_type"`
	EntityID        uuid.UUID       `json:"entity_id"`
	VisitID         uuid.UUID       `json:"visit_id"`
	ServiceCode     string          `json:"service_code"`
	EstimatedAmount decimal.Decimal `json:"estimated_amount"`
	DetectedAt      time.Time       `json:"detected_at"`
}

// EventType returns the event type name
func (e *LeakDetectedEvent) EventType() string {
	return EventTypeLeakDetected
}

// NewLeakDetectedEvent creates a new LeakDetectedEvent
func NewLeakDetectedEvent(lr *LeakRecord) *LeakDetectedEvent {
	return &LeakDetectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeakDetected, "LeakRecord", lr.ID),
		LeakID:          lr.ID,
		EntityType:      lr.EntityType,
		EntityID:        lr.EntityID,
		VisitID:         lr.VisitID,
		ServiceCode:     lr.ServiceCode,
		EstimatedAmount: lr.EstimatedAmount,
		DetectedAt:      lr.DetectedAt,
	}
}

// LeakResolvedEvent is raised when a leak is manually resolved
type LeakResolvedEvent struct {
	shared.BaseDomainEvent
	LeakID     uuid.UUID  `json:"leak_id"`
	EntityType LeakEntityType `json:"entity_type"`
	EntityID   uuid.UUID  `json:"entity_id"`
	ResolvedBy *uuid.UUID `json:"resolved_by"`
	ResolvedAt time.Time  `json:"resolved_at"`
}

// EventType returns the event type name
func (e *LeakResolvedEvent) EventType() string {
	return EventTypeLeakResolved
}

// NewLeakResolvedEvent creates a new LeakResolvedEvent
func NewLeakResolvedEvent(lr *LeakRecord) *LeakResolvedEvent {
	resolvedAt := time.Now()
	if lr.ResolvedAt != nil {
		resolvedAt = *lr.ResolvedAt
	}
	return &LeakResolvedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLeakResolved, "LeakRecord", lr.ID),
		LeakID:          lr.ID,
		EntityType:      lr.EntityType,
		EntityID:        lr.EntityID,
		ResolvedBy:      lr.ResolvedBy,
		ResolvedAt:      resolvedAt,
	}
}
