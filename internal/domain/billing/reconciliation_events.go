package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// Event type names for reconciliation events
const (
	EventTypeReconciliationCreated   = "ReconciliationCreated"
	EventTypeReconciliationFinalized = "ReconciliationFinalized"
)

// ReconciliationCreatedEvent is raised when a draft reconciliation is opened
type ReconciliationCreatedEvent struct {
	shared.BaseDomainEvent
	ReconciliationID uuid.UUID `json:"reconciliation_id"`
	Date             time.Time `json:"date"`
	PreparedBy       uuid.UUID `json:"prepared_by"`
}

// EventType returns the event type name
func (e *ReconciliationCreatedEvent) EventType() string {
	return EventTypeReconciliationCreated
}

// NewReconciliationCreatedEvent creates a new ReconciliationCreatedEvent
func NewReconciliationCreatedEvent(dr *DailyReconciliation) *ReconciliationCreatedEvent {
	return &ReconciliationCreatedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeReconciliationCreated, "DailyReconciliation", dr.ID),
		ReconciliationID: dr.ID,
		Date:             dr.Date,
		PreparedBy:       dr.PreparedBy,
	}
}

// ReconciliationFinalizedEvent is raised when a reconciliation is finalized
type ReconciliationFinalizedEvent struct {
	shared.BaseDomainEvent
	ReconciliationID uuid.UUID       `json:"reconciliation_id"`
	Date             time.Time       `json:"date"`
	TotalRevenue     decimal.Decimal `json:"total_revenue"`
	OutstandingTotal decimal.Decimal `json:"outstanding_total"`
	LeakCount        int             `json:"leak_count"`
	FinalizedBy      *uuid.UUID      `json:"finalized_by"`
	FinalizedAt      time.Time       `json:"finalized_at"`
}

// EventType returns the event type name
func (e *ReconciliationFinalizedEvent) EventType() string {
	return EventTypeReconciliationFinalized
}

// NewReconciliationFinalizedEvent creates a new ReconciliationFinalizedEvent
func NewReconciliationFinalizedEvent(dr *DailyReconciliation) *ReconciliationFinalizedEvent {
	finalizedAt := time.Now()
	if dr.FinalizedAt != nil {
		finalizedAt = *dr.FinalizedAt
	}
	return &ReconciliationFinalizedEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeReconciliationFinalized, "DailyReconciliation", dr.ID),
		ReconciliationID: dr.ID,
		Date:             dr.Date,
		TotalRevenue:     dr.TotalRevenue,
		OutstandingTotal: dr.OutstandingTotal,
		LeakCount:        dr.LeakCount,
		FinalizedBy:      dr.FinalizedBy,
		FinalizedAt:      finalizedAt,
	}
}
