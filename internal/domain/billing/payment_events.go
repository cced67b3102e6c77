package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// Event type names for payment events
const (
	EventTypePaymentRecorded = "PaymentRecorded"
	EventTypePaymentCleared  = "PaymentCleared"
)

// PaymentRecordedEvent is raised when a payment is first recorded
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	VisitID   uuid.UUID       `json:"visit_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
}

// EventType returns the event type name
func (e *PaymentRecordedEvent) EventType() string {
	return EventTypePaymentRecorded
}

// NewPaymentRecordedEvent creates a new PaymentRecordedEvent
func NewPaymentRecordedEvent(p *Payment) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentRecorded, "Payment", p.ID),
		PaymentID:       p.ID,
		VisitID:         p.VisitID,
		Amount:          p.Amount,
		Method:          p.Method,
	}
}

// PaymentClearedEvent is raised when a payment's funds are confirmed settled
type PaymentClearedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	VisitID   uuid.UUID       `json:"visit_id"`
	Amount    decimal.Decimal `json:"amount"`
	Method    PaymentMethod   `json:"method"`
	ClearedAt time.Time       `json:"cleared_at"`
}

// EventType returns the event type name
func (e *PaymentClearedEvent) EventType() string {
	return EventTypePaymentCleared
}

// NewPaymentClearedEvent creates a new PaymentClearedEvent
func NewPaymentClearedEvent(p *Payment) *PaymentClearedEvent {
	clearedAt := time.Now()
	if p.ClearedAt != nil {
		clearedAt = *p.ClearedAt
	}
	return &PaymentClearedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCleared, "Payment", p.ID),
		PaymentID:       p.ID,
		VisitID:         p.VisitID,
		Amount:          p.Amount,
		Method:          p.Method,
		ClearedAt:       clearedAt,
	}
}
