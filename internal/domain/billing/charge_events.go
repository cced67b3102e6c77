package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// Event type names for charge events
const (
	EventTypeChargeCreated = "ChargeCreated"
	EventTypeChargePaid    = "ChargePaid"
)

// ChargeCreatedEvent is raised when a new charge is recorded
type ChargeCreatedEvent struct {
	shared.BaseDomainEvent
	ChargeID    uuid.UUID       `json:"charge_id"`
	VisitID     uuid.UUID       `json:"visit_id"`
	Category    ChargeCategory  `json:"category"`
	ServiceCode string          `json:"service_code"`
	Amount      decimal.Decimal `json:"amount"`
}

// EventType returns the event type name
func (e *ChargeCreatedEvent) EventType() string {
	return EventTypeChargeCreated
}

// NewChargeCreatedEvent creates a new ChargeCreatedEvent
func NewChargeCreatedEvent(c *Charge) *ChargeCreatedEvent {
	return &ChargeCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChargeCreated, "Charge", c.ID),
		ChargeID:        c.ID,
		VisitID:         c.VisitID,
		Category:        c.Category,
		ServiceCode:     c.ServiceCode,
		Amount:          c.Amount,
	}
}

// ChargePaidEvent is raised exactly once, on the genuine UNPAID -> PAID
// edge of a charge. Downstream handlers unlock gated workflow and
// refresh the visit's payment status off this event.
type ChargePaidEvent struct {
	shared.BaseDomainEvent
	ChargeID       uuid.UUID       `json:"charge_id"`
	VisitID        uuid.UUID       `json:"visit_id"`
	Category       ChargeCategory  `json:"category"`
	ServiceCode    string          `json:"service_code"`
	Amount         decimal.Decimal `json:"amount"`
	PaymentMethod  PaymentMethod   `json:"payment_method"`
	ConsultationID *uuid.UUID      `json:"consultation_id"`
	PaidAt         time.Time       `json:"paid_at"`
}

// EventType returns the event type name
func (e *ChargePaidEvent) EventType() string {
	return EventTypeChargePaid
}

// NewChargePaidEvent creates a new ChargePaidEvent
func NewChargePaidEvent(c *Charge) *ChargePaidEvent {
	var method PaymentMethod
	if c.PaymentMethod != nil {
		method = *c.PaymentMethod
	}
	paidAt := time.Now()
	if c.PaidAt != nil {
		paidAt = *c.PaidAt
	}
	return &ChargePaidEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeChargePaid, "Charge", c.ID),
		ChargeID:        c.ID,
		VisitID:         c.VisitID,
		Category:        c.Category,
		ServiceCode:     c.ServiceCode,
		Amount:          c.Amount,
		PaymentMethod:   method,
		ConsultationID:  c.ConsultationID,
		PaidAt:          paidAt,
	}
}
