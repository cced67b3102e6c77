package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// Event type names for visit events
const (
	EventTypeVisitOpened              = "VisitOpened"
	EventTypeVisitClosed              = "VisitClosed"
	EventTypeVisitPaymentStatusChange = "VisitPaymentStatusChanged"
)

// VisitOpenedEvent is raised when a new visit is opened
type VisitOpenedEvent struct {
	shared.BaseDomainEvent
	VisitID     uuid.UUID `json:"visit_id"`
	VisitNumber string    `json:"visit_number"`
	PatientID   uuid.UUID `json:"patient_id"`
	OpenedAt    time.Time `json:"opened_at"`
}

// EventType returns the event type name
func (e *VisitOpenedEvent) EventType() string {
	return EventTypeVisitOpened
}

// NewVisitOpenedEvent creates a new VisitOpenedEvent
func NewVisitOpenedEvent(v *Visit) *VisitOpenedEvent {
	return &VisitOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVisitOpened, "Visit", v.ID),
		VisitID:         v.ID,
		VisitNumber:     v.VisitNumber,
		PatientID:       v.PatientID,
		OpenedAt:        v.OpenedAt,
	}
}

// VisitClosedEvent is raised when a visit is closed
type VisitClosedEvent struct {
	shared.BaseDomainEvent
	VisitID     uuid.UUID  `json:"visit_id"`
	VisitNumber string     `json:"visit_number"`
	PatientID   uuid.UUID  `json:"patient_id"`
	ClosedAt    time.Time  `json:"closed_at"`
	ClosedBy    *uuid.UUID `json:"closed_by"`
}

// EventType returns the event type name
func (e *VisitClosedEvent) EventType() string {
	return EventTypeVisitClosed
}

// NewVisitClosedEvent creates a new VisitClosedEvent
func NewVisitClosedEvent(v *Visit) *VisitClosedEvent {
	closedAt := time.Now()
	if v.ClosedAt != nil {
		closedAt = *v.ClosedAt
	}
	return &VisitClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVisitClosed, "Visit", v.ID),
		VisitID:         v.ID,
		VisitNumber:     v.VisitNumber,
		PatientID:       v.PatientID,
		ClosedAt:        closedAt,
		ClosedBy:        v.ClosedBy,
	}
}

// VisitPaymentStatusChangedEvent is raised when a visit's payment status changes
type VisitPaymentStatusChangedEvent struct {
	shared.BaseDomainEvent
	VisitID        uuid.UUID          `json:"visit_id"`
	VisitNumber    string             `json:"visit_number"`
	PreviousStatus VisitPaymentStatus `json:"previous_status"`
	NewStatus      VisitPaymentStatus `json:"new_status"`
}

// EventType returns the event type name
func (e *VisitPaymentStatusChangedEvent) EventType() string {
	return EventTypeVisitPaymentStatusChange
}

// NewVisitPaymentStatusChangedEvent creates a new VisitPaymentStatusChangedEvent
func NewVisitPaymentStatusChangedEvent(v *Visit, previous VisitPaymentStatus) *VisitPaymentStatusChangedEvent {
	return &VisitPaymentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeVisitPaymentStatusChange, "Visit", v.ID),
		VisitID:         v.ID,
		VisitNumber:     v.VisitNumber,
		PreviousStatus:  previous,
		NewStatus:       v.PaymentStatus,
	}
}
