package clinical

import (
	"time"

	"github.com/google/uuid"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// EventTypeConsultationActivated is the consultation unlock event name
const EventTypeConsultationActivated = "ConsultationActivated"

// ConsultationActivatedEvent is raised when a payment-gated
// consultation is unlocked
type ConsultationActivatedEvent struct {
	shared.BaseDomainEvent
	ConsultationID uuid.UUID  `json:"consultation_id"`
	VisitID        uuid.UUID  `json:"visit_id"`
	PatientID      uuid.UUID  `json:"patient_id"`
	DoctorID       *uuid.UUID `json:"doctor_id"`
	ActivatedAt    time.Time  `json:"activated_at"`
}

// EventType returns the event type name
func (e *ConsultationActivatedEvent) EventType() string {
	return EventTypeConsultationActivated
}

// NewConsultationActivatedEvent creates a new ConsultationActivatedEvent
func NewConsultationActivatedEvent(c *Consultation) *ConsultationActivatedEvent {
	activatedAt := time.Now()
	if c.ActivatedAt != nil {
		activatedAt = *c.ActivatedAt
	}
	return &ConsultationActivatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeConsultationActivated, "Consultation", c.ID),
		ConsultationID:  c.ID,
		VisitID:         c.VisitID,
		PatientID:       c.PatientID,
		DoctorID:        c.DoctorID,
		ActivatedAt:     activatedAt,
	}
}
