package clinical

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// ConsultationStatus represents the workflow state of a consultation
type ConsultationStatus string

const (
	ConsultationStatusPendingPayment ConsultationStatus = "PENDING_PAYMENT" // Gated until the consultation charge is paid
	ConsultationStatusActive         ConsultationStatus = "ACTIVE"
	ConsultationStatusCompleted      ConsultationStatus = "COMPLETED"
	ConsultationStatusCancelled      ConsultationStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ConsultationStatus
func (s ConsultationStatus) IsValid() bool {
	switch s {
	case ConsultationStatusPendingPayment, ConsultationStatusActive,
		ConsultationStatusCompleted, ConsultationStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of ConsultationStatus
func (s ConsultationStatus) String() string {
	return string(s)
}

// IsTerminal returns true if the consultation can no longer change
func (s ConsultationStatus) IsTerminal() bool {
	return s == ConsultationStatusCompleted || s == ConsultationStatusCancelled
}

// Consultation is a doctor consultation gated on payment. It opens in
// PENDING_PAYMENT and the payment pipeline activates it once the
// consultation charge reaches the paid state.
type Consultation struct {
	shared.BaseAggregateRoot
	VisitID     uuid.UUID          `json:"visit_id" gorm:"type:uuid;not null;index"`
	PatientID   uuid.UUID          `json:"patient_id" gorm:"type:uuid;not null;index"`
	Status      ConsultationStatus `json:"status" gorm:"size:20;not null;index"`
	DoctorID    *uuid.UUID         `json:"doctor_id" gorm:"type:uuid;index"`
	Complaint   string             `json:"complaint" gorm:"size:500"`
	ActivatedAt *time.Time         `json:"activated_at"`
	CompletedAt *time.Time         `json:"completed_at"`
}

// NewConsultation opens a payment-gated consultation for a visit
func NewConsultation(visitID, patientID uuid.UUID, complaint string) (*Consultation, error) {
	if visitID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VISIT", "Visit ID cannot be empty")
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}

	return &Consultation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VisitID:           visitID,
		PatientID:         patientID,
		Status:            ConsultationStatusPendingPayment,
		Complaint:         complaint,
	}, nil
}

// IsPendingPayment returns true while the consultation is payment-gated
func (c *Consultation) IsPendingPayment() bool {
	return c.Status == ConsultationStatusPendingPayment
}

// IsActive returns true once the consultation has been unlocked
func (c *Consultation) IsActive() bool {
	return c.Status == ConsultationStatusActive
}

// Activate unlocks a payment-gated consultation, assigning the doctor
// when none is assigned yet. An already-active consultation is a no-op
// returning false, so the payment pipeline can re-deliver safely.
func (c *Consultation) Activate(doctorID uuid.UUID) (bool, error) {
	if c.IsActive() {
		return false, nil
	}
	if c.Status.IsTerminal() {
		return false, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot activate consultation in %s status", c.Status))
	}

	now := time.Now()
	c.Status = ConsultationStatusActive
	if c.DoctorID == nil && doctorID != uuid.Nil {
		c.DoctorID = &doctorID
	}
	c.ActivatedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewConsultationActivatedEvent(c))

	return true, nil
}

// AssignDoctor assigns or reassigns the attending doctor
func (c *Consultation) AssignDoctor(doctorID uuid.UUID) error {
	if c.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot assign doctor to consultation in %s status", c.Status))
	}
	if doctorID == uuid.Nil {
		return shared.NewDomainError("INVALID_DOCTOR", "Doctor ID cannot be empty")
	}

	c.DoctorID = &doctorID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Complete finishes an active consultation
func (c *Consultation) Complete() error {
	if !c.IsActive() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete consultation in %s status", c.Status))
	}

	now := time.Now()
	c.Status = ConsultationStatusCompleted
	c.CompletedAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	return nil
}

// Cancel abandons a consultation that has not completed
func (c *Consultation) Cancel() error {
	if c.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel consultation in %s status", c.Status))
	}

	c.Status = ConsultationStatusCancelled
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}
