package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// VisitStatus represents the lifecycle status of a clinical visit
type VisitStatus string

const (
	VisitStatusOpen   VisitStatus = "OPEN"
	VisitStatusClosed VisitStatus = "CLOSED"
)

// IsValid checks if the status is a valid VisitStatus
func (s VisitStatus) IsValid() bool {
	return s == VisitStatusOpen || s == VisitStatusClosed
}

// String returns the string representation of VisitStatus
func (s VisitStatus) String() string {
	return string(s)
}

// VisitPaymentStatus represents the settlement position of a visit
type VisitPaymentStatus string

const (
	VisitPaymentStatusPending          VisitPaymentStatus = "PENDING"           // Nothing settled, balance outstanding
	VisitPaymentStatusPartial          VisitPaymentStatus = "PARTIAL"           // Some funds settled, balance outstanding
	VisitPaymentStatusCleared          VisitPaymentStatus = "CLEARED"           // Settled funds cover the patient payable
	VisitPaymentStatusInsurancePending VisitPaymentStatus = "INSURANCE_PENDING" // Awaiting coverage approval
	VisitPaymentStatusInsuranceClaimed VisitPaymentStatus = "INSURANCE_CLAIMED" // Approved coverage absorbs the payable
	VisitPaymentStatusSettled          VisitPaymentStatus = "SETTLED"           // Closed out by daily reconciliation
)

// IsValid checks if the status is a valid VisitPaymentStatus
func (s VisitPaymentStatus) IsValid() bool {
	switch s {
	case VisitPaymentStatusPending, VisitPaymentStatusPartial, VisitPaymentStatusCleared,
		VisitPaymentStatusInsurancePending, VisitPaymentStatusInsuranceClaimed, VisitPaymentStatusSettled:
		return true
	}
	return false
}

// String returns the string representation of VisitPaymentStatus
func (s VisitPaymentStatus) String() string {
	return string(s)
}

// IsCleared returns true when the visit's payable is fully covered,
// whether by settled funds, an approved insurance claim, or reconciliation close-out
func (s VisitPaymentStatus) IsCleared() bool {
	return s == VisitPaymentStatusCleared || s == VisitPaymentStatusInsuranceClaimed || s == VisitPaymentStatusSettled
}

// Visit is the root aggregate for one clinical encounter.
// It is the scope for all billing activity: charges, payments,
// wallet debits and insurance coverage all hang off a visit.
type Visit struct {
	shared.BaseAggregateRoot
	PatientID     uuid.UUID          `json:"patient_id" gorm:"type:uuid;not null;index"`
	VisitNumber   string             `json:"visit_number" gorm:"size:50;uniqueIndex;not null"`
	Status        VisitStatus        `json:"status" gorm:"size:20;not null;index"`
	PaymentStatus VisitPaymentStatus `json:"payment_status" gorm:"size:30;not null;index"`
	OpenedAt      time.Time          `json:"opened_at" gorm:"not null"`
	ClosedAt      *time.Time         `json:"closed_at"`
	ClosedBy      *uuid.UUID         `json:"closed_by" gorm:"type:uuid"`
}

// NewVisit opens a new visit for a patient
func NewVisit(patientID uuid.UUID, visitNumber string) (*Visit, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if visitNumber == "" {
		return nil, shared.NewDomainError("INVALID_VISIT_NUMBER", "Visit number cannot be empty")
	}
	if len(visitNumber) > 50 {
		return nil, shared.NewDomainError("INVALID_VISIT_NUMBER", "Visit number cannot exceed 50 characters")
	}

	v := &Visit{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PatientID:         patientID,
		VisitNumber:       visitNumber,
		Status:            VisitStatusOpen,
		PaymentStatus:     VisitPaymentStatusPending,
		OpenedAt:          time.Now(),
	}

	v.AddDomainEvent(NewVisitOpenedEvent(v))

	return v, nil
}

// IsOpen returns true if the visit is still open
func (v *Visit) IsOpen() bool {
	return v.Status == VisitStatusOpen
}

// IsClosed returns true if the visit has been closed
func (v *Visit) IsClosed() bool {
	return v.Status == VisitStatusClosed
}

// EnsureBillingMutable returns an error when billing mutation is not allowed.
// Closed visits are immutable for billing purposes.
func (v *Visit) EnsureBillingMutable() error {
	if v.IsClosed() {
		return shared.ErrVisitClosed
	}
	return nil
}

// Close transitions the visit to closed. Closed visits reject further
// billing mutation; payment status refresh remains allowed so insurance
// claims and reconciliation can still settle the balance.
func (v *Visit) Close(closedBy uuid.UUID) error {
	if v.IsClosed() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Visit %s is already closed", v.VisitNumber))
	}

	now := time.Now()
	v.Status = VisitStatusClosed
	v.ClosedAt = &now
	if closedBy != uuid.Nil {
		v.ClosedBy = &closedBy
	}
	v.UpdatedAt = now
	v.IncrementVersion()

	v.AddDomainEvent(NewVisitClosedEvent(v))

	return nil
}

// UpdatePaymentStatus sets the visit's payment status.
// Returns true when the stored value actually changed; callers persist
// only on change so re-derived statuses stay idempotent.
func (v *Visit) UpdatePaymentStatus(status VisitPaymentStatus) (bool, error) {
	if !status.IsValid() {
		return false, shared.NewDomainError("INVALID_PAYMENT_STATUS", fmt.Sprintf("Payment status %q is not valid", status))
	}
	if v.PaymentStatus == status {
		return false, nil
	}

	previous := v.PaymentStatus
	v.PaymentStatus = status
	v.UpdatedAt = time.Now()
	v.IncrementVersion()

	v.AddDomainEvent(NewVisitPaymentStatusChangedEvent(v, previous))

	return true, nil
}

// MarkSettled is invoked by the reconciliation close-out for cleared,
// closed visits. It is a no-op when already settled.
func (v *Visit) MarkSettled() (bool, error) {
	if v.PaymentStatus == VisitPaymentStatusSettled {
		return false, nil
	}
	if !v.PaymentStatus.IsCleared() {
		return false, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot settle visit %s with payment status %s", v.VisitNumber, v.PaymentStatus))
	}
	return v.UpdatePaymentStatus(VisitPaymentStatusSettled)
}
