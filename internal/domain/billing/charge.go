package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
)

// ChargeCategory classifies the billable service behind a charge
type ChargeCategory string

const (
	ChargeCategoryConsultation ChargeCategory = "CONSULTATION"
	ChargeCategoryLab          ChargeCategory = "LAB"
	ChargeCategoryRadiology    ChargeCategory = "RADIOLOGY"
	ChargeCategoryPharmacy     ChargeCategory = "PHARMACY"
	ChargeCategoryProcedure    ChargeCategory = "PROCEDURE"
	ChargeCategoryMisc         ChargeCategory = "MISC"
)

// IsValid checks if the category is a valid ChargeCategory
func (c ChargeCategory) IsValid() bool {
	switch c {
	case ChargeCategoryConsultation, ChargeCategoryLab, ChargeCategoryRadiology,
		ChargeCategoryPharmacy, ChargeCategoryProcedure, ChargeCategoryMisc:
		return true
	}
	return false
}

// String returns the string representation of ChargeCategory
func (c ChargeCategory) String() string {
	return string(c)
}

// ChargeStatus represents the payment state of a billing line item
type ChargeStatus string

const (
	ChargeStatusUnpaid ChargeStatus = "UNPAID"
	ChargeStatusPaid   ChargeStatus = "PAID"
)

// IsValid checks if the status is a valid ChargeStatus
func (s ChargeStatus) IsValid() bool {
	return s == ChargeStatusUnpaid || s == ChargeStatusPaid
}

// String returns the string representation of ChargeStatus
func (s ChargeStatus) String() string {
	return string(s)
}

// Charge is one billable line item tied to a visit.
// A charge is immutable once paid; UNPAID -> PAID is the only transition.
type Charge struct {
	shared.BaseAggregateRoot
	VisitID          uuid.UUID       `json:"visit_id" gorm:"type:uuid;not null;index"`
	Category         ChargeCategory  `json:"category" gorm:"size:20;not null;index"`
	ServiceCode      string          `json:"service_code" gorm:"size:50;not null;index"`
	Description      string          `json:"description" gorm:"size:255"`
	Amount           decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Status           ChargeStatus    `json:"status" gorm:"size:20;not null;index"`
	PaymentMethod    *PaymentMethod  `json:"payment_method" gorm:"size:30"`
	ConsultationID   *uuid.UUID      `json:"consultation_id" gorm:"type:uuid;index"`
	SourceEntityType string          `json:"source_entity_type" gorm:"size:30"`
	SourceEntityID   *uuid.UUID      `json:"source_entity_id" gorm:"type:uuid"`
	PaidAt           *time.Time      `json:"paid_at"`
}

// NewCharge creates a new unpaid charge against a visit
func NewCharge(
	visit *Visit,
	category ChargeCategory,
	serviceCode string,
	description string,
	amount valueobject.Money,
) (*Charge, error) {
	if visit == nil {
		return nil, shared.NewDomainError("INVALID_VISIT", "Visit cannot be nil")
	}
	if err := visit.EnsureBillingMutable(); err != nil {
		return nil, err
	}
	if !category.IsValid() {
		return nil, shared.NewDomainError("INVALID_CATEGORY", fmt.Sprintf("Charge category %q is not valid", category))
	}
	if serviceCode == "" {
		return nil, shared.NewDomainError("INVALID_SERVICE_CODE", "Service code cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Charge amount must be positive")
	}

	c := &Charge{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VisitID:           visit.ID,
		Category:          category,
		ServiceCode:       serviceCode,
		Description:       description,
		Amount:            amount.Amount(),
		Status:            ChargeStatusUnpaid,
	}

	c.AddDomainEvent(NewChargeCreatedEvent(c))

	return c, nil
}

// NewManualCharge creates a receptionist-entered charge.
// Manual entry is restricted to the MISC category.
func NewManualCharge(visit *Visit, serviceCode, description string, amount valueobject.Money) (*Charge, error) {
	return NewCharge(visit, ChargeCategoryMisc, serviceCode, description, amount)
}

// LinkConsultation attaches the consultation gated on this charge
func (c *Charge) LinkConsultation(consultationID uuid.UUID) error {
	if c.IsPaid() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a paid charge")
	}
	if consultationID == uuid.Nil {
		return shared.NewDomainError("INVALID_CONSULTATION", "Consultation ID cannot be empty")
	}
	c.ConsultationID = &consultationID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// LinkSourceEntity records the clinical entity that generated this charge
func (c *Charge) LinkSourceEntity(entityType string, entityID uuid.UUID) error {
	if c.IsPaid() {
		return shared.NewDomainError("INVALID_STATE", "Cannot modify a paid charge")
	}
	if entityType == "" || entityID == uuid.Nil {
		return shared.NewDomainError("INVALID_SOURCE", "Source entity type and ID are required")
	}
	c.SourceEntityType = entityType
	c.SourceEntityID = &entityID
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	return nil
}

// IsPaid returns true if the charge has reached the paid state
func (c *Charge) IsPaid() bool {
	return c.Status == ChargeStatusPaid
}

// GetAmountMoney returns the charge amount as Money
func (c *Charge) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(c.Amount)
}

// MarkPaid transitions the charge UNPAID -> PAID and raises ChargePaidEvent.
// The event fires only on a genuine edge: marking an already-paid charge
// is a no-op returning false, so re-saves never produce duplicate events.
func (c *Charge) MarkPaid(method PaymentMethod) (bool, error) {
	if !method.IsValid() {
		return false, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Payment method %q is not valid", method))
	}
	if c.IsPaid() {
		return false, nil
	}

	now := time.Now()
	c.Status = ChargeStatusPaid
	c.PaymentMethod = &method
	c.PaidAt = &now
	c.UpdatedAt = now
	c.IncrementVersion()

	c.AddDomainEvent(NewChargePaidEvent(c))

	return true, nil
}
