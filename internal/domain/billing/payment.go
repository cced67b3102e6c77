package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
)

// PaymentMethod represents the channel a settlement arrived through
type PaymentMethod string

const (
	PaymentMethodCash         PaymentMethod = "CASH"
	PaymentMethodCard         PaymentMethod = "CARD"
	PaymentMethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	PaymentMethodMobileMoney  PaymentMethod = "MOBILE_MONEY"
	PaymentMethodWallet       PaymentMethod = "WALLET"
	PaymentMethodInsurance    PaymentMethod = "INSURANCE"
	PaymentMethodGateway      PaymentMethod = "GATEWAY"
)

// IsValid checks if the method is a valid PaymentMethod
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodCard, PaymentMethodBankTransfer,
		PaymentMethodMobileMoney, PaymentMethodWallet, PaymentMethodInsurance, PaymentMethodGateway:
		return true
	}
	return false
}

// String returns the string representation of PaymentMethod
func (m PaymentMethod) String() string {
	return string(m)
}

// ReconciliationChannel maps the method onto the channel buckets
// used by the daily reconciliation breakdown.
func (m PaymentMethod) ReconciliationChannel() string {
	switch m {
	case PaymentMethodCash:
		return "cash"
	case PaymentMethodWallet:
		return "wallet"
	case PaymentMethodCard, PaymentMethodGateway, PaymentMethodMobileMoney:
		return "gateway"
	case PaymentMethodInsurance:
		return "insurance"
	default:
		return "other"
	}
}

// PaymentStatus represents the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusCleared  PaymentStatus = "CLEARED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
	PaymentStatusRefunded PaymentStatus = "REFUNDED"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCleared, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further transition is allowed
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusFailed || s == PaymentStatusRefunded
}

// Payment is an append-only settlement record against a visit.
// Gateway verification happens outside the core; a payment is marked
// cleared only after its funds are confirmed settled.
type Payment struct {
	shared.BaseAggregateRoot
	VisitID           uuid.UUID       `json:"visit_id" gorm:"type:uuid;not null;index"`
	Amount            decimal.Decimal `json:"amount" gorm:"type:decimal(15,2);not null"`
	Method            PaymentMethod   `json:"method" gorm:"size:30;not null;index"`
	Status            PaymentStatus   `json:"status" gorm:"size:20;not null;index"`
	ExternalReference string          `json:"external_reference" gorm:"size:100;index"`
	ReceivedBy        *uuid.UUID      `json:"received_by" gorm:"type:uuid"`
	ClearedAt         *time.Time      `json:"cleared_at" gorm:"index"`
	FailureReason     string          `json:"failure_reason" gorm:"size:255"`
	RefundedAt        *time.Time      `json:"refunded_at"`
	RefundReason      string          `json:"refund_reason" gorm:"size:255"`
}

// NewPayment records a pending payment against a visit
func NewPayment(
	visit *Visit,
	amount valueobject.Money,
	method PaymentMethod,
	externalReference string,
	receivedBy uuid.UUID,
) (*Payment, error) {
	if visit == nil {
		return nil, shared.NewDomainError("INVALID_VISIT", "Visit cannot be nil")
	}
	if err := visit.EnsureBillingMutable(); err != nil {
		return nil, err
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if !method.IsValid() {
		return nil, shared.NewDomainError("INVALID_PAYMENT_METHOD", fmt.Sprintf("Payment method %q is not valid", method))
	}

	p := &Payment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VisitID:           visit.ID,
		Amount:            amount.Amount(),
		Method:            method,
		Status:            PaymentStatusPending,
		ExternalReference: externalReference,
	}
	if receivedBy != uuid.Nil {
		p.ReceivedBy = &receivedBy
	}

	p.AddDomainEvent(NewPaymentRecordedEvent(p))

	return p, nil
}

// IsCleared returns true if the payment's funds are confirmed settled
func (p *Payment) IsCleared() bool {
	return p.Status == PaymentStatusCleared
}

// GetAmountMoney returns the payment amount as Money
func (p *Payment) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(p.Amount)
}

// MarkCleared confirms the payment's funds as settled.
// Clearing an already-cleared payment is a no-op returning false.
func (p *Payment) MarkCleared() (bool, error) {
	if p.IsCleared() {
		return false, nil
	}
	if p.Status.IsTerminal() {
		return false, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot clear payment in %s status", p.Status))
	}

	now := time.Now()
	p.Status = PaymentStatusCleared
	p.ClearedAt = &now
	p.UpdatedAt = now
	p.IncrementVersion()

	p.AddDomainEvent(NewPaymentClearedEvent(p))

	return true, nil
}

// MarkFailed records a failed settlement attempt
func (p *Payment) MarkFailed(reason string) error {
	if p.Status != PaymentStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail payment in %s status", p.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Failure reason is required")
	}

	p.Status = PaymentStatusFailed
	p.FailureReason = reason
	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// Refund reverses a cleared payment. Cleared payments are otherwise
// immutable; refund is the only allowed mutation after clearing.
func (p *Payment) Refund(reason string) error {
	if !p.IsCleared() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot refund payment in %s status", p.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Refund reason is required")
	}

	now := time.Now()
	p.Status = PaymentStatusRefunded
	p.RefundedAt = &now
	p.RefundReason = reason
	p.UpdatedAt = now
	p.IncrementVersion()

	return nil
}
