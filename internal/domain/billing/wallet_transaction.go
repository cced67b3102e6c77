package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
)

// WalletTransactionType distinguishes top-ups from visit debits
type WalletTransactionType string

const (
	WalletTransactionTypeCredit WalletTransactionType = "CREDIT" // Prepaid top-up
	WalletTransactionTypeDebit  WalletTransactionType = "DEBIT"  // Applied to a visit's balance
)

// IsValid checks if the type is a valid WalletTransactionType
func (t WalletTransactionType) IsValid() bool {
	return t == WalletTransactionTypeCredit || t == WalletTransactionTypeDebit
}

// String returns the string representation of WalletTransactionType
func (t WalletTransactionType) String() string {
	return string(t)
}

// WalletTransactionStatus represents the state of a wallet transaction
type WalletTransactionStatus string

const (
	WalletTransactionStatusPending   WalletTransactionStatus = "PENDING"
	WalletTransactionStatusCompleted WalletTransactionStatus = "COMPLETED"
	WalletTransactionStatusFailed    WalletTransactionStatus = "FAILED"
)

// IsValid checks if the status is a valid WalletTransactionStatus
func (s WalletTransactionStatus) IsValid() bool {
	switch s {
	case WalletTransactionStatusPending, WalletTransactionStatusCompleted, WalletTransactionStatusFailed:
		return true
	}
	return false
}

// String returns the string representation of WalletTransactionStatus
func (s WalletTransactionStatus) String() string {
	return string(s)
}

// WalletTransaction is a movement on a patient's prepaid balance.
// Completed debits applied to a visit count as settled funds in the
// visit's ledger, tracked independently of Payment records.
type WalletTransaction struct {
	shared.BaseAggregateRoot
	PatientID   uuid.UUID               `json:"patient_id" gorm:"type:uuid;not null;index"`
	VisitID     *uuid.UUID              `json:"visit_id" gorm:"type:uuid;index"`
	Type        WalletTransactionType   `json:"type" gorm:"size:10;not null;index"`
	Amount      decimal.Decimal         `json:"amount" gorm:"type:decimal(15,2);not null"`
	Status      WalletTransactionStatus `json:"status" gorm:"size:20;not null;index"`
	Reference   string                  `json:"reference" gorm:"size:100"`
	CompletedAt *time.Time              `json:"completed_at" gorm:"index"`
	FailReason  string                  `json:"fail_reason" gorm:"size:255"`
}

// NewWalletDebit creates a pending debit against a patient's prepaid
// balance, applied to the given visit.
func NewWalletDebit(visit *Visit, patientID uuid.UUID, amount valueobject.Money, reference string) (*WalletTransaction, error) {
	if visit == nil {
		return nil, shared.NewDomainError("INVALID_VISIT", "Visit cannot be nil")
	}
	if err := visit.EnsureBillingMutable(); err != nil {
		return nil, err
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Wallet debit amount must be positive")
	}

	visitID := visit.ID
	return &WalletTransaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PatientID:         patientID,
		VisitID:           &visitID,
		Type:              WalletTransactionTypeDebit,
		Amount:            amount.Amount(),
		Status:            WalletTransactionStatusPending,
		Reference:         reference,
	}, nil
}

// NewWalletCredit creates a pending prepaid top-up for a patient
func NewWalletCredit(patientID uuid.UUID, amount valueobject.Money, reference string) (*WalletTransaction, error) {
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Wallet credit amount must be positive")
	}

	return &WalletTransaction{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PatientID:         patientID,
		Type:              WalletTransactionTypeCredit,
		Amount:            amount.Amount(),
		Status:            WalletTransactionStatusPending,
		Reference:         reference,
	}, nil
}

// IsCompletedDebit returns true for a completed debit applied to a visit
func (w *WalletTransaction) IsCompletedDebit() bool {
	return w.Type == WalletTransactionTypeDebit && w.Status == WalletTransactionStatusCompleted
}

// GetAmountMoney returns the transaction amount as Money
func (w *WalletTransaction) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(w.Amount)
}

// Complete marks the transaction as completed.
// Completing an already-completed transaction is a no-op returning false.
func (w *WalletTransaction) Complete() (bool, error) {
	if w.Status == WalletTransactionStatusCompleted {
		return false, nil
	}
	if w.Status == WalletTransactionStatusFailed {
		return false, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot complete wallet transaction in %s status", w.Status))
	}

	now := time.Now()
	w.Status = WalletTransactionStatusCompleted
	w.CompletedAt = &now
	w.UpdatedAt = now
	w.IncrementVersion()

	return true, nil
}

// Fail marks the transaction as failed
func (w *WalletTransaction) Fail(reason string) error {
	if w.Status != WalletTransactionStatusPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot fail wallet transaction in %s status", w.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Failure reason is required")
	}

	w.Status = WalletTransactionStatusFailed
	w.FailReason = reason
	w.UpdatedAt = time.Now()
	w.IncrementVersion()

	return nil
}
