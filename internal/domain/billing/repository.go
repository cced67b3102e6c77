package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VisitRepository defines persistence operations for visits
type VisitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	FindByVisitNumber(ctx context.Context, visitNumber string) (*Visit, error)
	// FindOpenAsOf returns visits still open that were opened before asOf.
	// The day close-out uses the end of the reconciliation date as the
	// bound so a backdated run never touches later encounters.
	FindOpenAsOf(ctx context.Context, asOf time.Time) ([]*Visit, error)
	// FindTouchedBetween returns visits with billing activity (charge or
	// payment created) inside the window, plus visits still open.
	FindTouchedBetween(ctx context.Context, start, end time.Time) ([]*Visit, error)
	Save(ctx context.Context, visit *Visit) error
}

// ChargeRepository defines persistence operations for charges
type ChargeRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Charge, error)
	FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*Charge, error)
	// ExistsPaidForService reports whether the visit carries a paid charge
	// for the given service code. The leak detector's core query.
	ExistsPaidForService(ctx context.Context, visitID uuid.UUID, serviceCode string) (bool, error)
	Save(ctx context.Context, charge *Charge) error
}

// PaymentRepository defines persistence operations for payments
type PaymentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Payment, error)
	FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*Payment, error)
	// SumClearedByMethodBetween sums payments cleared inside the window,
	// grouped by payment method.
	SumClearedByMethodBetween(ctx context.Context, start, end time.Time) (map[PaymentMethod]decimal.Decimal, error)
	Save(ctx context.Context, payment *Payment) error
}

// WalletTransactionRepository defines persistence operations for wallet transactions
type WalletTransactionRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*WalletTransaction, error)
	FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*WalletTransaction, error)
	// SumCompletedDebitsBetween sums visit-applied debits completed inside
	// the window.
	SumCompletedDebitsBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error)
	Save(ctx context.Context, txn *WalletTransaction) error
}

// InsuranceCoverageRepository defines persistence operations for coverage records.
// FindByVisit returns (nil, nil) when the visit carries no coverage.
type InsuranceCoverageRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InsuranceCoverage, error)
	FindByVisit(ctx context.Context, visitID uuid.UUID) (*InsuranceCoverage, error)
	Save(ctx context.Context, coverage *InsuranceCoverage) error
}

// LeakRecordRepository defines persistence operations for leak records.
// Save must surface the unresolved-(entity type, entity id) uniqueness
// violation as shared.ErrAlreadyExists so callers can converge on the
// existing row.
type LeakRecordRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*LeakRecord, error)
	FindUnresolvedByEntity(ctx context.Context, entityType LeakEntityType, entityID uuid.UUID) (*LeakRecord, error)
	FindUnresolved(ctx context.Context) ([]*LeakRecord, error)
	FindDetectedBetween(ctx context.Context, start, end time.Time) ([]*LeakRecord, error)
	Save(ctx context.Context, record *LeakRecord) error
}

// ReconciliationRepository defines persistence operations for daily
// reconciliations. Save must surface a date-uniqueness violation as
// shared.ErrAlreadyExists; FindByDate returns (nil, nil) when no record
// exists for the date.
type ReconciliationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*DailyReconciliation, error)
	FindByDate(ctx context.Context, date time.Time) (*DailyReconciliation, error)
	Save(ctx context.Context, record *DailyReconciliation) error
}
