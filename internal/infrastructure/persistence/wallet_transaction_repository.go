package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
)

// GormWalletTransactionRepository implements billing.WalletTransactionRepository using GORM
type GormWalletTransactionRepository struct {
	db *gorm.DB
}

// NewGormWalletTransactionRepository creates a new GormWalletTransactionRepository
func NewGormWalletTransactionRepository(db *gorm.DB) *GormWalletTransactionRepository {
	return &GormWalletTransactionRepository{db: db}
}

// FindByID finds a wallet transaction by ID
func (r *GormWalletTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.WalletTransaction, error) {
	var txn billing.WalletTransaction
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&txn, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &txn, nil
}

// FindByVisit returns all wallet transactions applied to a visit
func (r *GormWalletTransactionRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*billing.WalletTransaction, error) {
	var txns []*billing.WalletTransaction
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("visit_id = ?", visitID).
		Order("created_at ASC").
		Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// SumCompletedDebitsBetween sums visit-applied debits completed inside
// the window
func (r *GormWalletTransactionRepository) SumCompletedDebitsBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	var sum decimal.Decimal
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.WalletTransaction{}).
		Select("COALESCE(SUM(amount), 0)").
		Where("type = ? AND status = ? AND visit_id IS NOT NULL AND completed_at >= ? AND completed_at < ?",
			billing.WalletTransactionTypeDebit, billing.WalletTransactionStatusCompleted, start, end).
		Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

// Save creates or updates a wallet transaction
func (r *GormWalletTransactionRepository) Save(ctx context.Context, txn *billing.WalletTransaction) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(txn).Error
}

var _ billing.WalletTransactionRepository = (*GormWalletTransactionRepository)(nil)
