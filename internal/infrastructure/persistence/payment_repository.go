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

// GormPaymentRepository implements billing.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID
func (r *GormPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	var payment billing.Payment
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&payment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// FindByVisit returns all payments for a visit in creation order
func (r *GormPaymentRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*billing.Payment, error) {
	var payments []*billing.Payment
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("visit_id = ?", visitID).
		Order("created_at ASC").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// SumClearedByMethodBetween sums payments cleared inside the window,
// grouped by payment method. Feeds the reconciliation channel breakdown.
func (r *GormPaymentRepository) SumClearedByMethodBetween(ctx context.Context, start, end time.Time) (map[billing.PaymentMethod]decimal.Decimal, error) {
	var rows []struct {
		Method billing.PaymentMethod
		Total  decimal.Decimal
	}
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.Payment{}).
		Select("method, COALESCE(SUM(amount), 0) AS total").
		Where("status = ? AND cleared_at >= ? AND cleared_at < ?", billing.PaymentStatusCleared, start, end).
		Group("method").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	sums := make(map[billing.PaymentMethod]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.Method] = row.Total
	}
	return sums, nil
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(payment).Error
}

var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
