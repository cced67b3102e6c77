package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
)

// GormChargeRepository implements billing.ChargeRepository using GORM
type GormChargeRepository struct {
	db *gorm.DB
}

// NewGormChargeRepository creates a new GormChargeRepository
func NewGormChargeRepository(db *gorm.DB) *GormChargeRepository {
	return &GormChargeRepository{db: db}
}

// FindByID finds a charge by ID
func (r *GormChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Charge, error) {
	var charge billing.Charge
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&charge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &charge, nil
}

// FindByVisit returns all charges for a visit in creation order
func (r *GormChargeRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*billing.Charge, error) {
	var charges []*billing.Charge
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("visit_id = ?", visitID).
		Order("created_at ASC").
		Find(&charges).Error; err != nil {
		return nil, err
	}
	return charges, nil
}

// ExistsPaidForService reports whether the visit carries a paid charge
// for the given service code
func (r *GormChargeRepository) ExistsPaidForService(ctx context.Context, visitID uuid.UUID, serviceCode string) (bool, error) {
	var count int64
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Model(&billing.Charge{}).
		Where("visit_id = ? AND service_code = ? AND status = ?", visitID, serviceCode, billing.ChargeStatusPaid).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a charge
func (r *GormChargeRepository) Save(ctx context.Context, charge *billing.Charge) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(charge).Error
}

var _ billing.ChargeRepository = (*GormChargeRepository)(nil)
