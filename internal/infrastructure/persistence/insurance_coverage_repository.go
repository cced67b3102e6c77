package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
)

// GormInsuranceCoverageRepository implements billing.InsuranceCoverageRepository using GORM
type GormInsuranceCoverageRepository struct {
	db *gorm.DB
}

// NewGormInsuranceCoverageRepository creates a new GormInsuranceCoverageRepository
func NewGormInsuranceCoverageRepository(db *gorm.DB) *GormInsuranceCoverageRepository {
	return &GormInsuranceCoverageRepository{db: db}
}

// FindByID finds a coverage record by ID
func (r *GormInsuranceCoverageRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.InsuranceCoverage, error) {
	var coverage billing.InsuranceCoverage
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&coverage, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coverage, nil
}

// FindByVisit returns the coverage attached to a visit, or (nil, nil)
// when the visit carries none
func (r *GormInsuranceCoverageRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) (*billing.InsuranceCoverage, error) {
	var coverage billing.InsuranceCoverage
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&coverage, "visit_id = ?", visitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &coverage, nil
}

// Save creates or updates a coverage record
func (r *GormInsuranceCoverageRepository) Save(ctx context.Context, coverage *billing.InsuranceCoverage) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(coverage).Error
}

var _ billing.InsuranceCoverageRepository = (*GormInsuranceCoverageRepository)(nil)
