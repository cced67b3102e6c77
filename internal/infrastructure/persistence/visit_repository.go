package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
)

// GormVisitRepository implements billing.VisitRepository using GORM
type GormVisitRepository struct {
	db *gorm.DB
}

// NewGormVisitRepository creates a new GormVisitRepository
func NewGormVisitRepository(db *gorm.DB) *GormVisitRepository {
	return &GormVisitRepository{db: db}
}

// FindByID finds a visit by ID
func (r *GormVisitRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Visit, error) {
	var visit billing.Visit
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&visit, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

// FindByVisitNumber finds a visit by its human-readable number
func (r *GormVisitRepository) FindByVisitNumber(ctx context.Context, visitNumber string) (*billing.Visit, error) {
	var visit billing.Visit
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&visit, "visit_number = ?", visitNumber).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &visit, nil
}

// FindOpenAsOf returns visits still open that were opened before asOf
func (r *GormVisitRepository) FindOpenAsOf(ctx context.Context, asOf time.Time) ([]*billing.Visit, error) {
	var visits []*billing.Visit
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("status = ? AND opened_at < ?", billing.VisitStatusOpen, asOf).
		Order("opened_at ASC").
		Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

// FindTouchedBetween returns visits with billing activity inside the
// window, plus visits still open. Both populations feed the daily
// reconciliation counts.
func (r *GormVisitRepository) FindTouchedBetween(ctx context.Context, start, end time.Time) ([]*billing.Visit, error) {
	db := dbFromContext(ctx, r.db)

	chargedVisits := db.Model(&billing.Charge{}).
		Select("visit_id").
		Where("created_at >= ? AND created_at < ?", start, end)
	paidVisits := db.Model(&billing.Payment{}).
		Select("visit_id").
		Where("created_at >= ? AND created_at < ?", start, end)

	var visits []*billing.Visit
	if err := db.WithContext(ctx).
		Where("status = ? OR id IN (?) OR id IN (?)", billing.VisitStatusOpen, chargedVisits, paidVisits).
		Order("opened_at ASC").
		Find(&visits).Error; err != nil {
		return nil, err
	}
	return visits, nil
}

// Save creates or updates a visit
func (r *GormVisitRepository) Save(ctx context.Context, visit *billing.Visit) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(visit).Error
}

var _ billing.VisitRepository = (*GormVisitRepository)(nil)
