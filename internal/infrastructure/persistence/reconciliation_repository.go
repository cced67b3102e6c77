package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// GormReconciliationRepository implements billing.ReconciliationRepository
// using GORM.
//
// Two store-level guarantees live here: the date-unique index makes
// concurrent creators for the same calendar date converge on a single
// row, and a pre-write check rejects any update that would change a
// frozen field on a finalized record.
type GormReconciliationRepository struct {
	db *gorm.DB
}

// NewGormReconciliationRepository creates a new GormReconciliationRepository
func NewGormReconciliationRepository(db *gorm.DB) *GormReconciliationRepository {
	return &GormReconciliationRepository{db: db}
}

// FindByID finds a reconciliation by ID
func (r *GormReconciliationRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.DailyReconciliation, error) {
	var record billing.DailyReconciliation
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindByDate returns the reconciliation for a calendar date, or (nil, nil)
func (r *GormReconciliationRepository) FindByDate(ctx context.Context, date time.Time) (*billing.DailyReconciliation, error) {
	y, m, d := date.UTC().Date()
	normalized := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)

	var record billing.DailyReconciliation
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&record, "date = ?", normalized).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// Save creates or updates a reconciliation. A date-uniqueness violation
// surfaces as shared.ErrAlreadyExists. Updates against a finalized row
// are rejected unless every frozen field is unchanged; notes stay
// editable.
func (r *GormReconciliationRepository) Save(ctx context.Context, record *billing.DailyReconciliation) error {
	db := dbFromContext(ctx, r.db).WithContext(ctx)

	var stored billing.DailyReconciliation
	err := db.First(&stored, "id = ?", record.ID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		// New row; fall through to the insert
	case err != nil:
		return err
	case stored.IsFinalized() && record.DiffersIgnoringNotes(&stored):
		return shared.NewDomainError("RECONCILIATION_FINALIZED",
			"Finalized reconciliation is immutable except for notes")
	}

	if err := db.Save(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

var _ billing.ReconciliationRepository = (*GormReconciliationRepository)(nil)
