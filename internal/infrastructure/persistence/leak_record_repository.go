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

// GormLeakRecordRepository implements billing.LeakRecordRepository using GORM.
//
// The leak_records table carries a partial unique index over
// (entity_type, entity_id) WHERE resolved_at IS NULL. Concurrent
// detectors racing on the same entity both try to insert; the loser's
// write comes back as a duplicate-key error, translated here to
// shared.ErrAlreadyExists so the caller converges on the winner's row.
type GormLeakRecordRepository struct {
	db *gorm.DB
}

// NewGormLeakRecordRepository creates a new GormLeakRecordRepository
func NewGormLeakRecordRepository(db *gorm.DB) *GormLeakRecordRepository {
	return &GormLeakRecordRepository{db: db}
}

// FindByID finds a leak record by ID
func (r *GormLeakRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.LeakRecord, error) {
	var record billing.LeakRecord
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindUnresolvedByEntity returns the open leak for an entity, or (nil, nil)
func (r *GormLeakRecordRepository) FindUnresolvedByEntity(ctx context.Context, entityType billing.LeakEntityType, entityID uuid.UUID) (*billing.LeakRecord, error) {
	var record billing.LeakRecord
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&record, "entity_type = ? AND entity_id = ? AND resolved_at IS NULL", entityType, entityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}

// FindUnresolved returns every open leak, oldest first
func (r *GormLeakRecordRepository) FindUnresolved(ctx context.Context) ([]*billing.LeakRecord, error) {
	var records []*billing.LeakRecord
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("resolved_at IS NULL").
		Order("detected_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// FindDetectedBetween returns leaks detected inside the window,
// resolved or not
func (r *GormLeakRecordRepository) FindDetectedBetween(ctx context.Context, start, end time.Time) ([]*billing.LeakRecord, error) {
	var records []*billing.LeakRecord
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("detected_at >= ? AND detected_at < ?", start, end).
		Order("detected_at ASC").
		Find(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

// Save creates or updates a leak record, surfacing the unresolved-entity
// uniqueness violation as shared.ErrAlreadyExists
func (r *GormLeakRecordRepository) Save(ctx context.Context, record *billing.LeakRecord) error {
	if err := dbFromContext(ctx, r.db).WithContext(ctx).Save(record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return shared.ErrAlreadyExists
		}
		return err
	}
	return nil
}

var _ billing.LeakRecordRepository = (*GormLeakRecordRepository)(nil)
