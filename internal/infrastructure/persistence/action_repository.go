package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/clinical"
)

// GormActionRepository implements clinical.ActionRepository using GORM
type GormActionRepository struct {
	db *gorm.DB
}

// NewGormActionRepository creates a new GormActionRepository
func NewGormActionRepository(db *gorm.DB) *GormActionRepository {
	return &GormActionRepository{db: db}
}

// FindByEntity returns the action of a given type by its entity ID,
// or (nil, nil) when it does not exist
func (r *GormActionRepository) FindByEntity(ctx context.Context, actionType clinical.ActionType, entityID uuid.UUID) (*clinical.Action, error) {
	var action clinical.Action
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		First(&action, "type = ? AND id = ?", actionType, entityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &action, nil
}

// FindBillable returns completed actions subject to leak detection,
// excluding emergency-override work
func (r *GormActionRepository) FindBillable(ctx context.Context) ([]*clinical.Action, error) {
	var actions []*clinical.Action
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("emergency_override = ?", false).
		Order("completed_at ASC").
		Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

// FindBillableByType returns billable actions of one type
func (r *GormActionRepository) FindBillableByType(ctx context.Context, actionType clinical.ActionType) ([]*clinical.Action, error) {
	var actions []*clinical.Action
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("type = ? AND emergency_override = ?", actionType, false).
		Order("completed_at ASC").
		Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

// FindCompletedBetween returns actions completed inside the window
func (r *GormActionRepository) FindCompletedBetween(ctx context.Context, start, end time.Time) ([]*clinical.Action, error) {
	var actions []*clinical.Action
	if err := dbFromContext(ctx, r.db).WithContext(ctx).
		Where("completed_at >= ? AND completed_at < ?", start, end).
		Order("completed_at ASC").
		Find(&actions).Error; err != nil {
		return nil, err
	}
	return actions, nil
}

// Save creates or updates an action
func (r *GormActionRepository) Save(ctx context.Context, action *clinical.Action) error {
	return dbFromContext(ctx, r.db).WithContext(ctx).Save(action).Error
}

var _ clinical.ActionRepository = (*GormActionRepository)(nil)
