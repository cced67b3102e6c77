// Package audit persists an append-only trail of operator actions:
// leak resolutions, reconciliation lifecycle changes, manual charges.
package audit

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// Details is a free-form attribute bag stored as JSONB
type Details map[string]any

// Value implements driver.Valuer for GORM to store as JSONB
func (d Details) Value() (driver.Value, error) {
	if d == nil {
		return "{}", nil
	}
	return json.Marshal(d)
}

// Scan implements sql.Scanner for GORM to read from JSONB
func (d *Details) Scan(value interface{}) error {
	if value == nil {
		*d = Details{}
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan audit details: unsupported type")
	}
	if len(bytes) == 0 {
		*d = Details{}
		return nil
	}
	return json.Unmarshal(bytes, d)
}

// Entry is one row in the audit trail
type Entry struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key"`
	Action    string     `gorm:"size:100;not null;index"`
	ActorID   *uuid.UUID `gorm:"type:uuid;index"`
	Details   Details    `gorm:"type:jsonb"`
	CreatedAt time.Time  `gorm:"not null;index"`
}

// TableName sets the table name for audit entries
func (Entry) TableName() string {
	return "audit_entries"
}

// GormAuditRecorder implements shared.AuditRecorder on a database table
type GormAuditRecorder struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormAuditRecorder creates a new GormAuditRecorder
func NewGormAuditRecorder(db *gorm.DB, logger *zap.Logger) *GormAuditRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormAuditRecorder{db: db, logger: logger}
}

// RecordAudit appends an entry to the audit trail. The entry is also
// logged, so the trail survives in log storage even if the row write
// fails.
func (r *GormAuditRecorder) RecordAudit(ctx context.Context, action string, actor uuid.UUID, details map[string]any) error {
	entry := Entry{
		ID:        uuid.New(),
		Action:    action,
		Details:   details,
		CreatedAt: time.Now(),
	}
	if actor != uuid.Nil {
		entry.ActorID = &actor
	}

	r.logger.Info("audit",
		zap.String("action", action),
		zap.String("actor_id", actor.String()),
		zap.Any("details", details),
	)

	if err := r.db.WithContext(ctx).Create(&entry).Error; err != nil {
		r.logger.Error("failed to persist audit entry",
			zap.String("action", action),
			zap.Error(err),
		)
		return err
	}
	return nil
}

var _ shared.AuditRecorder = (*GormAuditRecorder)(nil)
