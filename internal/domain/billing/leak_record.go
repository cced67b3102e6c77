package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
)

// LeakEntityType identifies the kind of clinical action behind a leak
type LeakEntityType string

const (
	LeakEntityLabResult       LeakEntityType = "LAB_RESULT"
	LeakEntityRadiologyReport LeakEntityType = "RADIOLOGY_REPORT"
	LeakEntityDrugDispense    LeakEntityType = "DRUG_DISPENSE"
	LeakEntityProcedure       LeakEntityType = "PROCEDURE"
)

// IsValid checks if the type is a valid LeakEntityType
func (t LeakEntityType) IsValid() bool {
	switch t {
	case LeakEntityLabResult, LeakEntityRadiologyReport, LeakEntityDrugDispense, LeakEntityProcedure:
		return true
	}
	return false
}

// String returns the string representation of LeakEntityType
func (t LeakEntityType) String() string {
	return string(t)
}

// LeakRecord is one unresolved revenue gap: a completed clinical action
// with no paid charge behind it. At most one unresolved record may exist
// per (entity type, entity id); the store's partial unique index is the
// concurrency primitive enforcing that.
type LeakRecord struct {
	shared.BaseAggregateRoot
	EntityType      LeakEntityType  `json:"entity_type" gorm:"size:30;not null;index:idx_leak_entity"`
	EntityID        uuid.UUID       `json:"entity_id" gorm:"type:uuid;not null;index:idx_leak_entity"`
	VisitID         uuid.UUID       `json:"visit_id" gorm:"type:uuid;not null;index"`
	ServiceCode     string          `json:"service_code" gorm:"size:50;not null"`
	EstimatedAmount decimal.Decimal `json:"estimated_amount" gorm:"type:decimal(15,2);not null"`
	DetectedAt      time.Time       `json:"detected_at" gorm:"not null;index"`
	ResolvedBy      *uuid.UUID      `json:"resolved_by" gorm:"type:uuid"`
	ResolutionNotes string          `json:"resolution_notes" gorm:"size:500"`
	ResolvedAt      *time.Time      `json:"resolved_at" gorm:"index"`
}

// NewLeakRecord records a freshly detected revenue leak
func NewLeakRecord(
	entityType LeakEntityType,
	entityID uuid.UUID,
	visitID uuid.UUID,
	serviceCode string,
	estimatedAmount valueobject.Money,
) (*LeakRecord, error) {
	if !entityType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ENTITY_TYPE", fmt.Sprintf("Leak entity type %q is not valid", entityType))
	}
	if entityID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ENTITY_ID", "Entity ID cannot be empty")
	}
	if visitID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VISIT", "Visit ID cannot be empty")
	}
	if serviceCode == "" {
		return nil, shared.NewDomainError("INVALID_SERVICE_CODE", "Service code cannot be empty")
	}
	if estimatedAmount.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Estimated amount cannot be negative")
	}

	lr := &LeakRecord{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		EntityType:        entityType,
		EntityID:          entityID,
		VisitID:           visitID,
		ServiceCode:       serviceCode,
		EstimatedAmount:   estimatedAmount.Amount(),
		DetectedAt:        time.Now(),
	}

	lr.AddDomainEvent(NewLeakDetectedEvent(lr))

	return lr, nil
}

// IsResolved returns true once the leak has been closed
func (lr *LeakRecord) IsResolved() bool {
	return lr.ResolvedAt != nil
}

// GetEstimatedAmountMoney returns the estimated loss as Money
func (lr *LeakRecord) GetEstimatedAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(lr.EstimatedAmount)
}

// Resolve closes the leak, recording who resolved it and why.
// Resolution is the only close path; there is no automatic resolution.
// A later re-detection for the same entity creates a new record rather
// than reopening this one, so the audit trail survives.
func (lr *LeakRecord) Resolve(resolvedBy uuid.UUID, notes string) error {
	if lr.IsResolved() {
		return shared.NewDomainError("ALREADY_RESOLVED", "Leak record is already resolved")
	}
	if resolvedBy == uuid.Nil {
		return shared.NewDomainError("INVALID_RESOLVER", "Resolver identity is required")
	}
	if notes == "" {
		return shared.NewDomainError("INVALID_NOTES", "Resolution notes are required")
	}

	now := time.Now()
	lr.ResolvedBy = &resolvedBy
	lr.ResolutionNotes = notes
	lr.ResolvedAt = &now
	lr.UpdatedAt = now
	lr.IncrementVersion()

	lr.AddDomainEvent(NewLeakResolvedEvent(lr))

	return nil
}
