package clinical

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
)

// ActionType identifies the kind of completed clinical work
type ActionType string

const (
	ActionTypeLabResult       ActionType = "LAB_RESULT"
	ActionTypeRadiologyReport ActionType = "RADIOLOGY_REPORT"
	ActionTypeDrugDispense    ActionType = "DRUG_DISPENSE"
	ActionTypeProcedure       ActionType = "PROCEDURE"
)

// AllActionTypes lists every sweepable action type
var AllActionTypes = []ActionType{
	ActionTypeLabResult,
	ActionTypeRadiologyReport,
	ActionTypeDrugDispense,
	ActionTypeProcedure,
}

// IsValid checks if the type is a valid ActionType
func (t ActionType) IsValid() bool {
	switch t {
	case ActionTypeLabResult, ActionTypeRadiologyReport, ActionTypeDrugDispense, ActionTypeProcedure:
		return true
	}
	return false
}

// String returns the string representation of ActionType
func (t ActionType) String() string {
	return string(t)
}

// Action records one completed unit of clinical work: a lab result
// posted, a radiology report posted, a drug dispensed, a procedure
// done. The leak detector scans these for missing paid charges.
// Emergency-override dispenses are exempt from leak detection; patient
// safety takes precedence over billing.
type Action struct {
	shared.BaseEntity
	Type              ActionType      `json:"type" gorm:"size:30;not null;index"`
	VisitID           uuid.UUID       `json:"visit_id" gorm:"type:uuid;not null;index"`
	PatientID         uuid.UUID       `json:"patient_id" gorm:"type:uuid;not null;index"`
	ServiceCode       string          `json:"service_code" gorm:"size:50;not null;index"`
	Description       string          `json:"description" gorm:"size:255"`
	EstimatedAmount   decimal.Decimal `json:"estimated_amount" gorm:"type:decimal(15,2);not null"`
	PerformedBy       *uuid.UUID      `json:"performed_by" gorm:"type:uuid"`
	CompletedAt       time.Time       `json:"completed_at" gorm:"not null;index"`
	EmergencyOverride bool            `json:"emergency_override" gorm:"not null;default:false"`
}

// NewAction records a completed clinical action
func NewAction(
	actionType ActionType,
	visitID uuid.UUID,
	patientID uuid.UUID,
	serviceCode string,
	description string,
	estimatedAmount valueobject.Money,
	performedBy uuid.UUID,
	emergencyOverride bool,
) (*Action, error) {
	if !actionType.IsValid() {
		return nil, shared.NewDomainError("INVALID_ACTION_TYPE", fmt.Sprintf("Action type %q is not valid", actionType))
	}
	if visitID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_VISIT", "Visit ID cannot be empty")
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if serviceCode == "" {
		return nil, shared.NewDomainError("INVALID_SERVICE_CODE", "Service code cannot be empty")
	}
	if estimatedAmount.Amount().IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Estimated amount cannot be negative")
	}

	a := &Action{
		BaseEntity:        shared.NewBaseEntity(),
		Type:              actionType,
		VisitID:           visitID,
		PatientID:         patientID,
		ServiceCode:       serviceCode,
		Description:       description,
		EstimatedAmount:   estimatedAmount.Amount(),
		CompletedAt:       time.Now(),
		EmergencyOverride: emergencyOverride,
	}
	if performedBy != uuid.Nil {
		a.PerformedBy = &performedBy
	}
	return a, nil
}

// IsBillable returns true when the action should carry a paid charge.
// Emergency-override work is exempt.
func (a *Action) IsBillable() bool {
	return !a.EmergencyOverride
}

// GetEstimatedAmountMoney returns the estimated amount as Money
func (a *Action) GetEstimatedAmountMoney() valueobject.Money {
	return valueobject.NewMoneyNGN(a.EstimatedAmount)
}
