package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// CoverageType distinguishes full from percentage-based coverage
type CoverageType string

const (
	CoverageTypeFull    CoverageType = "FULL"
	CoverageTypePartial CoverageType = "PARTIAL"
)

// IsValid checks if the type is a valid CoverageType
func (t CoverageType) IsValid() bool {
	return t == CoverageTypeFull || t == CoverageTypePartial
}

// String returns the string representation of CoverageType
func (t CoverageType) String() string {
	return string(t)
}

// CoverageApprovalStatus represents the provider's decision on a coverage claim
type CoverageApprovalStatus string

const (
	CoverageApprovalPending  CoverageApprovalStatus = "PENDING"
	CoverageApprovalApproved CoverageApprovalStatus = "APPROVED"
	CoverageApprovalRejected CoverageApprovalStatus = "REJECTED"
)

// IsValid checks if the status is a valid CoverageApprovalStatus
func (s CoverageApprovalStatus) IsValid() bool {
	switch s {
	case CoverageApprovalPending, CoverageApprovalApproved, CoverageApprovalRejected:
		return true
	}
	return false
}

// String returns the string representation of CoverageApprovalStatus
func (s CoverageApprovalStatus) String() string {
	return string(s)
}

// InsuranceCoverage links a visit to a provider policy.
// Full coverage requires a 100 percentage; partial coverage applies its
// percentage, optionally bounded by a provider-approved cap.
type InsuranceCoverage struct {
	shared.BaseAggregateRoot
	VisitID         uuid.UUID              `json:"visit_id" gorm:"type:uuid;not null;index"`
	PatientID       uuid.UUID              `json:"patient_id" gorm:"type:uuid;not null;index"`
	ProviderName    string                 `json:"provider_name" gorm:"size:100;not null"`
	PolicyNumber    string                 `json:"policy_number" gorm:"size:50;not null"`
	Type            CoverageType           `json:"type" gorm:"size:10;not null"`
	Percentage      decimal.Decimal        `json:"percentage" gorm:"type:decimal(5,2);not null"`
	ApprovalStatus  CoverageApprovalStatus `json:"approval_status" gorm:"size:20;not null;index"`
	ApprovedCap     *decimal.Decimal       `json:"approved_cap" gorm:"type:decimal(15,2)"`
	ApprovedBy      *uuid.UUID             `json:"approved_by" gorm:"type:uuid"`
	ApprovedAt      *time.Time             `json:"approved_at"`
	RejectionReason string                 `json:"rejection_reason" gorm:"size:255"`
}

// NewInsuranceCoverage registers a pending coverage claim for a visit
func NewInsuranceCoverage(
	visit *Visit,
	patientID uuid.UUID,
	providerName string,
	policyNumber string,
	coverageType CoverageType,
	percentage decimal.Decimal,
) (*InsuranceCoverage, error) {
	if visit == nil {
		return nil, shared.NewDomainError("INVALID_VISIT", "Visit cannot be nil")
	}
	if patientID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PATIENT", "Patient ID cannot be empty")
	}
	if providerName == "" {
		return nil, shared.NewDomainError("INVALID_PROVIDER", "Provider name cannot be empty")
	}
	if policyNumber == "" {
		return nil, shared.NewDomainError("INVALID_POLICY", "Policy number cannot be empty")
	}
	if !coverageType.IsValid() {
		return nil, shared.NewDomainError("INVALID_COVERAGE_TYPE", fmt.Sprintf("Coverage type %q is not valid", coverageType))
	}
	if percentage.LessThan(decimal.Zero) || percentage.GreaterThan(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_PERCENTAGE", "Coverage percentage must be between 0 and 100")
	}
	if coverageType == CoverageTypeFull && !percentage.Equal(decimal.NewFromInt(100)) {
		return nil, shared.NewDomainError("INVALID_PERCENTAGE", "Full coverage requires a percentage of 100")
	}

	return &InsuranceCoverage{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VisitID:           visit.ID,
		PatientID:         patientID,
		ProviderName:      providerName,
		PolicyNumber:      policyNumber,
		Type:              coverageType,
		Percentage:        percentage,
		ApprovalStatus:    CoverageApprovalPending,
	}, nil
}

// IsApproved returns true if the provider has approved the claim
func (ic *InsuranceCoverage) IsApproved() bool {
	return ic.ApprovalStatus == CoverageApprovalApproved
}

// IsPending returns true if the provider decision is outstanding
func (ic *InsuranceCoverage) IsPending() bool {
	return ic.ApprovalStatus == CoverageApprovalPending
}

// Approve records the provider's approval, with an optional cap on the
// amount the provider will cover.
func (ic *InsuranceCoverage) Approve(approvedBy uuid.UUID, cap *decimal.Decimal) error {
	if ic.ApprovalStatus != CoverageApprovalPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve coverage in %s status", ic.ApprovalStatus))
	}
	if cap != nil && cap.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_CAP", "Approved cap must be positive")
	}

	now := time.Now()
	ic.ApprovalStatus = CoverageApprovalApproved
	ic.ApprovedCap = cap
	if approvedBy != uuid.Nil {
		ic.ApprovedBy = &approvedBy
	}
	ic.ApprovedAt = &now
	ic.UpdatedAt = now
	ic.IncrementVersion()

	return nil
}

// Reject records the provider's rejection
func (ic *InsuranceCoverage) Reject(reason string) error {
	if ic.ApprovalStatus != CoverageApprovalPending {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject coverage in %s status", ic.ApprovalStatus))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_REASON", "Rejection reason is required")
	}

	ic.ApprovalStatus = CoverageApprovalRejected
	ic.RejectionReason = reason
	ic.UpdatedAt = time.Now()
	ic.IncrementVersion()

	return nil
}

// CoveredAmount resolves the amount the insurer absorbs for the given
// charge total. Pending or rejected coverage yields zero. Full coverage
// yields min(total, cap ?? total); partial coverage yields
// min(total * percentage/100, cap ?? unbounded).
func (ic *InsuranceCoverage) CoveredAmount(totalCharges decimal.Decimal) decimal.Decimal {
	if !ic.IsApproved() || totalCharges.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero
	}

	var covered decimal.Decimal
	switch ic.Type {
	case CoverageTypeFull:
		covered = totalCharges
	case CoverageTypePartial:
		covered = totalCharges.Mul(ic.Percentage).Div(decimal.NewFromInt(100))
	default:
		return decimal.Zero
	}

	if ic.ApprovedCap != nil && covered.GreaterThan(*ic.ApprovedCap) {
		covered = *ic.ApprovedCap
	}
	if covered.GreaterThan(totalCharges) {
		covered = totalCharges
	}
	return covered
}
