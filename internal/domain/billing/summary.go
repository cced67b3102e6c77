package billing

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// maxPaymentAmount is a sanity bound on a single payment, not a business cap
var maxPaymentAmount = decimal.NewFromInt(100_000_000)

// VisitLedger bundles everything the aggregator reads for one visit.
// Loading it is the caller's job; the aggregation itself never touches
// storage.
type VisitLedger struct {
	Visit              *Visit
	Charges            []*Charge
	Payments           []*Payment
	WalletTransactions []*WalletTransaction
	Coverage           *InsuranceCoverage
}

// BillingSummary is the computed financial position of a visit.
// It is a projection, never persisted.
type BillingSummary struct {
	VisitID            uuid.UUID          `json:"visit_id"`
	TotalCharges       decimal.Decimal    `json:"total_charges"`
	TotalPayments      decimal.Decimal    `json:"total_payments"`
	TotalWalletDebits  decimal.Decimal    `json:"total_wallet_debits"`
	InsuranceAmount    decimal.Decimal    `json:"insurance_amount"`
	PatientPayable     decimal.Decimal    `json:"patient_payable"`
	OutstandingBalance decimal.Decimal    `json:"outstanding_balance"`
	PaymentStatus      VisitPaymentStatus `json:"payment_status"`
	ComputedAt         time.Time          `json:"computed_at"`
}

// SettledFunds returns payments plus wallet debits
func (s BillingSummary) SettledFunds() decimal.Decimal {
	return s.TotalPayments.Add(s.TotalWalletDebits)
}

// ComputeSummary derives a visit's billing summary from its ledger.
// Pure and deterministic: same ledger in, same summary out. Aggregation
// order is fixed: charges, cleared payments, completed wallet debits,
// then coverage resolution.
func ComputeSummary(ledger VisitLedger, now time.Time) (BillingSummary, error) {
	if ledger.Visit == nil {
		return BillingSummary{}, shared.NewDomainError("INVALID_VISIT", "Ledger visit cannot be nil")
	}

	totalCharges := decimal.Zero
	for _, c := range ledger.Charges {
		totalCharges = totalCharges.Add(c.Amount)
	}

	totalPayments := decimal.Zero
	for _, p := range ledger.Payments {
		if p.IsCleared() {
			totalPayments = totalPayments.Add(p.Amount)
		}
	}

	totalWalletDebits := decimal.Zero
	for _, w := range ledger.WalletTransactions {
		if w.IsCompletedDebit() {
			totalWalletDebits = totalWalletDebits.Add(w.Amount)
		}
	}

	insuranceAmount := decimal.Zero
	if ledger.Coverage != nil {
		insuranceAmount = ledger.Coverage.CoveredAmount(totalCharges)
	}

	patientPayable := totalCharges.Sub(insuranceAmount)
	if patientPayable.IsNegative() {
		patientPayable = decimal.Zero
	}

	settled := totalPayments.Add(totalWalletDebits)
	outstanding := patientPayable.Sub(settled)

	summary := BillingSummary{
		VisitID:            ledger.Visit.ID,
		TotalCharges:       totalCharges,
		TotalPayments:      totalPayments,
		TotalWalletDebits:  totalWalletDebits,
		InsuranceAmount:    insuranceAmount,
		PatientPayable:     patientPayable,
		OutstandingBalance: outstanding,
		ComputedAt:         now,
	}
	summary.PaymentStatus = deriveStatus(ledger, totalCharges, insuranceAmount, patientPayable, settled)

	return summary, nil
}

// deriveStatus picks the visit payment status for a computed position
func deriveStatus(ledger VisitLedger, totalCharges, insuranceAmount, patientPayable, settled decimal.Decimal) VisitPaymentStatus {
	if totalCharges.IsZero() {
		return VisitPaymentStatusCleared
	}
	if patientPayable.IsZero() && insuranceAmount.IsPositive() && settled.IsZero() {
		return VisitPaymentStatusInsuranceClaimed
	}
	if settled.GreaterThanOrEqual(patientPayable) {
		return VisitPaymentStatusCleared
	}
	if ledger.Coverage != nil && ledger.Coverage.IsPending() {
		return VisitPaymentStatusInsurancePending
	}
	if settled.IsPositive() {
		return VisitPaymentStatusPartial
	}
	return VisitPaymentStatusPending
}

// ValidatePaymentAmount checks whether the given amount may be recorded
// as a payment against the visit. Overpayment is allowed while a
// positive balance exists; a visit with nothing outstanding rejects
// further payment.
func ValidatePaymentAmount(ledger VisitLedger, amount decimal.Decimal, now time.Time) error {
	if ledger.Visit == nil {
		return shared.NewDomainError("INVALID_VISIT", "Ledger visit cannot be nil")
	}
	if err := ledger.Visit.EnsureBillingMutable(); err != nil {
		return err
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if amount.GreaterThan(maxPaymentAmount) {
		return shared.NewDomainError("INVALID_AMOUNT", fmt.Sprintf("Payment amount exceeds the %s sanity limit", maxPaymentAmount))
	}

	summary, err := ComputeSummary(ledger, now)
	if err != nil {
		return err
	}
	if !summary.OutstandingBalance.IsPositive() {
		return shared.NewDomainError("NOTHING_OUTSTANDING", "Visit has no outstanding balance to pay against")
	}
	return nil
}

// CanCloseVisit reports whether the visit may be closed, with a human
// readable reason when it may not. A pending insurance claim keeps a
// visit closable even with a positive balance; the claim settles later.
func CanCloseVisit(ledger VisitLedger, now time.Time) (bool, string, error) {
	if ledger.Visit == nil {
		return false, "", shared.NewDomainError("INVALID_VISIT", "Ledger visit cannot be nil")
	}
	if ledger.Visit.IsClosed() {
		return false, "visit is already closed", nil
	}

	summary, err := ComputeSummary(ledger, now)
	if err != nil {
		return false, "", err
	}

	if summary.OutstandingBalance.IsPositive() {
		if ledger.Coverage != nil && ledger.Coverage.IsPending() {
			return true, "", nil
		}
		return false, fmt.Sprintf("outstanding balance of %s must be settled before closing", summary.OutstandingBalance.StringFixed(2)), nil
	}
	return true, "", nil
}
