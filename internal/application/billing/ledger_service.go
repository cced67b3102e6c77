// Package billing contains the application services of the billing
// engine: ledger aggregation, the payment confirmation pipeline, leak
// detection and daily reconciliation.
package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/telemetry"
)

// LedgerService loads visit ledgers and exposes the read-only
// aggregation operations. All computation is delegated to the pure
// domain functions; this service only assembles their inputs.
type LedgerService struct {
	visitRepo    billing.VisitRepository
	chargeRepo   billing.ChargeRepository
	paymentRepo  billing.PaymentRepository
	walletRepo   billing.WalletTransactionRepository
	coverageRepo billing.InsuranceCoverageRepository
	clock        Clock
	logger       *zap.Logger
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	visitRepo billing.VisitRepository,
	chargeRepo billing.ChargeRepository,
	paymentRepo billing.PaymentRepository,
	walletRepo billing.WalletTransactionRepository,
	coverageRepo billing.InsuranceCoverageRepository,
	clock Clock,
	logger *zap.Logger,
) *LedgerService {
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		visitRepo:    visitRepo,
		chargeRepo:   chargeRepo,
		paymentRepo:  paymentRepo,
		walletRepo:   walletRepo,
		coverageRepo: coverageRepo,
		clock:        clock,
		logger:       logger,
	}
}

// LoadLedger assembles the full billing ledger of a visit
func (s *LedgerService) LoadLedger(ctx context.Context, visitID uuid.UUID) (billing.VisitLedger, error) {
	visit, err := s.visitRepo.FindByID(ctx, visitID)
	if err != nil {
		return billing.VisitLedger{}, fmt.Errorf("failed to load visit: %w", err)
	}
	if visit == nil {
		return billing.VisitLedger{}, shared.ErrNotFound
	}

	charges, err := s.chargeRepo.FindByVisit(ctx, visitID)
	if err != nil {
		return billing.VisitLedger{}, fmt.Errorf("failed to load charges: %w", err)
	}
	payments, err := s.paymentRepo.FindByVisit(ctx, visitID)
	if err != nil {
		return billing.VisitLedger{}, fmt.Errorf("failed to load payments: %w", err)
	}
	walletTxns, err := s.walletRepo.FindByVisit(ctx, visitID)
	if err != nil {
		return billing.VisitLedger{}, fmt.Errorf("failed to load wallet transactions: %w", err)
	}
	coverage, err := s.coverageRepo.FindByVisit(ctx, visitID)
	if err != nil {
		return billing.VisitLedger{}, fmt.Errorf("failed to load coverage: %w", err)
	}

	return billing.VisitLedger{
		Visit:              visit,
		Charges:            charges,
		Payments:           payments,
		WalletTransactions: walletTxns,
		Coverage:           coverage,
	}, nil
}

// ComputeSummary computes the billing summary of a visit
func (s *LedgerService) ComputeSummary(ctx context.Context, visitID uuid.UUID) (billing.BillingSummary, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "compute_summary",
		telemetry.WithAttribute(telemetry.SpanAttrVisitID, visitID.String()))
	defer span.End()

	ledger, err := s.LoadLedger(ctx, visitID)
	if err != nil {
		telemetry.RecordError(span, err)
		return billing.BillingSummary{}, err
	}

	summary, err := billing.ComputeSummary(ledger, s.clock.Now())
	if err != nil {
		telemetry.RecordError(span, err)
		return billing.BillingSummary{}, err
	}

	telemetry.SetAttributes(span,
		telemetry.SpanAttrAmount, summary.OutstandingBalance.String(),
		"payment_status", summary.PaymentStatus.String(),
	)
	return summary, nil
}

// ValidatePaymentAmount checks whether amount may be recorded as a
// payment against the visit
func (s *LedgerService) ValidatePaymentAmount(ctx context.Context, visitID uuid.UUID, amount decimal.Decimal) error {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "validate_payment_amount",
		telemetry.WithAttribute(telemetry.SpanAttrVisitID, visitID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, amount.String()))
	defer span.End()

	ledger, err := s.LoadLedger(ctx, visitID)
	if err != nil {
		telemetry.RecordError(span, err)
		return err
	}

	if err := billing.ValidatePaymentAmount(ledger, amount, s.clock.Now()); err != nil {
		telemetry.RecordError(span, err)
		return err
	}
	return nil
}

// CanCloseVisit reports whether the visit may be closed, with a reason
// when it may not
func (s *LedgerService) CanCloseVisit(ctx context.Context, visitID uuid.UUID) (bool, string, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "can_close_visit",
		telemetry.WithAttribute(telemetry.SpanAttrVisitID, visitID.String()))
	defer span.End()

	ledger, err := s.LoadLedger(ctx, visitID)
	if err != nil {
		telemetry.RecordError(span, err)
		return false, "", err
	}

	ok, reason, err := billing.CanCloseVisit(ledger, s.clock.Now())
	if err != nil {
		telemetry.RecordError(span, err)
		return false, "", err
	}
	return ok, reason, nil
}
