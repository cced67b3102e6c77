package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/telemetry"
)

// PaymentConfirmationService drives the payment confirmation pipeline.
//
// ConfirmCharge is the single entry point for the UNPAID -> PAID
// transition. The charge write and the event dispatch run inside one
// database transaction, so the persisted status and the handler side
// effects (consultation unlock, visit status refresh) land together.
// A handler failure is logged and swallowed by the bus; the payment
// write itself is never reverted by a workflow defect.
type PaymentConfirmationService struct {
	txManager   shared.TransactionManager
	visitRepo   billing.VisitRepository
	chargeRepo  billing.ChargeRepository
	paymentRepo billing.PaymentRepository
	ledger      *LedgerService
	eventBus    shared.EventPublisher
	audit       shared.AuditRecorder
	logger      *zap.Logger
}

// NewPaymentConfirmationService creates a new PaymentConfirmationService
func NewPaymentConfirmationService(
	txManager shared.TransactionManager,
	visitRepo billing.VisitRepository,
	chargeRepo billing.ChargeRepository,
	paymentRepo billing.PaymentRepository,
	ledger *LedgerService,
	eventBus shared.EventPublisher,
	audit shared.AuditRecorder,
	logger *zap.Logger,
) *PaymentConfirmationService {
	if audit == nil {
		audit = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentConfirmationService{
		txManager:   txManager,
		visitRepo:   visitRepo,
		chargeRepo:  chargeRepo,
		paymentRepo: paymentRepo,
		ledger:      ledger,
		eventBus:    eventBus,
		audit:       audit,
		logger:      logger,
	}
}

// ConfirmCharge transitions a charge to paid and dispatches the
// ChargePaidEvent. Confirming an already-paid charge is an idempotent
// no-op returning the charge unchanged, with no event.
func (s *PaymentConfirmationService) ConfirmCharge(
	ctx context.Context,
	chargeID uuid.UUID,
	method billing.PaymentMethod,
	actor uuid.UUID,
) (*billing.Charge, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_pipeline", "confirm_charge",
		telemetry.WithAttribute(telemetry.SpanAttrChargeID, chargeID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrPaymentMethod, method.String()))
	defer span.End()

	var confirmed *billing.Charge
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		charge, err := s.chargeRepo.FindByID(txCtx, chargeID)
		if err != nil {
			return fmt.Errorf("failed to load charge: %w", err)
		}
		if charge == nil {
			return shared.ErrNotFound
		}

		changed, err := charge.MarkPaid(method)
		if err != nil {
			return err
		}
		if !changed {
			s.logger.Debug("charge already paid, skipping",
				zap.String("charge_id", chargeID.String()),
			)
			confirmed = charge
			return nil
		}

		if err := s.chargeRepo.Save(txCtx, charge); err != nil {
			return fmt.Errorf("failed to save charge: %w", err)
		}

		// Dispatch inside the transaction: handler writes join it
		if err := s.eventBus.Publish(txCtx, charge.GetDomainEvents()...); err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}
		charge.ClearDomainEvents()

		confirmed = charge
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if err := s.audit.RecordAudit(ctx, "charge.confirmed", actor, map[string]any{
		"charge_id":    chargeID.String(),
		"visit_id":     confirmed.VisitID.String(),
		"service_code": confirmed.ServiceCode,
		"amount":       confirmed.Amount.String(),
		"method":       method.String(),
	}); err != nil {
		s.logger.Warn("failed to record audit for charge confirmation", zap.Error(err))
	}

	return confirmed, nil
}

// RecordPayment validates and records a pending payment against a visit
func (s *PaymentConfirmationService) RecordPayment(
	ctx context.Context,
	visitID uuid.UUID,
	amount decimal.Decimal,
	method billing.PaymentMethod,
	externalReference string,
	receivedBy uuid.UUID,
) (*billing.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_pipeline", "record_payment",
		telemetry.WithAttribute(telemetry.SpanAttrVisitID, visitID.String()),
		telemetry.WithAttribute(telemetry.SpanAttrAmount, amount.String()))
	defer span.End()

	var payment *billing.Payment
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		ledger, err := s.ledger.LoadLedger(txCtx, visitID)
		if err != nil {
			return err
		}
		if err := billing.ValidatePaymentAmount(ledger, amount, s.ledger.clock.Now()); err != nil {
			return err
		}

		payment, err = billing.NewPayment(ledger.Visit, valueobject.NewMoneyNGN(amount), method, externalReference, receivedBy)
		if err != nil {
			return err
		}
		if err := s.paymentRepo.Save(txCtx, payment); err != nil {
			return fmt.Errorf("failed to save payment: %w", err)
		}
		payment.ClearDomainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return payment, nil
}

// ClearPayment marks a payment's funds as settled and refreshes the
// visit's payment status. Gateway verification happens before this
// call; the pipeline only consumes its outcome.
func (s *PaymentConfirmationService) ClearPayment(ctx context.Context, paymentID uuid.UUID) (*billing.Payment, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment_pipeline", "clear_payment",
		telemetry.WithAttribute("payment_id", paymentID.String()))
	defer span.End()

	var cleared *billing.Payment
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		payment, err := s.paymentRepo.FindByID(txCtx, paymentID)
		if err != nil {
			return fmt.Errorf("failed to load payment: %w", err)
		}
		if payment == nil {
			return shared.ErrNotFound
		}

		changed, err := payment.MarkCleared()
		if err != nil {
			return err
		}
		if changed {
			if err := s.paymentRepo.Save(txCtx, payment); err != nil {
				return fmt.Errorf("failed to save payment: %w", err)
			}
			if err := s.refreshVisitStatus(txCtx, payment.VisitID); err != nil {
				return err
			}
		}
		payment.ClearDomainEvents()
		cleared = payment
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return cleared, nil
}

// refreshVisitStatus recomputes and persists the visit payment status,
// writing only on change
func (s *PaymentConfirmationService) refreshVisitStatus(ctx context.Context, visitID uuid.UUID) error {
	ledger, err := s.ledger.LoadLedger(ctx, visitID)
	if err != nil {
		return err
	}
	summary, err := billing.ComputeSummary(ledger, s.ledger.clock.Now())
	if err != nil {
		return err
	}

	changed, err := ledger.Visit.UpdatePaymentStatus(summary.PaymentStatus)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if err := s.visitRepo.Save(ctx, ledger.Visit); err != nil {
		return fmt.Errorf("failed to save visit: %w", err)
	}
	ledger.Visit.ClearDomainEvents()
	return nil
}
