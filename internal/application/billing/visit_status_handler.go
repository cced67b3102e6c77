package billing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// VisitStatusHandler consumes ChargePaidEvent and refreshes the visit's
// payment status through the ledger aggregator. The derived status is
// persisted only when it differs from the stored value, so redelivery
// is harmless.
type VisitStatusHandler struct {
	ledger    *LedgerService
	visitRepo billing.VisitRepository
	logger    *zap.Logger
}

// NewVisitStatusHandler creates a new handler for charge paid events
func NewVisitStatusHandler(
	ledger *LedgerService,
	visitRepo billing.VisitRepository,
	logger *zap.Logger,
) *VisitStatusHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitStatusHandler{
		ledger:    ledger,
		visitRepo: visitRepo,
		logger:    logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *VisitStatusHandler) EventTypes() []string {
	return []string{billing.EventTypeChargePaid}
}

// Handle recomputes and persists the visit's payment status
func (h *VisitStatusHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paidEvent, ok := event.(*billing.ChargePaidEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", billing.EventTypeChargePaid),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			billing.EventTypeChargePaid, event.EventType())
	}

	ledger, err := h.ledger.LoadLedger(ctx, paidEvent.VisitID)
	if err != nil {
		return fmt.Errorf("failed to load visit ledger: %w", err)
	}
	summary, err := billing.ComputeSummary(ledger, h.ledger.clock.Now())
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

	if err := h.visitRepo.Save(ctx, ledger.Visit); err != nil {
		return fmt.Errorf("failed to save visit: %w", err)
	}
	ledger.Visit.ClearDomainEvents()

	h.logger.Info("visit payment status refreshed",
		zap.String("visit_id", paidEvent.VisitID.String()),
		zap.String("payment_status", summary.PaymentStatus.String()),
	)
	return nil
}

var _ shared.EventHandler = (*VisitStatusHandler)(nil)
