package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/telemetry"
)

// ReconciliationService produces the once-per-day closing snapshot.
// Creation is idempotent per calendar date: the store's date-unique
// index arbitrates concurrent creators, and a loser returns the
// winner's record instead of an error.
type ReconciliationService struct {
	txManager   shared.TransactionManager
	visitRepo   billing.VisitRepository
	paymentRepo billing.PaymentRepository
	walletRepo  billing.WalletTransactionRepository
	reconRepo   billing.ReconciliationRepository
	ledger      *LedgerService
	leakService *LeakDetectionService
	eventBus    shared.EventPublisher
	audit       shared.AuditRecorder
	logger      *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	txManager shared.TransactionManager,
	visitRepo billing.VisitRepository,
	paymentRepo billing.PaymentRepository,
	walletRepo billing.WalletTransactionRepository,
	reconRepo billing.ReconciliationRepository,
	ledger *LedgerService,
	leakService *LeakDetectionService,
	eventBus shared.EventPublisher,
	audit shared.AuditRecorder,
	logger *zap.Logger,
) *ReconciliationService {
	if audit == nil {
		audit = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		txManager:   txManager,
		visitRepo:   visitRepo,
		paymentRepo: paymentRepo,
		walletRepo:  walletRepo,
		reconRepo:   reconRepo,
		ledger:      ledger,
		leakService: leakService,
		eventBus:    eventBus,
		audit:       audit,
		logger:      logger,
	}
}

// dateWindow returns the half-open UTC day window covering date
func dateWindow(date time.Time) (time.Time, time.Time) {
	y, m, d := date.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 0, 1)
}

// CreateReconciliation opens (or returns) the reconciliation for a
// calendar date. When a record for the date already exists it is
// returned unchanged, whatever its status. With closeActiveVisits set,
// every visit still open at the end of the date is closed as part of
// the run and counted in VisitsClosed.
func (s *ReconciliationService) CreateReconciliation(
	ctx context.Context,
	date time.Time,
	preparedBy uuid.UUID,
	closeActiveVisits bool,
) (*billing.DailyReconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "create")
	defer span.End()

	existing, err := s.reconRepo.FindByDate(ctx, date)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to check existing reconciliation: %w", err)
	}
	if existing != nil {
		s.logger.Debug("reconciliation already exists for date, returning it",
			zap.Time("date", existing.Date),
			zap.String("status", existing.Status.String()),
		)
		return existing, nil
	}

	var record *billing.DailyReconciliation
	err = s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		visitsClosed := 0
		if closeActiveVisits {
			visitsClosed, err = s.closeOpenVisits(txCtx, date, preparedBy)
			if err != nil {
				return err
			}
		}

		totals, err := s.computeTotals(txCtx, date)
		if err != nil {
			return err
		}
		totals.VisitsClosed = visitsClosed

		record, err = billing.NewDailyReconciliation(date, preparedBy)
		if err != nil {
			return err
		}
		if err := record.ApplyTotals(totals); err != nil {
			return err
		}

		if err := s.reconRepo.Save(txCtx, record); err != nil {
			if errors.Is(err, shared.ErrAlreadyExists) {
				// Lost the creation race; hand back the winner's row
				winner, findErr := s.reconRepo.FindByDate(txCtx, date)
				if findErr != nil {
					return fmt.Errorf("failed to load winning reconciliation: %w", findErr)
				}
				if winner == nil {
					return err
				}
				record = winner
				return nil
			}
			return fmt.Errorf("failed to save reconciliation: %w", err)
		}

		if s.eventBus != nil {
			if err := s.eventBus.Publish(txCtx, record.GetDomainEvents()...); err != nil {
				s.logger.Warn("failed to publish reconciliation events", zap.Error(err))
			}
		}
		record.ClearDomainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrReconciliationID, record.ID.String())

	if err := s.audit.RecordAudit(ctx, "reconciliation.created", preparedBy, map[string]any{
		"reconciliation_id": record.ID.String(),
		"date":              record.Date.Format("2006-01-02"),
		"total_revenue":     record.TotalRevenue.String(),
		"visits_closed":     record.VisitsClosed,
	}); err != nil {
		s.logger.Warn("failed to record audit for reconciliation creation", zap.Error(err))
	}

	s.logger.Info("daily reconciliation created",
		zap.String("reconciliation_id", record.ID.String()),
		zap.Time("date", record.Date),
		zap.String("total_revenue", record.TotalRevenue.String()),
		zap.Int("visits_closed", record.VisitsClosed),
		zap.Int("leak_count", record.LeakCount),
	)
	return record, nil
}

// closeOpenVisits closes visits still open at the end of the
// reconciliation date. Bounded by the day window: a backdated run must
// not close encounters opened after that day ended.
func (s *ReconciliationService) closeOpenVisits(ctx context.Context, date time.Time, closedBy uuid.UUID) (int, error) {
	_, end := dateWindow(date)
	open, err := s.visitRepo.FindOpenAsOf(ctx, end)
	if err != nil {
		return 0, fmt.Errorf("failed to load open visits: %w", err)
	}

	closed := 0
	for _, visit := range open {
		if err := visit.Close(closedBy); err != nil {
			return 0, err
		}
		if err := s.visitRepo.Save(ctx, visit); err != nil {
			return 0, fmt.Errorf("failed to save visit %s: %w", visit.VisitNumber, err)
		}
		visit.ClearDomainEvents()
		closed++
	}
	return closed, nil
}

// computeTotals builds the financial snapshot for the date window
func (s *ReconciliationService) computeTotals(ctx context.Context, date time.Time) (billing.ReconciliationTotals, error) {
	start, end := dateWindow(date)

	byMethod, err := s.paymentRepo.SumClearedByMethodBetween(ctx, start, end)
	if err != nil {
		return billing.ReconciliationTotals{}, fmt.Errorf("failed to sum cleared payments: %w", err)
	}
	channels := billing.ChannelTotals{}
	for method, amount := range byMethod {
		channel := method.ReconciliationChannel()
		channels[channel] = channels[channel].Add(amount)
	}

	walletDebits, err := s.walletRepo.SumCompletedDebitsBetween(ctx, start, end)
	if err != nil {
		return billing.ReconciliationTotals{}, fmt.Errorf("failed to sum wallet debits: %w", err)
	}
	if !walletDebits.IsZero() {
		channels["wallet"] = channels["wallet"].Add(walletDebits)
	}

	if _, err := s.leakService.DetectAll(ctx); err != nil {
		return billing.ReconciliationTotals{}, err
	}
	leaks, err := s.leakService.DailyAggregation(ctx, date)
	if err != nil {
		return billing.ReconciliationTotals{}, err
	}

	touched, err := s.visitRepo.FindTouchedBetween(ctx, start, end)
	if err != nil {
		return billing.ReconciliationTotals{}, fmt.Errorf("failed to load touched visits: %w", err)
	}

	outstandingTotal := decimal.Zero
	outstandingVisits := 0
	for _, visit := range touched {
		summary, err := s.ledger.ComputeSummary(ctx, visit.ID)
		if err != nil {
			return billing.ReconciliationTotals{}, err
		}
		if summary.OutstandingBalance.IsPositive() {
			outstandingTotal = outstandingTotal.Add(summary.OutstandingBalance)
			outstandingVisits++
		}
	}

	return billing.ReconciliationTotals{
		RevenueByChannel:      channels,
		OutstandingTotal:      outstandingTotal,
		OutstandingVisitCount: outstandingVisits,
		VisitsTouched:         len(touched),
		LeakCount:             leaks.TotalLeaks,
		LeakAmount:            leaks.TotalEstimatedLoss,
	}, nil
}

// Refresh recomputes a draft reconciliation's totals. Rejected once the
// record has left draft status.
func (s *ReconciliationService) Refresh(ctx context.Context, recordID uuid.UUID) (*billing.DailyReconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "refresh",
		telemetry.WithAttribute(telemetry.SpanAttrReconciliationID, recordID.String()))
	defer span.End()

	var record *billing.DailyReconciliation
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		record, err = s.reconRepo.FindByID(txCtx, recordID)
		if err != nil {
			return fmt.Errorf("failed to load reconciliation: %w", err)
		}
		if record == nil {
			return shared.ErrNotFound
		}

		totals, err := s.computeTotals(txCtx, record.Date)
		if err != nil {
			return err
		}
		totals.VisitsClosed = record.VisitsClosed

		if err := record.ApplyTotals(totals); err != nil {
			return err
		}
		if err := s.reconRepo.Save(txCtx, record); err != nil {
			return fmt.Errorf("failed to save reconciliation: %w", err)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return record, nil
}

// MarkReviewed records the optional review step before finalization
func (s *ReconciliationService) MarkReviewed(ctx context.Context, recordID, reviewedBy uuid.UUID) (*billing.DailyReconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "mark_reviewed",
		telemetry.WithAttribute(telemetry.SpanAttrReconciliationID, recordID.String()))
	defer span.End()

	record, err := s.reconRepo.FindByID(ctx, recordID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load reconciliation: %w", err)
	}
	if record == nil {
		telemetry.RecordError(span, shared.ErrNotFound)
		return nil, shared.ErrNotFound
	}

	if err := record.MarkReviewed(reviewedBy); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.reconRepo.Save(ctx, record); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save reconciliation: %w", err)
	}
	return record, nil
}

// Finalize freezes the reconciliation and settles the day's cleared,
// closed visits. Finalizing an already-finalized record is an
// idempotent no-op returning it unchanged.
func (s *ReconciliationService) Finalize(ctx context.Context, recordID, finalizedBy uuid.UUID, notes string) (*billing.DailyReconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "finalize",
		telemetry.WithAttribute(telemetry.SpanAttrReconciliationID, recordID.String()))
	defer span.End()

	var record *billing.DailyReconciliation
	alreadyFinalized := false
	err := s.txManager.WithinTransaction(ctx, func(txCtx context.Context) error {
		var err error
		record, err = s.reconRepo.FindByID(txCtx, recordID)
		if err != nil {
			return fmt.Errorf("failed to load reconciliation: %w", err)
		}
		if record == nil {
			return shared.ErrNotFound
		}
		if record.IsFinalized() {
			alreadyFinalized = true
			return nil
		}

		if err := record.Finalize(finalizedBy, notes); err != nil {
			return err
		}
		if err := s.reconRepo.Save(txCtx, record); err != nil {
			return fmt.Errorf("failed to save reconciliation: %w", err)
		}

		if err := s.settleClearedVisits(txCtx, record.Date); err != nil {
			return err
		}

		if s.eventBus != nil {
			if err := s.eventBus.Publish(txCtx, record.GetDomainEvents()...); err != nil {
				s.logger.Warn("failed to publish reconciliation events", zap.Error(err))
			}
		}
		record.ClearDomainEvents()
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if alreadyFinalized {
		s.logger.Debug("reconciliation already finalized, skipping",
			zap.String("reconciliation_id", recordID.String()),
		)
		return record, nil
	}

	if err := s.audit.RecordAudit(ctx, "reconciliation.finalized", finalizedBy, map[string]any{
		"reconciliation_id": record.ID.String(),
		"date":              record.Date.Format("2006-01-02"),
		"total_revenue":     record.TotalRevenue.String(),
		"outstanding_total": record.OutstandingTotal.String(),
	}); err != nil {
		s.logger.Warn("failed to record audit for reconciliation finalization", zap.Error(err))
	}

	s.logger.Info("daily reconciliation finalized",
		zap.String("reconciliation_id", record.ID.String()),
		zap.Time("date", record.Date),
	)
	return record, nil
}

// settleClearedVisits marks the day's cleared, closed visits as settled
func (s *ReconciliationService) settleClearedVisits(ctx context.Context, date time.Time) error {
	start, end := dateWindow(date)
	touched, err := s.visitRepo.FindTouchedBetween(ctx, start, end)
	if err != nil {
		return fmt.Errorf("failed to load touched visits: %w", err)
	}

	for _, visit := range touched {
		if !visit.IsClosed() || !visit.PaymentStatus.IsCleared() {
			continue
		}
		changed, err := visit.MarkSettled()
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		if err := s.visitRepo.Save(ctx, visit); err != nil {
			return fmt.Errorf("failed to save visit %s: %w", visit.VisitNumber, err)
		}
		visit.ClearDomainEvents()
	}
	return nil
}

// Cancel abandons a reconciliation opened in error
func (s *ReconciliationService) Cancel(ctx context.Context, recordID, cancelledBy uuid.UUID, reason string) (*billing.DailyReconciliation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reconciliation", "cancel",
		telemetry.WithAttribute(telemetry.SpanAttrReconciliationID, recordID.String()))
	defer span.End()

	record, err := s.reconRepo.FindByID(ctx, recordID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load reconciliation: %w", err)
	}
	if record == nil {
		telemetry.RecordError(span, shared.ErrNotFound)
		return nil, shared.ErrNotFound
	}

	if err := record.Cancel(cancelledBy, reason); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.reconRepo.Save(ctx, record); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save reconciliation: %w", err)
	}

	if err := s.audit.RecordAudit(ctx, "reconciliation.cancelled", cancelledBy, map[string]any{
		"reconciliation_id": record.ID.String(),
		"reason":            reason,
	}); err != nil {
		s.logger.Warn("failed to record audit for reconciliation cancellation", zap.Error(err))
	}

	return record, nil
}

// UpdateNotes edits the notes field; the one write allowed after
// finalization
func (s *ReconciliationService) UpdateNotes(ctx context.Context, recordID uuid.UUID, notes string) (*billing.DailyReconciliation, error) {
	record, err := s.reconRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reconciliation: %w", err)
	}
	if record == nil {
		return nil, shared.ErrNotFound
	}

	record.UpdateNotes(notes)
	if err := s.reconRepo.Save(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to save reconciliation: %w", err)
	}
	return record, nil
}
