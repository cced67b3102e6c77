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
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/clinical"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/infrastructure/telemetry"
)

// LeakDetectionService finds completed clinical work with no paid
// charge behind it. Detection is idempotent per entity: the store's
// partial unique index over unresolved (entity_type, entity_id) is the
// concurrency primitive, and a race loser converges on the winner's
// record.
type LeakDetectionService struct {
	actionRepo clinical.ActionRepository
	chargeRepo billing.ChargeRepository
	leakRepo   billing.LeakRecordRepository
	eventBus   shared.EventPublisher
	audit      shared.AuditRecorder
	logger     *zap.Logger
}

// NewLeakDetectionService creates a new LeakDetectionService
func NewLeakDetectionService(
	actionRepo clinical.ActionRepository,
	chargeRepo billing.ChargeRepository,
	leakRepo billing.LeakRecordRepository,
	eventBus shared.EventPublisher,
	audit shared.AuditRecorder,
	logger *zap.Logger,
) *LeakDetectionService {
	if audit == nil {
		audit = shared.NopAuditRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeakDetectionService{
		actionRepo: actionRepo,
		chargeRepo: chargeRepo,
		leakRepo:   leakRepo,
		eventBus:   eventBus,
		audit:      audit,
		logger:     logger,
	}
}

// DetectAllResult summarizes one full sweep
type DetectAllResult struct {
	LeaksDetected int             `json:"leaks_detected"`
	EstimatedLoss decimal.Decimal `json:"estimated_loss"`
	Records       []*billing.LeakRecord
}

// LeakDailyAggregation is a pure read over leak records detected on one date
type LeakDailyAggregation struct {
	Date               time.Time                      `json:"date"`
	TotalLeaks         int                            `json:"total_leaks"`
	TotalEstimatedLoss decimal.Decimal                `json:"total_estimated_loss"`
	ResolvedCount      int                            `json:"resolved_count"`
	UnresolvedCount    int                            `json:"unresolved_count"`
	ByEntityType       map[billing.LeakEntityType]int `json:"by_entity_type"`
}

// DetectLeak checks one clinical entity for a missing paid charge.
// Returns (nil, nil) when there is nothing to record: the action is
// emergency-exempt, or a paid charge exists. Re-invoking for an entity
// with an open leak returns the existing record.
func (s *LeakDetectionService) DetectLeak(ctx context.Context, entityType billing.LeakEntityType, entityID uuid.UUID) (*billing.LeakRecord, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "leak_detector", "detect_leak",
		telemetry.WithAttribute(telemetry.SpanAttrEntityType, entityType.String()),
		telemetry.WithAttribute(telemetry.SpanAttrEntityID, entityID.String()))
	defer span.End()

	if !entityType.IsValid() {
		err := shared.NewDomainError("INVALID_ENTITY_TYPE", fmt.Sprintf("Leak entity type %q is not valid", entityType))
		telemetry.RecordError(span, err)
		return nil, err
	}

	action, err := s.actionRepo.FindByEntity(ctx, clinical.ActionType(entityType), entityID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load clinical action: %w", err)
	}
	if action == nil {
		telemetry.RecordError(span, shared.ErrNotFound)
		return nil, shared.ErrNotFound
	}

	record, err := s.detectForAction(ctx, entityType, action)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	return record, nil
}

// detectForAction runs leak detection for one loaded action
func (s *LeakDetectionService) detectForAction(ctx context.Context, entityType billing.LeakEntityType, action *clinical.Action) (*billing.LeakRecord, error) {
	if !action.IsBillable() {
		s.logger.Debug("emergency-override action exempt from leak detection",
			zap.String("entity_id", action.ID.String()),
		)
		return nil, nil
	}

	existing, err := s.leakRepo.FindUnresolvedByEntity(ctx, entityType, action.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing leak: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	paid, err := s.chargeRepo.ExistsPaidForService(ctx, action.VisitID, action.ServiceCode)
	if err != nil {
		return nil, fmt.Errorf("failed to check paid charge: %w", err)
	}
	if paid {
		return nil, nil
	}

	record, err := billing.NewLeakRecord(entityType, action.ID, action.VisitID, action.ServiceCode, action.GetEstimatedAmountMoney())
	if err != nil {
		return nil, err
	}

	if err := s.leakRepo.Save(ctx, record); err != nil {
		if errors.Is(err, shared.ErrAlreadyExists) {
			// Lost the race; converge on the winner's record
			winner, findErr := s.leakRepo.FindUnresolvedByEntity(ctx, entityType, action.ID)
			if findErr != nil {
				return nil, fmt.Errorf("failed to load winning leak record: %w", findErr)
			}
			return winner, nil
		}
		return nil, fmt.Errorf("failed to save leak record: %w", err)
	}

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, record.GetDomainEvents()...); err != nil {
			s.logger.Warn("failed to publish leak events", zap.Error(err))
		}
	}
	record.ClearDomainEvents()

	s.logger.Info("revenue leak detected",
		zap.String("entity_type", entityType.String()),
		zap.String("entity_id", action.ID.String()),
		zap.String("visit_id", action.VisitID.String()),
		zap.String("service_code", action.ServiceCode),
		zap.String("estimated_amount", record.EstimatedAmount.String()),
	)
	return record, nil
}

// DetectAll sweeps every billable action type for missing paid charges
func (s *LeakDetectionService) DetectAll(ctx context.Context) (DetectAllResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "leak_detector", "detect_all")
	defer span.End()

	result := DetectAllResult{EstimatedLoss: decimal.Zero}

	for _, actionType := range clinical.AllActionTypes {
		actions, err := s.actionRepo.FindBillableByType(ctx, actionType)
		if err != nil {
			telemetry.RecordError(span, err)
			return DetectAllResult{}, fmt.Errorf("failed to load %s actions: %w", actionType, err)
		}

		entityType := billing.LeakEntityType(actionType)
		for _, action := range actions {
			record, err := s.detectForAction(ctx, entityType, action)
			if err != nil {
				telemetry.RecordError(span, err)
				return DetectAllResult{}, err
			}
			if record == nil {
				continue
			}
			result.LeaksDetected++
			result.EstimatedLoss = result.EstimatedLoss.Add(record.EstimatedAmount)
			result.Records = append(result.Records, record)
		}
	}

	telemetry.SetAttributes(span,
		"leaks_detected", result.LeaksDetected,
		telemetry.SpanAttrAmount, result.EstimatedLoss.String(),
	)
	return result, nil
}

// Resolve closes a leak. The only close path; resolver identity and
// notes are mandatory and audited.
func (s *LeakDetectionService) Resolve(ctx context.Context, leakID, resolvedBy uuid.UUID, notes string) (*billing.LeakRecord, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "leak_detector", "resolve",
		telemetry.WithAttribute(telemetry.SpanAttrLeakID, leakID.String()))
	defer span.End()

	record, err := s.leakRepo.FindByID(ctx, leakID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load leak record: %w", err)
	}
	if record == nil {
		telemetry.RecordError(span, shared.ErrNotFound)
		return nil, shared.ErrNotFound
	}

	if err := record.Resolve(resolvedBy, notes); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if err := s.leakRepo.Save(ctx, record); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to save leak record: %w", err)
	}

	if s.eventBus != nil {
		if err := s.eventBus.Publish(ctx, record.GetDomainEvents()...); err != nil {
			s.logger.Warn("failed to publish leak events", zap.Error(err))
		}
	}
	record.ClearDomainEvents()

	if err := s.audit.RecordAudit(ctx, "leak.resolved", resolvedBy, map[string]any{
		"leak_id":     leakID.String(),
		"entity_type": record.EntityType.String(),
		"entity_id":   record.EntityID.String(),
		"notes":       notes,
	}); err != nil {
		s.logger.Warn("failed to record audit for leak resolution", zap.Error(err))
	}

	return record, nil
}

// DailyAggregation summarizes leak records detected on the given date
func (s *LeakDetectionService) DailyAggregation(ctx context.Context, date time.Time) (LeakDailyAggregation, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "leak_detector", "daily_aggregation")
	defer span.End()

	y, m, d := date.UTC().Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	records, err := s.leakRepo.FindDetectedBetween(ctx, start, end)
	if err != nil {
		telemetry.RecordError(span, err)
		return LeakDailyAggregation{}, fmt.Errorf("failed to load leak records: %w", err)
	}

	agg := LeakDailyAggregation{
		Date:               start,
		TotalEstimatedLoss: decimal.Zero,
		ByEntityType:       make(map[billing.LeakEntityType]int),
	}
	for _, record := range records {
		agg.TotalLeaks++
		agg.TotalEstimatedLoss = agg.TotalEstimatedLoss.Add(record.EstimatedAmount)
		agg.ByEntityType[record.EntityType]++
		if record.IsResolved() {
			agg.ResolvedCount++
		} else {
			agg.UnresolvedCount++
		}
	}
	return agg, nil
}
