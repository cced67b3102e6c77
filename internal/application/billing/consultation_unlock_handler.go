package billing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/clinical"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

// ConsultationUnlockHandler consumes ChargePaidEvent and activates the
// payment-gated consultation linked to the charge, assigning the
// patient's last attending doctor when none is assigned yet.
// Re-entrant: an already-active consultation is a no-op, so
// re-delivered events cause no double effect.
type ConsultationUnlockHandler struct {
	consultationRepo clinical.ConsultationRepository
	logger           *zap.Logger
}

// NewConsultationUnlockHandler creates a new handler for charge paid events
func NewConsultationUnlockHandler(
	consultationRepo clinical.ConsultationRepository,
	logger *zap.Logger,
) *ConsultationUnlockHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsultationUnlockHandler{
		consultationRepo: consultationRepo,
		logger:           logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ConsultationUnlockHandler) EventTypes() []string {
	return []string{billing.EventTypeChargePaid}
}

// Handle unlocks the consultation gated on the paid charge
func (h *ConsultationUnlockHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paidEvent, ok := event.(*billing.ChargePaidEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", billing.EventTypeChargePaid),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			billing.EventTypeChargePaid, event.EventType())
	}

	if paidEvent.ConsultationID == nil {
		// Nothing gated on this charge
		return nil
	}

	consultation, err := h.consultationRepo.FindByID(ctx, *paidEvent.ConsultationID)
	if err != nil {
		return fmt.Errorf("failed to load consultation: %w", err)
	}
	if consultation == nil {
		h.logger.Warn("charge references a missing consultation",
			zap.String("charge_id", paidEvent.ChargeID.String()),
			zap.String("consultation_id", paidEvent.ConsultationID.String()),
		)
		return nil
	}

	doctorID := uuid.Nil
	if consultation.DoctorID == nil && !consultation.IsActive() {
		lastDoctor, err := h.consultationRepo.FindLastAttendingDoctor(ctx, consultation.PatientID)
		if err != nil {
			return fmt.Errorf("failed to look up attending doctor: %w", err)
		}
		if lastDoctor != nil {
			doctorID = *lastDoctor
		} else {
			h.logger.Warn("patient has no prior attending doctor, consultation activates unassigned",
				zap.String("consultation_id", consultation.ID.String()),
				zap.String("patient_id", consultation.PatientID.String()),
			)
		}
	}

	changed, err := consultation.Activate(doctorID)
	if err != nil {
		return fmt.Errorf("failed to activate consultation: %w", err)
	}
	if !changed {
		h.logger.Debug("consultation already active, skipping",
			zap.String("consultation_id", consultation.ID.String()),
		)
		return nil
	}

	if err := h.consultationRepo.Save(ctx, consultation); err != nil {
		return fmt.Errorf("failed to save consultation: %w", err)
	}
	consultation.ClearDomainEvents()

	h.logger.Info("consultation unlocked by payment",
		zap.String("consultation_id", consultation.ID.String()),
		zap.String("charge_id", paidEvent.ChargeID.String()),
		zap.String("visit_id", paidEvent.VisitID.String()),
	)
	return nil
}

var _ shared.EventHandler = (*ConsultationUnlockHandler)(nil)
