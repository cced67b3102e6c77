package clinical

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ConsultationRepository defines persistence operations for consultations
type ConsultationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Consultation, error)
	FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*Consultation, error)
	// FindLastAttendingDoctor returns the doctor who most recently
	// attended the patient, or nil when no prior consultation carries an
	// assignment. Default assignee for payment-unlocked consultations.
	FindLastAttendingDoctor(ctx context.Context, patientID uuid.UUID) (*uuid.UUID, error)
	Save(ctx context.Context, consultation *Consultation) error
}

// ActionRepository defines read operations over completed clinical actions
type ActionRepository interface {
	FindByEntity(ctx context.Context, actionType ActionType, entityID uuid.UUID) (*Action, error)
	// FindBillable returns completed actions subject to leak detection,
	// excluding emergency-override work.
	FindBillable(ctx context.Context) ([]*Action, error)
	FindBillableByType(ctx context.Context, actionType ActionType) ([]*Action, error)
	FindCompletedBetween(ctx context.Context, start, end time.Time) ([]*Action, error)
	Save(ctx context.Context, action *Action) error
}
