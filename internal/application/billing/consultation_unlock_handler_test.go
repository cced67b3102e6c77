package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/clinical"
)

func newTestChargePaidEvent(t *testing.T, consultationID *uuid.UUID) (*billing.ChargePaidEvent, *billing.Charge) {
	t.Helper()
	visit := newTestVisit()
	charge := newTestCharge(visit, "CONS-GEN", 5000)
	if consultationID != nil {
		require.NoError(t, charge.LinkConsultation(*consultationID))
	}
	changed, err := charge.MarkPaid(billing.PaymentMethodCash)
	require.NoError(t, err)
	require.True(t, changed)

	events := charge.GetDomainEvents()
	require.NotEmpty(t, events)
	paid, ok := events[len(events)-1].(*billing.ChargePaidEvent)
	require.True(t, ok)
	charge.ClearDomainEvents()
	return paid, charge
}

func TestConsultationUnlockHandler_EventTypes(t *testing.T) {
	handler := NewConsultationUnlockHandler(new(MockConsultationRepository), newTestLogger())
	assert.Equal(t, []string{billing.EventTypeChargePaid}, handler.EventTypes())
}

func TestConsultationUnlockHandler_Handle_Success(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockConsultationRepository)
	handler := NewConsultationUnlockHandler(mockRepo, newTestLogger())

	consultation, err := clinical.NewConsultation(uuid.New(), uuid.New(), "headache")
	require.NoError(t, err)
	event, _ := newTestChargePaidEvent(t, &consultation.ID)

	// Unassigned consultation picks up the patient's last attending doctor
	lastDoctor := uuid.New()
	mockRepo.On("FindByID", ctx, consultation.ID).Return(consultation, nil)
	mockRepo.On("FindLastAttendingDoctor", ctx, consultation.PatientID).Return(&lastDoctor, nil)
	mockRepo.On("Save", ctx, consultation).Return(nil)

	err = handler.Handle(ctx, event)

	require.NoError(t, err)
	assert.True(t, consultation.IsActive())
	require.NotNil(t, consultation.DoctorID)
	assert.Equal(t, lastDoctor, *consultation.DoctorID)
	mockRepo.AssertExpectations(t)
}

func TestConsultationUnlockHandler_Handle_NoPriorDoctorActivatesUnassigned(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockConsultationRepository)
	handler := NewConsultationUnlockHandler(mockRepo, newTestLogger())

	consultation, err := clinical.NewConsultation(uuid.New(), uuid.New(), "first visit")
	require.NoError(t, err)
	event, _ := newTestChargePaidEvent(t, &consultation.ID)

	mockRepo.On("FindByID", ctx, consultation.ID).Return(consultation, nil)
	mockRepo.On("FindLastAttendingDoctor", ctx, consultation.PatientID).Return(nil, nil)
	mockRepo.On("Save", ctx, consultation).Return(nil)

	err = handler.Handle(ctx, event)

	require.NoError(t, err)
	assert.True(t, consultation.IsActive())
	assert.Nil(t, consultation.DoctorID)
}

func TestConsultationUnlockHandler_Handle_PreassignedDoctorKept(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockConsultationRepository)
	handler := NewConsultationUnlockHandler(mockRepo, newTestLogger())

	consultation, err := clinical.NewConsultation(uuid.New(), uuid.New(), "follow-up")
	require.NoError(t, err)
	assigned := uuid.New()
	require.NoError(t, consultation.AssignDoctor(assigned))
	event, _ := newTestChargePaidEvent(t, &consultation.ID)

	mockRepo.On("FindByID", ctx, consultation.ID).Return(consultation, nil)
	mockRepo.On("Save", ctx, consultation).Return(nil)

	err = handler.Handle(ctx, event)

	require.NoError(t, err)
	require.NotNil(t, consultation.DoctorID)
	assert.Equal(t, assigned, *consultation.DoctorID)
	mockRepo.AssertNotCalled(t, "FindLastAttendingDoctor")
}

func TestConsultationUnlockHandler_Handle_DoctorLookupError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockConsultationRepository)
	handler := NewConsultationUnlockHandler(mockRepo, newTestLogger())

	consultation, err := clinical.NewConsultation(uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	event, _ := newTestChargePaidEvent(t, &consultation.ID)

	mockRepo.On("FindByID", ctx, consultation.ID).Return(consultation, nil)
	mockRepo.On("FindLastAttendingDoctor", ctx, consultation.PatientID).
		Return(nil, errors.New("db error"))

	err = handler.Handle(ctx, event)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to look up attending doctor")
	mockRepo.AssertNotCalled(t, "Save")
}

func TestConsultationUnlockHandler_Handle_WrongEventType(t *testing.T) {
	ctx := context.Background()
	handler := NewConsultationUnlockHandler(new(MockConsultationRepository), newTestLogger())

	visit := newTestVisit()
	charge := newTestCharge(visit, "LAB-CBC", 3500)
	wrongEvent := billing.NewChargeCreatedEvent(charge)

	err := handler.Handle(ctx, wrongEvent)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected event type")
}

func TestConsultationUnlockHandler_Handle_NoConsultationLinked(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockConsultationRepository)
	handler := NewConsultationUnlockHandler(mockRepo, newTestLogger())

	event, _ := newTestChargePaidEvent(t, nil)

	err := handler.Handle(ctx, event)

	require.NoError(t, err)
	mockRepo.AssertNotCalled(t, "FindByID")
}

func TestConsultationUnlockHandler_Handle_MissingConsultation(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockConsultationRepository)
	handler := NewConsultationUnlockHandler(mockRepo, newTestLogger())

	consultationID := uuid.New()
	event, _ := newTestChargePaidEvent(t, &consultationID)

	mockRepo.On("FindByID", ctx, consultationID).Return(nil, nil)

	err := handler.Handle(ctx, event)

	// Logged, not failed: a missing consultation must not poison redelivery
	require.NoError(t, err)
	mockRepo.AssertNotCalled(t, "Save")
}

func TestConsultationUnlockHandler_Handle_AlreadyActiveIsNoOp(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockConsultationRepository)
	handler := NewConsultationUnlockHandler(mockRepo, newTestLogger())

	consultation, err := clinical.NewConsultation(uuid.New(), uuid.New(), "")
	require.NoError(t, err)
	changed, err := consultation.Activate(uuid.New())
	require.NoError(t, err)
	require.True(t, changed)
	consultation.ClearDomainEvents()

	event, _ := newTestChargePaidEvent(t, &consultation.ID)
	mockRepo.On("FindByID", ctx, consultation.ID).Return(consultation, nil)

	err = handler.Handle(ctx, event)

	require.NoError(t, err)
	mockRepo.AssertNotCalled(t, "Save")
}

func TestConsultationUnlockHandler_Handle_RepositoryError(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockConsultationRepository)
	handler := NewConsultationUnlockHandler(mockRepo, newTestLogger())

	consultationID := uuid.New()
	event, _ := newTestChargePaidEvent(t, &consultationID)

	mockRepo.On("FindByID", ctx, consultationID).Return(nil, errors.New("db error"))

	err := handler.Handle(ctx, event)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load consultation")
}
