package billing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/clinical"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

type leakFixture struct {
	actionRepo *MockActionRepository
	chargeRepo *MockChargeRepository
	leakRepo   *MockLeakRecordRepository
	bus        *capturingEventBus
	audit      *capturingAuditRecorder
	service    *LeakDetectionService
}

func newLeakFixture() *leakFixture {
	f := &leakFixture{
		actionRepo: new(MockActionRepository),
		chargeRepo: new(MockChargeRepository),
		leakRepo:   new(MockLeakRecordRepository),
		bus:        &capturingEventBus{},
		audit:      &capturingAuditRecorder{},
	}
	f.service = NewLeakDetectionService(f.actionRepo, f.chargeRepo, f.leakRepo, f.bus, f.audit, newTestLogger())
	return f
}

func TestDetectLeak_CreatesRecord(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	action := newTestAction(clinical.ActionTypeLabResult, uuid.New(), "LAB-CBC", 3500, false)

	f.actionRepo.On("FindByEntity", mock.Anything, clinical.ActionTypeLabResult, action.ID).Return(action, nil)
	f.leakRepo.On("FindUnresolvedByEntity", mock.Anything, billing.LeakEntityLabResult, action.ID).Return(nil, nil)
	f.chargeRepo.On("ExistsPaidForService", mock.Anything, action.VisitID, "LAB-CBC").Return(false, nil)

	var saved *billing.LeakRecord
	f.leakRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.LeakRecord")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*billing.LeakRecord)
	}).Return(nil)

	record, err := f.service.DetectLeak(ctx, billing.LeakEntityLabResult, action.ID)

	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, saved, record)
	assert.Equal(t, billing.LeakEntityLabResult, record.EntityType)
	assert.Equal(t, action.ID, record.EntityID)
	assert.Equal(t, action.VisitID, record.VisitID)
	assert.True(t, record.EstimatedAmount.Equal(decimal.NewFromInt(3500)))
	assert.False(t, record.IsResolved())
}

func TestDetectLeak_EntityNotFound(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	f.actionRepo.On("FindByEntity", mock.Anything, clinical.ActionTypeLabResult, mock.Anything).Return(nil, nil)

	_, err := f.service.DetectLeak(ctx, billing.LeakEntityLabResult, uuid.New())

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDetectLeak_InvalidEntityType(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	_, err := f.service.DetectLeak(ctx, billing.LeakEntityType("APPOINTMENT"), uuid.New())

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "INVALID_ENTITY_TYPE", domainErr.Code)
}

func TestDetectLeak_EmergencyOverrideExempt(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	action := newTestAction(clinical.ActionTypeDrugDispense, uuid.New(), "PH-ADREN", 8000, true)
	f.actionRepo.On("FindByEntity", mock.Anything, clinical.ActionTypeDrugDispense, action.ID).Return(action, nil)

	record, err := f.service.DetectLeak(ctx, billing.LeakEntityDrugDispense, action.ID)

	require.NoError(t, err)
	assert.Nil(t, record)
	f.leakRepo.AssertNotCalled(t, "Save")
}

func TestDetectLeak_PaidChargeExists(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	action := newTestAction(clinical.ActionTypeProcedure, uuid.New(), "PROC-SUTURE", 12000, false)
	f.actionRepo.On("FindByEntity", mock.Anything, clinical.ActionTypeProcedure, action.ID).Return(action, nil)
	f.leakRepo.On("FindUnresolvedByEntity", mock.Anything, billing.LeakEntityProcedure, action.ID).Return(nil, nil)
	f.chargeRepo.On("ExistsPaidForService", mock.Anything, action.VisitID, "PROC-SUTURE").Return(true, nil)

	record, err := f.service.DetectLeak(ctx, billing.LeakEntityProcedure, action.ID)

	require.NoError(t, err)
	assert.Nil(t, record)
	f.leakRepo.AssertNotCalled(t, "Save")
}

func TestDetectLeak_ReturnsExistingUnresolved(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	action := newTestAction(clinical.ActionTypeLabResult, uuid.New(), "LAB-MP", 2000, false)
	existing, err := billing.NewLeakRecord(billing.LeakEntityLabResult, action.ID, action.VisitID, "LAB-MP", testAmount(2000))
	require.NoError(t, err)
	existing.ClearDomainEvents()

	f.actionRepo.On("FindByEntity", mock.Anything, clinical.ActionTypeLabResult, action.ID).Return(action, nil)
	f.leakRepo.On("FindUnresolvedByEntity", mock.Anything, billing.LeakEntityLabResult, action.ID).Return(existing, nil)

	record, err := f.service.DetectLeak(ctx, billing.LeakEntityLabResult, action.ID)

	require.NoError(t, err)
	assert.Equal(t, existing, record)
	f.leakRepo.AssertNotCalled(t, "Save")
	f.chargeRepo.AssertNotCalled(t, "ExistsPaidForService")
}

func TestDetectLeak_RaceLoserConvergesOnWinner(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	action := newTestAction(clinical.ActionTypeRadiologyReport, uuid.New(), "RAD-CXR", 6000, false)
	winner, err := billing.NewLeakRecord(billing.LeakEntityRadiologyReport, action.ID, action.VisitID, "RAD-CXR", testAmount(6000))
	require.NoError(t, err)
	winner.ClearDomainEvents()

	f.actionRepo.On("FindByEntity", mock.Anything, clinical.ActionTypeRadiologyReport, action.ID).Return(action, nil)
	// First check sees nothing; a concurrent writer lands between the
	// check and the insert
	f.leakRepo.On("FindUnresolvedByEntity", mock.Anything, billing.LeakEntityRadiologyReport, action.ID).Return(nil, nil).Once()
	f.chargeRepo.On("ExistsPaidForService", mock.Anything, action.VisitID, "RAD-CXR").Return(false, nil)
	f.leakRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.LeakRecord")).Return(shared.ErrAlreadyExists)
	f.leakRepo.On("FindUnresolvedByEntity", mock.Anything, billing.LeakEntityRadiologyReport, action.ID).Return(winner, nil).Once()

	record, err := f.service.DetectLeak(ctx, billing.LeakEntityRadiologyReport, action.ID)

	require.NoError(t, err)
	assert.Equal(t, winner, record)
	assert.Empty(t, f.bus.events)
}

func TestDetectAll_SweepsBillableActions(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	unpaid := newTestAction(clinical.ActionTypeLabResult, uuid.New(), "LAB-CBC", 3500, false)
	paid := newTestAction(clinical.ActionTypeLabResult, uuid.New(), "LAB-LFT", 4000, false)

	f.actionRepo.On("FindBillableByType", mock.Anything, clinical.ActionTypeLabResult).
		Return([]*clinical.Action{unpaid, paid}, nil)
	f.actionRepo.On("FindBillableByType", mock.Anything, clinical.ActionTypeRadiologyReport).Return([]*clinical.Action{}, nil)
	f.actionRepo.On("FindBillableByType", mock.Anything, clinical.ActionTypeDrugDispense).Return([]*clinical.Action{}, nil)
	f.actionRepo.On("FindBillableByType", mock.Anything, clinical.ActionTypeProcedure).Return([]*clinical.Action{}, nil)

	f.leakRepo.On("FindUnresolvedByEntity", mock.Anything, billing.LeakEntityLabResult, unpaid.ID).Return(nil, nil)
	f.leakRepo.On("FindUnresolvedByEntity", mock.Anything, billing.LeakEntityLabResult, paid.ID).Return(nil, nil)
	f.chargeRepo.On("ExistsPaidForService", mock.Anything, unpaid.VisitID, "LAB-CBC").Return(false, nil)
	f.chargeRepo.On("ExistsPaidForService", mock.Anything, paid.VisitID, "LAB-LFT").Return(true, nil)
	f.leakRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.LeakRecord")).Return(nil)

	result, err := f.service.DetectAll(ctx)

	require.NoError(t, err)
	assert.Equal(t, 1, result.LeaksDetected)
	assert.True(t, result.EstimatedLoss.Equal(decimal.NewFromInt(3500)))
	require.Len(t, result.Records, 1)
	assert.Equal(t, unpaid.ID, result.Records[0].EntityID)
}

func TestResolve_Success(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	record, err := billing.NewLeakRecord(billing.LeakEntityLabResult, uuid.New(), uuid.New(), "LAB-CBC", testAmount(3500))
	require.NoError(t, err)
	record.ClearDomainEvents()
	resolver := uuid.New()

	f.leakRepo.On("FindByID", mock.Anything, record.ID).Return(record, nil)
	f.leakRepo.On("Save", mock.Anything, record).Return(nil)

	resolved, err := f.service.Resolve(ctx, record.ID, resolver, "charge raised and paid")

	require.NoError(t, err)
	assert.True(t, resolved.IsResolved())
	require.Len(t, f.audit.actions, 1)
	assert.Equal(t, "leak.resolved", f.audit.actions[0])
	f.leakRepo.AssertExpectations(t)
}

func TestResolve_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	f.leakRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := f.service.Resolve(ctx, uuid.New(), uuid.New(), "notes")

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDailyAggregation(t *testing.T) {
	ctx := context.Background()
	f := newLeakFixture()

	date := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	dayStart := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	open, err := billing.NewLeakRecord(billing.LeakEntityLabResult, uuid.New(), uuid.New(), "LAB-CBC", testAmount(3500))
	require.NoError(t, err)
	closed, err := billing.NewLeakRecord(billing.LeakEntityDrugDispense, uuid.New(), uuid.New(), "PH-AMOX", testAmount(1200))
	require.NoError(t, err)
	require.NoError(t, closed.Resolve(uuid.New(), "recovered"))

	f.leakRepo.On("FindDetectedBetween", mock.Anything, dayStart, dayStart.AddDate(0, 0, 1)).
		Return([]*billing.LeakRecord{open, closed}, nil)

	agg, err := f.service.DailyAggregation(ctx, date)

	require.NoError(t, err)
	assert.Equal(t, dayStart, agg.Date)
	assert.Equal(t, 2, agg.TotalLeaks)
	assert.True(t, agg.TotalEstimatedLoss.Equal(decimal.NewFromInt(4700)))
	assert.Equal(t, 1, agg.ResolvedCount)
	assert.Equal(t, 1, agg.UnresolvedCount)
	assert.Equal(t, 1, agg.ByEntityType[billing.LeakEntityLabResult])
	assert.Equal(t, 1, agg.ByEntityType[billing.LeakEntityDrugDispense])
}
