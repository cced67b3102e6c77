package billing

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
)

type pipelineFixture struct {
	visitRepo    *MockVisitRepository
	chargeRepo   *MockChargeRepository
	paymentRepo  *MockPaymentRepository
	walletRepo   *MockWalletTransactionRepository
	coverageRepo *MockInsuranceCoverageRepository
	bus          *capturingEventBus
	audit        *capturingAuditRecorder
	service      *PaymentConfirmationService
}

func newPipelineFixture() *pipelineFixture {
	f := &pipelineFixture{
		visitRepo:    new(MockVisitRepository),
		chargeRepo:   new(MockChargeRepository),
		paymentRepo:  new(MockPaymentRepository),
		walletRepo:   new(MockWalletTransactionRepository),
		coverageRepo: new(MockInsuranceCoverageRepository),
		bus:          &capturingEventBus{},
		audit:        &capturingAuditRecorder{},
	}
	ledger := newTestLedgerService(f.visitRepo, f.chargeRepo, f.paymentRepo, f.walletRepo, f.coverageRepo)
	f.service = NewPaymentConfirmationService(
		stubTransactionManager{},
		f.visitRepo, f.chargeRepo, f.paymentRepo,
		ledger, f.bus, f.audit, newTestLogger(),
	)
	return f
}

func TestConfirmCharge_Success(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()

	visit := newTestVisit()
	charge := newTestCharge(visit, "CONS-GEN", 5000)

	f.chargeRepo.On("FindByID", mock.Anything, charge.ID).Return(charge, nil)
	f.chargeRepo.On("Save", mock.Anything, charge).Return(nil)

	confirmed, err := f.service.ConfirmCharge(ctx, charge.ID, billing.PaymentMethodCash, uuid.New())

	require.NoError(t, err)
	assert.True(t, confirmed.IsPaid())
	f.chargeRepo.AssertExpectations(t)

	require.Len(t, f.bus.events, 1)
	paid, ok := f.bus.events[0].(*billing.ChargePaidEvent)
	require.True(t, ok)
	assert.Equal(t, charge.ID, paid.ChargeID)
	assert.Equal(t, visit.ID, paid.VisitID)
	assert.Equal(t, billing.PaymentMethodCash, paid.PaymentMethod)

	require.Len(t, f.audit.actions, 1)
	assert.Equal(t, "charge.confirmed", f.audit.actions[0])
}

func TestConfirmCharge_AlreadyPaidIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()

	visit := newTestVisit()
	charge := newTestCharge(visit, "CONS-GEN", 5000)
	_, err := charge.MarkPaid(billing.PaymentMethodCash)
	require.NoError(t, err)
	charge.ClearDomainEvents()

	f.chargeRepo.On("FindByID", mock.Anything, charge.ID).Return(charge, nil)

	confirmed, err := f.service.ConfirmCharge(ctx, charge.ID, billing.PaymentMethodCard, uuid.New())

	require.NoError(t, err)
	assert.True(t, confirmed.IsPaid())
	// The original method survives; no second event fires
	assert.Equal(t, billing.PaymentMethodCash, *confirmed.PaymentMethod)
	assert.Empty(t, f.bus.events)
	f.chargeRepo.AssertNotCalled(t, "Save")
}

func TestConfirmCharge_NotFound(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()

	f.chargeRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := f.service.ConfirmCharge(ctx, uuid.New(), billing.PaymentMethodCash, uuid.New())

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Empty(t, f.bus.events)
	assert.Empty(t, f.audit.actions)
}

func TestConfirmCharge_SaveError(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()

	visit := newTestVisit()
	charge := newTestCharge(visit, "LAB-CBC", 3500)

	f.chargeRepo.On("FindByID", mock.Anything, charge.ID).Return(charge, nil)
	f.chargeRepo.On("Save", mock.Anything, charge).Return(errors.New("db error"))

	_, err := f.service.ConfirmCharge(ctx, charge.ID, billing.PaymentMethodCash, uuid.New())

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save charge")
	assert.Empty(t, f.bus.events)
}

func TestRecordPayment_Success(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()

	visit := newTestVisit()
	charge := newTestCharge(visit, "CONS-GEN", 5000)
	expectLedger(f.visitRepo, f.chargeRepo, f.paymentRepo, f.walletRepo, f.coverageRepo,
		visit, []*billing.Charge{charge}, nil)

	var saved *billing.Payment
	f.paymentRepo.On("Save", mock.Anything, mock.AnythingOfType("*billing.Payment")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*billing.Payment)
	}).Return(nil)

	payment, err := f.service.RecordPayment(ctx, visit.ID, decimal.NewFromInt(3000), billing.PaymentMethodCash, "", uuid.New())

	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.Equal(t, payment, saved)
	assert.Equal(t, billing.PaymentStatusPending, payment.Status)
	assert.True(t, payment.Amount.Equal(decimal.NewFromInt(3000)))
}

func TestRecordPayment_RejectedWhenNothingOutstanding(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()

	visit := newTestVisit()
	charge := newTestCharge(visit, "CONS-GEN", 5000)
	cleared := newTestClearedPayment(visit, 5000)
	expectLedger(f.visitRepo, f.chargeRepo, f.paymentRepo, f.walletRepo, f.coverageRepo,
		visit, []*billing.Charge{charge}, []*billing.Payment{cleared})

	_, err := f.service.RecordPayment(ctx, visit.ID, decimal.NewFromInt(1000), billing.PaymentMethodCash, "", uuid.New())

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "NOTHING_OUTSTANDING", domainErr.Code)
	f.paymentRepo.AssertNotCalled(t, "Save")
}

func TestRecordPayment_RejectedForMissingVisit(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()

	f.visitRepo.On("FindByID", mock.Anything, mock.Anything).Return(nil, nil)

	_, err := f.service.RecordPayment(ctx, uuid.New(), decimal.NewFromInt(1000), billing.PaymentMethodCash, "", uuid.New())

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestClearPayment_RefreshesVisitStatus(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()

	visit := newTestVisit()
	charge := newTestCharge(visit, "CONS-GEN", 5000)
	payment, err := billing.NewPayment(visit, testAmount(5000), billing.PaymentMethodGateway, "ref-1", uuid.Nil)
	require.NoError(t, err)
	payment.ClearDomainEvents()

	f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)
	f.paymentRepo.On("Save", mock.Anything, payment).Return(nil)
	// The ledger reload sees the payment already cleared
	expectLedger(f.visitRepo, f.chargeRepo, f.paymentRepo, f.walletRepo, f.coverageRepo,
		visit, []*billing.Charge{charge}, []*billing.Payment{payment})
	f.visitRepo.On("Save", mock.Anything, visit).Return(nil)

	cleared, err := f.service.ClearPayment(ctx, payment.ID)

	require.NoError(t, err)
	assert.True(t, cleared.IsCleared())
	assert.Equal(t, billing.VisitPaymentStatusCleared, visit.PaymentStatus)
	f.visitRepo.AssertExpectations(t)
}

func TestClearPayment_AlreadyClearedIsNoOp(t *testing.T) {
	ctx := context.Background()
	f := newPipelineFixture()

	visit := newTestVisit()
	payment := newTestClearedPayment(visit, 2000)

	f.paymentRepo.On("FindByID", mock.Anything, payment.ID).Return(payment, nil)

	cleared, err := f.service.ClearPayment(ctx, payment.ID)

	require.NoError(t, err)
	assert.True(t, cleared.IsCleared())
	f.paymentRepo.AssertNotCalled(t, "Save")
	f.visitRepo.AssertNotCalled(t, "Save")
}
