package billing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
)

type visitStatusFixture struct {
	visitRepo    *MockVisitRepository
	chargeRepo   *MockChargeRepository
	paymentRepo  *MockPaymentRepository
	walletRepo   *MockWalletTransactionRepository
	coverageRepo *MockInsuranceCoverageRepository
	handler      *VisitStatusHandler
}

func newVisitStatusFixture() *visitStatusFixture {
	f := &visitStatusFixture{
		visitRepo:    new(MockVisitRepository),
		chargeRepo:   new(MockChargeRepository),
		paymentRepo:  new(MockPaymentRepository),
		walletRepo:   new(MockWalletTransactionRepository),
		coverageRepo: new(MockInsuranceCoverageRepository),
	}
	ledger := newTestLedgerService(f.visitRepo, f.chargeRepo, f.paymentRepo, f.walletRepo, f.coverageRepo)
	f.handler = NewVisitStatusHandler(ledger, f.visitRepo, newTestLogger())
	return f
}

func TestVisitStatusHandler_EventTypes(t *testing.T) {
	f := newVisitStatusFixture()
	assert.Equal(t, []string{billing.EventTypeChargePaid}, f.handler.EventTypes())
}

func TestVisitStatusHandler_Handle_PersistsChangedStatus(t *testing.T) {
	ctx := context.Background()
	f := newVisitStatusFixture()

	visit := newTestVisit()
	charge := newTestCharge(visit, "CONS-GEN", 5000)
	payment := newTestClearedPayment(visit, 2000)

	changed, err := charge.MarkPaid(billing.PaymentMethodCash)
	require.NoError(t, err)
	require.True(t, changed)
	events := charge.GetDomainEvents()
	event := events[len(events)-1].(*billing.ChargePaidEvent)

	expectLedger(f.visitRepo, f.chargeRepo, f.paymentRepo, f.walletRepo, f.coverageRepo,
		visit, []*billing.Charge{charge}, []*billing.Payment{payment})
	f.visitRepo.On("Save", mock.Anything, visit).Return(nil)

	err = f.handler.Handle(ctx, event)

	require.NoError(t, err)
	assert.Equal(t, billing.VisitPaymentStatusPartial, visit.PaymentStatus)
	f.visitRepo.AssertExpectations(t)
}

func TestVisitStatusHandler_Handle_NoWriteWhenUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newVisitStatusFixture()

	visit := newTestVisit()
	charge := newTestCharge(visit, "CONS-GEN", 5000)

	changed, err := charge.MarkPaid(billing.PaymentMethodCash)
	require.NoError(t, err)
	require.True(t, changed)
	events := charge.GetDomainEvents()
	event := events[len(events)-1].(*billing.ChargePaidEvent)

	// No settled funds: derived status stays PENDING, matching the visit
	expectLedger(f.visitRepo, f.chargeRepo, f.paymentRepo, f.walletRepo, f.coverageRepo,
		visit, []*billing.Charge{charge}, nil)

	err = f.handler.Handle(ctx, event)

	require.NoError(t, err)
	assert.Equal(t, billing.VisitPaymentStatusPending, visit.PaymentStatus)
	f.visitRepo.AssertNotCalled(t, "Save")
}

func TestVisitStatusHandler_Handle_WrongEventType(t *testing.T) {
	ctx := context.Background()
	f := newVisitStatusFixture()

	visit := newTestVisit()
	charge := newTestCharge(visit, "LAB-CBC", 3500)
	wrongEvent := billing.NewChargeCreatedEvent(charge)

	err := f.handler.Handle(ctx, wrongEvent)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected event type")
}
