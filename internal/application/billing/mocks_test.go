package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/clinical"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
)

// MockVisitRepository is a mock implementation of VisitRepository
type MockVisitRepository struct {
	mock.Mock
}

func (m *MockVisitRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Visit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Visit), args.Error(1)
}

func (m *MockVisitRepository) FindByVisitNumber(ctx context.Context, visitNumber string) (*billing.Visit, error) {
	args := m.Called(ctx, visitNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Visit), args.Error(1)
}

func (m *MockVisitRepository) FindOpenAsOf(ctx context.Context, asOf time.Time) ([]*billing.Visit, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Visit), args.Error(1)
}

func (m *MockVisitRepository) FindTouchedBetween(ctx context.Context, start, end time.Time) ([]*billing.Visit, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Visit), args.Error(1)
}

func (m *MockVisitRepository) Save(ctx context.Context, visit *billing.Visit) error {
	args := m.Called(ctx, visit)
	return args.Error(0)
}

var _ billing.VisitRepository = (*MockVisitRepository)(nil)

// MockChargeRepository is a mock implementation of ChargeRepository
type MockChargeRepository struct {
	mock.Mock
}

func (m *MockChargeRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Charge, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Charge), args.Error(1)
}

func (m *MockChargeRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*billing.Charge, error) {
	args := m.Called(ctx, visitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Charge), args.Error(1)
}

func (m *MockChargeRepository) ExistsPaidForService(ctx context.Context, visitID uuid.UUID, serviceCode string) (bool, error) {
	args := m.Called(ctx, visitID, serviceCode)
	return args.Bool(0), args.Error(1)
}

func (m *MockChargeRepository) Save(ctx context.Context, charge *billing.Charge) error {
	args := m.Called(ctx, charge)
	return args.Error(0)
}

var _ billing.ChargeRepository = (*MockChargeRepository)(nil)

// MockPaymentRepository is a mock implementation of PaymentRepository
type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Payment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*billing.Payment, error) {
	args := m.Called(ctx, visitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.Payment), args.Error(1)
}

func (m *MockPaymentRepository) SumClearedByMethodBetween(ctx context.Context, start, end time.Time) (map[billing.PaymentMethod]decimal.Decimal, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[billing.PaymentMethod]decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) Save(ctx context.Context, payment *billing.Payment) error {
	args := m.Called(ctx, payment)
	return args.Error(0)
}

var _ billing.PaymentRepository = (*MockPaymentRepository)(nil)

// MockWalletTransactionRepository is a mock implementation of WalletTransactionRepository
type MockWalletTransactionRepository struct {
	mock.Mock
}

func (m *MockWalletTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.WalletTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.WalletTransaction), args.Error(1)
}

func (m *MockWalletTransactionRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*billing.WalletTransaction, error) {
	args := m.Called(ctx, visitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.WalletTransaction), args.Error(1)
}

func (m *MockWalletTransactionRepository) SumCompletedDebitsBetween(ctx context.Context, start, end time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, start, end)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockWalletTransactionRepository) Save(ctx context.Context, txn *billing.WalletTransaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

var _ billing.WalletTransactionRepository = (*MockWalletTransactionRepository)(nil)

// MockInsuranceCoverageRepository is a mock implementation of InsuranceCoverageRepository
type MockInsuranceCoverageRepository struct {
	mock.Mock
}

func (m *MockInsuranceCoverageRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.InsuranceCoverage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.InsuranceCoverage), args.Error(1)
}

func (m *MockInsuranceCoverageRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) (*billing.InsuranceCoverage, error) {
	args := m.Called(ctx, visitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.InsuranceCoverage), args.Error(1)
}

func (m *MockInsuranceCoverageRepository) Save(ctx context.Context, coverage *billing.InsuranceCoverage) error {
	args := m.Called(ctx, coverage)
	return args.Error(0)
}

var _ billing.InsuranceCoverageRepository = (*MockInsuranceCoverageRepository)(nil)

// MockLeakRecordRepository is a mock implementation of LeakRecordRepository
type MockLeakRecordRepository struct {
	mock.Mock
}

func (m *MockLeakRecordRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.LeakRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.LeakRecord), args.Error(1)
}

func (m *MockLeakRecordRepository) FindUnresolvedByEntity(ctx context.Context, entityType billing.LeakEntityType, entityID uuid.UUID) (*billing.LeakRecord, error) {
	args := m.Called(ctx, entityType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.LeakRecord), args.Error(1)
}

func (m *MockLeakRecordRepository) FindUnresolved(ctx context.Context) ([]*billing.LeakRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.LeakRecord), args.Error(1)
}

func (m *MockLeakRecordRepository) FindDetectedBetween(ctx context.Context, start, end time.Time) ([]*billing.LeakRecord, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*billing.LeakRecord), args.Error(1)
}

func (m *MockLeakRecordRepository) Save(ctx context.Context, record *billing.LeakRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

var _ billing.LeakRecordRepository = (*MockLeakRecordRepository)(nil)

// MockReconciliationRepository is a mock implementation of ReconciliationRepository
type MockReconciliationRepository struct {
	mock.Mock
}

func (m *MockReconciliationRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.DailyReconciliation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.DailyReconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) FindByDate(ctx context.Context, date time.Time) (*billing.DailyReconciliation, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.DailyReconciliation), args.Error(1)
}

func (m *MockReconciliationRepository) Save(ctx context.Context, record *billing.DailyReconciliation) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

var _ billing.ReconciliationRepository = (*MockReconciliationRepository)(nil)

// MockConsultationRepository is a mock implementation of ConsultationRepository
type MockConsultationRepository struct {
	mock.Mock
}

func (m *MockConsultationRepository) FindByID(ctx context.Context, id uuid.UUID) (*clinical.Consultation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinical.Consultation), args.Error(1)
}

func (m *MockConsultationRepository) FindByVisit(ctx context.Context, visitID uuid.UUID) ([]*clinical.Consultation, error) {
	args := m.Called(ctx, visitID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinical.Consultation), args.Error(1)
}

func (m *MockConsultationRepository) FindLastAttendingDoctor(ctx context.Context, patientID uuid.UUID) (*uuid.UUID, error) {
	args := m.Called(ctx, patientID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*uuid.UUID), args.Error(1)
}

func (m *MockConsultationRepository) Save(ctx context.Context, consultation *clinical.Consultation) error {
	args := m.Called(ctx, consultation)
	return args.Error(0)
}

var _ clinical.ConsultationRepository = (*MockConsultationRepository)(nil)

// MockActionRepository is a mock implementation of ActionRepository
type MockActionRepository struct {
	mock.Mock
}

func (m *MockActionRepository) FindByEntity(ctx context.Context, actionType clinical.ActionType, entityID uuid.UUID) (*clinical.Action, error) {
	args := m.Called(ctx, actionType, entityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*clinical.Action), args.Error(1)
}

func (m *MockActionRepository) FindBillable(ctx context.Context) ([]*clinical.Action, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinical.Action), args.Error(1)
}

func (m *MockActionRepository) FindBillableByType(ctx context.Context, actionType clinical.ActionType) ([]*clinical.Action, error) {
	args := m.Called(ctx, actionType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinical.Action), args.Error(1)
}

func (m *MockActionRepository) FindCompletedBetween(ctx context.Context, start, end time.Time) ([]*clinical.Action, error) {
	args := m.Called(ctx, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*clinical.Action), args.Error(1)
}

func (m *MockActionRepository) Save(ctx context.Context, action *clinical.Action) error {
	args := m.Called(ctx, action)
	return args.Error(0)
}

var _ clinical.ActionRepository = (*MockActionRepository)(nil)

// stubTransactionManager runs the function directly on the given context
type stubTransactionManager struct{}

func (stubTransactionManager) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var _ shared.TransactionManager = stubTransactionManager{}

// capturingEventBus records every published event for assertions
type capturingEventBus struct {
	events []shared.DomainEvent
}

func (b *capturingEventBus) Publish(_ context.Context, events ...shared.DomainEvent) error {
	b.events = append(b.events, events...)
	return nil
}

var _ shared.EventPublisher = (*capturingEventBus)(nil)

// capturingAuditRecorder records audit entries for assertions
type capturingAuditRecorder struct {
	actions []string
	details []map[string]any
}

func (r *capturingAuditRecorder) RecordAudit(_ context.Context, action string, _ uuid.UUID, details map[string]any) error {
	r.actions = append(r.actions, action)
	r.details = append(r.details, details)
	return nil
}

var _ shared.AuditRecorder = (*capturingAuditRecorder)(nil)

// Test helper functions
func newTestLogger() *zap.Logger {
	logger, _ := zap.NewDevelopment()
	return logger
}

func testAmount(amount float64) valueobject.Money {
	return valueobject.NewMoneyNGNFromFloat(amount)
}

func newTestVisit() *billing.Visit {
	visit, err := billing.NewVisit(uuid.New(), "V-"+uuid.NewString()[:8])
	if err != nil {
		panic(err)
	}
	visit.ClearDomainEvents()
	return visit
}

func newTestCharge(visit *billing.Visit, serviceCode string, amount float64) *billing.Charge {
	charge, err := billing.NewCharge(visit, billing.ChargeCategoryLab, serviceCode, "", valueobject.NewMoneyNGNFromFloat(amount))
	if err != nil {
		panic(err)
	}
	charge.ClearDomainEvents()
	return charge
}

func newTestClearedPayment(visit *billing.Visit, amount float64) *billing.Payment {
	payment, err := billing.NewPayment(visit, valueobject.NewMoneyNGNFromFloat(amount), billing.PaymentMethodCash, "", uuid.Nil)
	if err != nil {
		panic(err)
	}
	if _, err := payment.MarkCleared(); err != nil {
		panic(err)
	}
	payment.ClearDomainEvents()
	return payment
}

func newTestAction(actionType clinical.ActionType, visitID uuid.UUID, serviceCode string, amount float64, emergency bool) *clinical.Action {
	action, err := clinical.NewAction(actionType, visitID, uuid.New(), serviceCode, "", valueobject.NewMoneyNGNFromFloat(amount), uuid.Nil, emergency)
	if err != nil {
		panic(err)
	}
	return action
}

// newTestLedgerService wires a LedgerService over the given mocks with a
// fixed clock
func newTestLedgerService(
	visitRepo *MockVisitRepository,
	chargeRepo *MockChargeRepository,
	paymentRepo *MockPaymentRepository,
	walletRepo *MockWalletTransactionRepository,
	coverageRepo *MockInsuranceCoverageRepository,
) *LedgerService {
	clock := FixedClock{Instant: time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)}
	return NewLedgerService(visitRepo, chargeRepo, paymentRepo, walletRepo, coverageRepo, clock, zap.NewNop())
}

// expectLedger sets expectations for a ledger load returning the visit
// with the given charges and payments and no wallet activity or coverage
func expectLedger(
	visitRepo *MockVisitRepository,
	chargeRepo *MockChargeRepository,
	paymentRepo *MockPaymentRepository,
	walletRepo *MockWalletTransactionRepository,
	coverageRepo *MockInsuranceCoverageRepository,
	visit *billing.Visit,
	charges []*billing.Charge,
	payments []*billing.Payment,
) {
	visitRepo.On("FindByID", mock.Anything, visit.ID).Return(visit, nil)
	chargeRepo.On("FindByVisit", mock.Anything, visit.ID).Return(charges, nil)
	paymentRepo.On("FindByVisit", mock.Anything, visit.ID).Return(payments, nil)
	walletRepo.On("FindByVisit", mock.Anything, visit.ID).Return([]*billing.WalletTransaction{}, nil)
	coverageRepo.On("FindByVisit", mock.Anything, visit.ID).Return(nil, nil)
}
