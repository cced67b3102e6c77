package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
)

// newMockPaymentRepository creates a GormPaymentRepository with a mocked SQL connection
func newMockPaymentRepository(t *testing.T) (*GormPaymentRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPaymentRepository(gormDB), mock, mockDB
}

func TestGormPaymentRepository_FindByID(t *testing.T) {
	t.Run("finds existing payment", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()
		visitID := uuid.New()

		rows := sqlmock.NewRows([]string{"id", "visit_id", "amount", "method", "status"}).
			AddRow(paymentID, visitID, decimal.NewFromInt(5000), "CASH", "CLEARED")

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(paymentID, 1).
			WillReturnRows(rows)

		payment, err := repo.FindByID(context.Background(), paymentID)

		assert.NoError(t, err)
		require.NotNil(t, payment)
		assert.Equal(t, paymentID, payment.ID)
		assert.Equal(t, billing.PaymentMethodCash, payment.Method)
		assert.True(t, payment.IsCleared())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns nil for non-existent payment", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		paymentID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payments" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(paymentID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		payment, err := repo.FindByID(context.Background(), paymentID)

		assert.NoError(t, err)
		assert.Nil(t, payment)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentRepository_SumClearedByMethodBetween(t *testing.T) {
	t.Run("groups cleared payments by method", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		start := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, 1)

		rows := sqlmock.NewRows([]string{"method", "total"}).
			AddRow("CASH", decimal.NewFromInt(120000)).
			AddRow("CARD", decimal.NewFromInt(45000)).
			AddRow("WALLET", decimal.NewFromInt(7500))

		mock.ExpectQuery(`SELECT method, COALESCE\(SUM\(amount\), 0\) AS total FROM "payments"`).
			WithArgs("CLEARED", start, end).
			WillReturnRows(rows)

		sums, err := repo.SumClearedByMethodBetween(context.Background(), start, end)

		require.NoError(t, err)
		require.Len(t, sums, 3)
		assert.True(t, sums[billing.PaymentMethodCash].Equal(decimal.NewFromInt(120000)))
		assert.True(t, sums[billing.PaymentMethodCard].Equal(decimal.NewFromInt(45000)))
		assert.True(t, sums[billing.PaymentMethodWallet].Equal(decimal.NewFromInt(7500)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns empty map for a quiet window", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentRepository(t)
		defer mockDB.Close()

		start := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 0, 1)

		mock.ExpectQuery(`SELECT method, COALESCE\(SUM\(amount\), 0\) AS total FROM "payments"`).
			WithArgs("CLEARED", start, end).
			WillReturnRows(sqlmock.NewRows([]string{"method", "total"}))

		sums, err := repo.SumClearedByMethodBetween(context.Background(), start, end)

		require.NoError(t, err)
		assert.Empty(t, sums)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
