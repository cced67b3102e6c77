package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
)

func TestGormChargeRepository_ExistsPaidForService(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormChargeRepository(db)
	ctx := context.Background()

	visit := mustNewVisit(t)
	require.NoError(t, NewGormVisitRepository(db).Save(ctx, visit))

	charge, err := billing.NewCharge(visit, billing.ChargeCategoryLab, "LAB-CBC", "Full blood count", testMoney(4500))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, charge))

	t.Run("unpaid charge does not count", func(t *testing.T) {
		exists, err := repo.ExistsPaidForService(ctx, visit.ID, "LAB-CBC")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("paid charge counts", func(t *testing.T) {
		changed, err := charge.MarkPaid(billing.PaymentMethodCash)
		require.NoError(t, err)
		require.True(t, changed)
		require.NoError(t, repo.Save(ctx, charge))

		exists, err := repo.ExistsPaidForService(ctx, visit.ID, "LAB-CBC")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("service code is matched exactly", func(t *testing.T) {
		exists, err := repo.ExistsPaidForService(ctx, visit.ID, "LAB-MP")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormChargeRepository_FindByVisit(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormChargeRepository(db)
	ctx := context.Background()

	visit := mustNewVisit(t)
	require.NoError(t, NewGormVisitRepository(db).Save(ctx, visit))

	first, err := billing.NewCharge(visit, billing.ChargeCategoryConsultation, "CONS-GEN", "General consultation", testMoney(2000))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, first))

	second, err := billing.NewCharge(visit, billing.ChargeCategoryPharmacy, "PHM-ACT", "Artemether", testMoney(1500))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, second))

	otherVisit := mustNewVisit(t)
	require.NoError(t, NewGormVisitRepository(db).Save(ctx, otherVisit))
	other, err := billing.NewCharge(otherVisit, billing.ChargeCategoryMisc, "MISC-01", "Dressing", testMoney(500))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	charges, err := repo.FindByVisit(ctx, visit.ID)
	require.NoError(t, err)
	require.Len(t, charges, 2)
	for _, c := range charges {
		assert.Equal(t, visit.ID, c.VisitID)
	}
}
