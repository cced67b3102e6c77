package persistence

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/billing"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/clinical"
	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
)

// setupTestDB opens an in-memory SQLite database migrated with every
// table the repositories touch. TranslateError is on so duplicate-key
// violations surface as gorm.ErrDuplicatedKey, matching production.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&billing.Visit{},
		&billing.Charge{},
		&billing.Payment{},
		&billing.WalletTransaction{},
		&billing.InsuranceCoverage{},
		&billing.LeakRecord{},
		&billing.DailyReconciliation{},
		&clinical.Consultation{},
		&clinical.Action{},
	)
	require.NoError(t, err)

	// Partial unique index: at most one unresolved leak per entity.
	// Production creates the same index via migration.
	err = db.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS uniq_leak_unresolved_entity
		ON leak_records(entity_type, entity_id) WHERE resolved_at IS NULL`).Error
	require.NoError(t, err)

	return db
}

func mustNewVisit(t *testing.T) *billing.Visit {
	t.Helper()
	visit, err := billing.NewVisit(uuid.New(), "V-"+uuid.New().String()[:8])
	require.NoError(t, err)
	return visit
}

func testMoney(amount float64) valueobject.Money {
	return valueobject.NewMoneyNGNFromFloat(amount)
}
