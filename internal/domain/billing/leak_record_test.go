package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
)

func TestNewLeakRecord(t *testing.T) {
	t.Run("records an unresolved leak", func(t *testing.T) {
		lr, err := NewLeakRecord(LeakEntityLabResult, uuid.New(), uuid.New(), "LAB-CBC", valueobject.NewMoneyNGNFromFloat(3500))
		require.NoError(t, err)
		assert.False(t, lr.IsResolved())
		assert.Len(t, lr.GetDomainEvents(), 1)
	})

	t.Run("rejects invalid entity type", func(t *testing.T) {
		_, err := NewLeakRecord(LeakEntityType("APPOINTMENT"), uuid.New(), uuid.New(), "X", valueobject.ZeroNGN())
		assert.Error(t, err)
	})

	t.Run("rejects empty entity id", func(t *testing.T) {
		_, err := NewLeakRecord(LeakEntityLabResult, uuid.Nil, uuid.New(), "X", valueobject.ZeroNGN())
		assert.Error(t, err)
	})

	t.Run("rejects negative estimated amount", func(t *testing.T) {
		_, err := NewLeakRecord(LeakEntityLabResult, uuid.New(), uuid.New(), "X", valueobject.NewMoneyNGNFromFloat(-1))
		assert.Error(t, err)
	})
}

func TestLeakRecordResolve(t *testing.T) {
	newLeak := func(t *testing.T) *LeakRecord {
		lr, err := NewLeakRecord(LeakEntityDrugDispense, uuid.New(), uuid.New(), "PH-AMOX", valueobject.NewMoneyNGNFromFloat(1200))
		require.NoError(t, err)
		lr.ClearDomainEvents()
		return lr
	}

	t.Run("records resolver and notes", func(t *testing.T) {
		lr := newLeak(t)
		resolver := uuid.New()
		require.NoError(t, lr.Resolve(resolver, "Charge raised retroactively"))
		assert.True(t, lr.IsResolved())
		assert.Equal(t, resolver, *lr.ResolvedBy)
		assert.NotNil(t, lr.ResolvedAt)
		assert.Len(t, lr.GetDomainEvents(), 1)
	})

	t.Run("cannot resolve twice", func(t *testing.T) {
		lr := newLeak(t)
		require.NoError(t, lr.Resolve(uuid.New(), "done"))
		assert.Error(t, lr.Resolve(uuid.New(), "again"))
	})

	t.Run("requires resolver and notes", func(t *testing.T) {
		lr := newLeak(t)
		assert.Error(t, lr.Resolve(uuid.Nil, "notes"))
		assert.Error(t, lr.Resolve(uuid.New(), ""))
	})
}
