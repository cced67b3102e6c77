package event

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Motomboni/lifeway-emr-sub006/internal/domain/shared/valueobject"
)

func newUUID(t *testing.T) uuid.UUID {
	t.Helper()
	return uuid.New()
}

func moneyNGN(amount float64) valueobject.Money {
	return valueobject.NewMoneyNGNFromFloat(amount)
}

func TestInMemoryEventBusDispatch(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	matched := &countingHandler{}
	bus.Subscribe(matched)

	evt := newChargePaidEvent(t)
	require.NoError(t, bus.Publish(context.Background(), evt))
	assert.Equal(t, 1, matched.calls)
}

func TestInMemoryEventBusFailedHandlerDoesNotBlockSiblings(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	failing := &countingHandler{err: errors.New("workflow defect")}
	healthy := &countingHandler{}
	bus.Subscribe(failing)
	bus.Subscribe(healthy)

	// Publish reports success even when a handler fails
	err := bus.Publish(context.Background(), newChargePaidEvent(t))
	require.NoError(t, err)
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, healthy.calls)
}

func TestInMemoryEventBusWildcardHandler(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	all := NewEventLogHandler(zap.NewNop())
	bus.Subscribe(all)

	specific := &countingHandler{}
	bus.Subscribe(specific)

	require.NoError(t, bus.Publish(context.Background(), newChargePaidEvent(t)))
	assert.Equal(t, 1, specific.calls)
}

func TestInMemoryEventBusUnsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(zap.NewNop())

	h := &countingHandler{}
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newChargePaidEvent(t)))
	assert.Equal(t, 0, h.calls)
}
