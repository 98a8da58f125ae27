package commands

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type ping struct{ n int }

func (ping) Key() string { return "test.ping" }

type pong struct{}

func (pong) Key() string { return "test.pong" }

func newPingBus() *InMemoryBus {
	bus := NewInMemoryBus()
	RegisterHandler(bus, ping{}.Key(), HandlerFunc[ping, int](func(_ context.Context, p ping) (int, error) {
		return p.n + 1, nil
	}))
	return bus
}

func TestDispatchRoutesByKey(t *testing.T) {
	got, err := Dispatch[ping, int](context.Background(), newPingBus(), ping{n: 41})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
}

func TestDispatchUnknownKey(t *testing.T) {
	_, err := newPingBus().Dispatch(context.Background(), pong{})
	assert.ErrorIs(t, err, ErrHandlerNotFound)
}

func TestDispatchResultTypeMismatch(t *testing.T) {
	_, err := Dispatch[ping, string](context.Background(), newPingBus(), ping{})
	assert.ErrorIs(t, err, ErrResultType)
}

func TestDispatchNilBus(t *testing.T) {
	_, err := Dispatch[ping, int](context.Background(), nil, ping{})
	assert.ErrorIs(t, err, ErrNilBus)
}

func TestRegisterTwicePanics(t *testing.T) {
	bus := newPingBus()
	assert.Panics(t, func() {
		RegisterHandler(bus, ping{}.Key(), HandlerFunc[ping, int](func(context.Context, ping) (int, error) { return 0, nil }))
	})
}

func TestWrongMessageTypeForKey(t *testing.T) {
	bus := NewInMemoryBus()
	RegisterHandler(bus, "test.pong", HandlerFunc[ping, int](func(context.Context, ping) (int, error) { return 0, nil }))
	_, err := bus.Dispatch(context.Background(), pong{})
	assert.ErrorIs(t, err, ErrInvalidCommand)
}
