package commands

import (
	"context"
	"fmt"
)

type route struct {
	accepts string
	call    func(ctx context.Context, cmd Command) (any, error)
}

// InMemoryBus routes each command to the single handler registered for its key.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: map[string]route{}}
}

func (b *InMemoryBus) Dispatch(ctx context.Context, cmd Command) (any, error) {
	if cmd == nil {
		return nil, ErrInvalidCommand
	}
	r, ok := b.routes[cmd.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, cmd.Key())
	}
	return r.call(ctx, cmd)
}

// RegisterHandler routes key to handler. An empty or repeated key is a wiring
// bug and panics.
func RegisterHandler[C Command, R any](bus *InMemoryBus, key string, handler Handler[C, R]) {
	switch {
	case bus == nil:
		panic("commands: nil bus")
	case key == "":
		panic("commands: empty key registration")
	}
	if prev, dup := bus.routes[key]; dup {
		panic(fmt.Sprintf("commands: %s already routed to a %s handler", key, prev.accepts))
	}
	var zero C
	bus.routes[key] = route{
		accepts: fmt.Sprintf("%T", zero),
		call: func(ctx context.Context, raw Command) (any, error) {
			typed, ok := raw.(C)
			if !ok {
				return nil, fmt.Errorf("%w: %s wants %T, got %T", ErrInvalidCommand, key, zero, raw)
			}
			return handler.Handle(ctx, typed)
		},
	}
}
