package queries

import (
	"context"
	"fmt"
)

type route struct {
	accepts string
	call    func(ctx context.Context, q Query) (any, error)
}

// InMemoryBus routes each query to the single handler registered for its key.
type InMemoryBus struct {
	routes map[string]route
}

func NewInMemoryBus() *InMemoryBus {
	return &InMemoryBus{routes: map[string]route{}}
}

func (b *InMemoryBus) Ask(ctx context.Context, q Query) (any, error) {
	if q == nil {
		return nil, ErrInvalidQuery
	}
	r, ok := b.routes[q.Key()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHandlerNotFound, q.Key())
	}
	return r.call(ctx, q)
}

// RegisterHandler routes key to handler. An empty or repeated key is a wiring
// bug and panics.
func RegisterHandler[Q Query, R any](bus *InMemoryBus, key string, handler Handler[Q, R]) {
	switch {
	case bus == nil:
		panic("queries: nil bus")
	case key == "":
		panic("queries: empty key registration")
	}
	if prev, dup := bus.routes[key]; dup {
		panic(fmt.Sprintf("queries: %s already routed to a %s handler", key, prev.accepts))
	}
	var zero Q
	bus.routes[key] = route{
		accepts: fmt.Sprintf("%T", zero),
		call: func(ctx context.Context, raw Query) (any, error) {
			typed, ok := raw.(Q)
			if !ok {
				return nil, fmt.Errorf("%w: %s wants %T, got %T", ErrInvalidQuery, key, zero, raw)
			}
			return handler.Handle(ctx, typed)
		},
	}
}
