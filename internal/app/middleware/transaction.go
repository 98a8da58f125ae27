package middleware

import (
	"context"
	"errors"

	"rentacar/internal/app/commands"
	"rentacar/internal/app/uow"
)

// Transaction binds a fresh unit of work to every command and commits it when
// the handler returns without error. A commit that loses a version race is
// replayed from scratch up to retries more times, so the handler re-reads the
// aggregates it changed.
func Transaction(factory uow.UoWFactory, retries int) CommandMiddleware {
	if factory == nil {
		panic("middleware: uow factory required")
	}
	if retries < 0 {
		retries = 0
	}
	return func(next commands.Bus) commands.Bus {
		return commandFunc(func(ctx context.Context, cmd commands.Command) (any, error) {
			for attempt := 0; ; attempt++ {
				res, err := runInUnit(ctx, factory, next, cmd)
				if err == nil || attempt >= retries || !errors.Is(err, uow.ErrConcurrentUpdate) {
					return res, err
				}
				if ctx.Err() != nil {
					return nil, err
				}
			}
		})
	}
}

func runInUnit(ctx context.Context, factory uow.UoWFactory, next commands.Bus, cmd commands.Command) (res any, err error) {
	unit, execCtx, err := uow.Bind(ctx, factory, uow.TxOptions{})
	if err != nil {
		return nil, err
	}
	done := false
	defer func() {
		if !done {
			_ = unit.Rollback(execCtx)
		}
	}()

	if res, err = next.Dispatch(execCtx, cmd); err != nil {
		return nil, err
	}
	if err = unit.Commit(execCtx); err != nil {
		return nil, err
	}
	done = true
	return res, nil
}
