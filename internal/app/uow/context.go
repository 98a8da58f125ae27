package uow

import (
	"context"
	"errors"
)

var ErrUnitOfWorkMissing = errors.New("uow: unit of work missing from context")

type ctxKey struct{}

func ContextWithUnitOfWork(ctx context.Context, unit UnitOfWork) context.Context {
	return context.WithValue(ctx, ctxKey{}, unit)
}

func FromContext(ctx context.Context) (UnitOfWork, bool) {
	val := ctx.Value(ctxKey{})
	if val == nil {
		return nil, false
	}
	unit, ok := val.(UnitOfWork)
	return unit, ok
}

// contextInjector is implemented by units that carry driver state (a mongo
// session) in the context.
type contextInjector interface {
	InjectContext(context.Context) context.Context
}

func bind(ctx context.Context, unit UnitOfWork) context.Context {
	if injector, ok := unit.(contextInjector); ok {
		ctx = injector.InjectContext(ctx)
	}
	return ContextWithUnitOfWork(ctx, unit)
}

// Bind starts a unit and stores it in the returned context.
func Bind(ctx context.Context, factory UoWFactory, opts TxOptions) (UnitOfWork, context.Context, error) {
	if factory == nil {
		return nil, ctx, ErrUnitOfWorkMissing
	}
	unit, err := factory.Begin(ctx, opts)
	if err != nil {
		return nil, ctx, err
	}
	return unit, bind(ctx, unit), nil
}

// Reuse returns the unit already in ctx or begins one. release must be
// called when done; it rolls back only units begun here, which is a no-op
// after Commit.
func Reuse(ctx context.Context, factory UoWFactory, opts TxOptions) (unit UnitOfWork, execCtx context.Context, owned bool, release func(), err error) {
	if existing, ok := FromContext(ctx); ok {
		return existing, ctx, false, func() {}, nil
	}
	unit, execCtx, err = Bind(ctx, factory, opts)
	if err != nil {
		return nil, ctx, false, func() {}, err
	}
	committed := false
	release = func() {
		if !committed {
			_ = unit.Rollback(execCtx)
		}
	}
	return &trackedUnit{UnitOfWork: unit, committed: &committed}, execCtx, true, release, nil
}

type trackedUnit struct {
	UnitOfWork
	committed *bool
}

func (t *trackedUnit) Commit(ctx context.Context) error {
	if err := t.UnitOfWork.Commit(ctx); err != nil {
		return err
	}
	*t.committed = true
	return nil
}
