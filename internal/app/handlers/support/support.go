package support

import (
	"context"
	"time"

	"rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	"rentacar/internal/domain/shared/events"
)

// ReadUnit returns the unit bound to ctx or a read-only one. cleanup is
// always safe to call.
func ReadUnit(ctx context.Context, factory uow.UoWFactory) (uow.UnitOfWork, context.Context, func(), error) {
	unit, execCtx, _, release, err := uow.Reuse(ctx, factory, uow.TxOptions{ReadOnly: true})
	return unit, execCtx, release, err
}

// WriteUnit returns the unit bound to ctx or begins one. commit is a no-op
// for borrowed units; the owner of the transaction commits it.
func WriteUnit(ctx context.Context, factory uow.UoWFactory) (unit uow.UnitOfWork, execCtx context.Context, commit func() error, cleanup func(), err error) {
	unit, execCtx, owned, release, err := uow.Reuse(ctx, factory, uow.TxOptions{})
	if err != nil {
		return nil, ctx, nil, func() {}, err
	}
	commit = func() error {
		if !owned {
			return nil
		}
		return unit.Commit(execCtx)
	}
	return unit, execCtx, commit, release, nil
}

// Clock defaults to UTC wall time.
type Clock func() time.Time

func (c Clock) Now() time.Time {
	if c != nil {
		return c().UTC()
	}
	return time.Now().UTC()
}

// Record drains aggregate events into the outbox when one is configured.
func Record(ctx context.Context, box outbox.Outbox, encoder outbox.EventEncoder, aggregates ...events.Recorder) error {
	if box == nil {
		for _, a := range aggregates {
			if a != nil {
				a.ClearEvents()
			}
		}
		return nil
	}
	if encoder == nil {
		encoder = outbox.JSONEventEncoder{}
	}
	return outbox.Drain(ctx, box, encoder, aggregates...)
}
