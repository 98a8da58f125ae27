package uow

import (
	"context"
	"errors"

	domainavailability "rentacar/internal/domain/availability"
	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
	domainreviews "rentacar/internal/domain/reviews"
)

// UnitOfWork coordinates repositories inside a transaction boundary.
type UnitOfWork interface {
	Cars() domaincars.Repository
	Calendars() domainavailability.Repository
	Bookings() domainbooking.Repository
	Reviews() domainreviews.Repository

	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

type UoWFactory interface {
	Begin(ctx context.Context, opts TxOptions) (UnitOfWork, error)
}

type TxOptions struct {
	ReadOnly bool
}

// ErrConcurrentUpdate is returned by Commit when an aggregate changed after
// it was loaded.
var ErrConcurrentUpdate = errors.New("uow: aggregate modified concurrently")
