package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"

	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
	domainreviews "rentacar/internal/domain/reviews"
)

var (
	ErrUnitOfWorkNotConfigured = errors.New("mongo: unit of work factory missing database")
	ErrUnitClosed              = errors.New("mongo: unit of work already finished")
)

const transientTxnLabel = "TransientTransactionError"

// Factory wires Mongo transactions into the generic UnitOfWork interface.
type Factory struct {
	DB *mongo.Database
}

// Begin starts a session and a transaction on it. Read-only units read from
// a snapshot.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.DB == nil {
		return nil, ErrUnitOfWorkNotConfigured
	}
	session, err := f.DB.Client().StartSession()
	if err != nil {
		return nil, err
	}
	txnOpts := options.Transaction().SetReadConcern(f.DB.ReadConcern()).SetWriteConcern(f.DB.WriteConcern())
	if opts.ReadOnly {
		txnOpts = txnOpts.SetReadConcern(readconcern.Snapshot())
	}
	if err := session.StartTransaction(txnOpts); err != nil {
		session.EndSession(ctx)
		return nil, err
	}
	return &Unit{
		session:   session,
		cars:      NewCarRepository(f.DB),
		calendars: NewCalendarRepository(f.DB),
		bookings:  NewBookingRepository(f.DB),
		reviews:   NewReviewRepository(f.DB),
	}, nil
}

type Unit struct {
	session mongo.Session
	done    bool

	cars      *CarRepository
	calendars *CalendarRepository
	bookings  *BookingRepository
	reviews   *ReviewRepository
}

func (u *Unit) Cars() domaincars.Repository { return u.cars }

func (u *Unit) Calendars() domainavailability.Repository { return u.calendars }

func (u *Unit) Bookings() domainbooking.Repository { return u.bookings }

func (u *Unit) Reviews() domainreviews.Repository { return u.reviews }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	defer u.session.EndSession(ctx)
	if err := u.session.CommitTransaction(ctx); err != nil {
		if isTransient(err) {
			return uow.ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.session.EndSession(ctx)
	return u.session.AbortTransaction(ctx)
}

// InjectContext ensures Mongo session is available in context for downstream repos.
func (u *Unit) InjectContext(ctx context.Context) context.Context {
	return mongo.NewSessionContext(ctx, u.session)
}

// isTransient reports write conflicts between concurrent transactions.
func isTransient(err error) bool {
	var se mongo.ServerError
	return errors.As(err, &se) && se.HasErrorLabel(transientTxnLabel)
}

// writeErr maps driver conflicts on versioned writes to uow.ErrConcurrentUpdate.
func writeErr(err error) error {
	if err == nil {
		return nil
	}
	if mongo.IsDuplicateKeyError(err) || isTransient(err) {
		return uow.ErrConcurrentUpdate
	}
	return err
}

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
