package memory

import (
	"context"
	"errors"
	"sync"

	appoutbox "rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
	domainreviews "rentacar/internal/domain/reviews"
)

var ErrUnitClosed = errors.New("memory: unit of work already finished")

// Store holds the committed state. Its repositories write straight through
// and are meant for fixtures and tests; handlers go through Factory units.
type Store struct {
	commitMu  sync.Mutex
	cars      *table[domaincars.CarID, *domaincars.Car]
	calendars *table[domaincars.CarID, *domainavailability.Calendar]
	bookings  *table[domainbooking.BookingID, *domainbooking.Booking]
	reviews   *table[domainreviews.ReviewID, *domainreviews.Review]

	Cars      *CarRepository
	Calendars *CalendarRepository
	Bookings  *BookingRepository
	Reviews   *ReviewRepository
	Outbox    *Outbox
}

func NewStore() *Store {
	s := &Store{
		cars:      newTable[domaincars.CarID](cloneCar, carVersion),
		calendars: newTable[domaincars.CarID](cloneCalendar, calendarVersion),
		bookings:  newTable[domainbooking.BookingID](cloneBooking, bookingVersion),
		reviews:   newTable[domainreviews.ReviewID](cloneReview, nil),
	}
	s.Cars = &CarRepository{rows: s.cars}
	s.Calendars = &CalendarRepository{rows: s.calendars}
	s.Bookings = &BookingRepository{rows: s.bookings}
	s.Reviews = &ReviewRepository{rows: s.reviews}
	s.Outbox = NewOutbox()
	return s
}

func (s *Store) Factory() Factory { return Factory{Store: s} }

// Factory begins units over a Store.
type Factory struct {
	Store *Store
}

func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.Store == nil {
		return nil, errors.New("memory: store is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Unit{
		store:     f.Store,
		readOnly:  opts.ReadOnly,
		cars:      newStaged(f.Store.cars),
		calendars: newStaged(f.Store.calendars),
		bookings:  newStaged(f.Store.bookings),
		reviews:   newStaged(f.Store.reviews),
	}, nil
}

// Unit stages every write and applies them together on Commit. Commit fails
// with uow.ErrConcurrentUpdate if a versioned aggregate changed meanwhile.
type Unit struct {
	store     *Store
	readOnly  bool
	done      bool
	cars      *staged[domaincars.CarID, *domaincars.Car]
	calendars *staged[domaincars.CarID, *domainavailability.Calendar]
	bookings  *staged[domainbooking.BookingID, *domainbooking.Booking]
	reviews   *staged[domainreviews.ReviewID, *domainreviews.Review]
	records   []appoutbox.EventRecord
}

func (u *Unit) stageRecord(rec appoutbox.EventRecord) {
	u.records = append(u.records, rec)
}

func (u *Unit) Cars() domaincars.Repository { return &CarRepository{rows: u.cars} }

func (u *Unit) Calendars() domainavailability.Repository {
	return &CalendarRepository{rows: u.calendars}
}

func (u *Unit) Bookings() domainbooking.Repository { return &BookingRepository{rows: u.bookings} }

func (u *Unit) Reviews() domainreviews.Repository { return &ReviewRepository{rows: u.reviews} }

func (u *Unit) Commit(ctx context.Context) error {
	if u.done {
		return ErrUnitClosed
	}
	u.done = true
	if u.readOnly {
		return nil
	}
	u.store.commitMu.Lock()
	defer u.store.commitMu.Unlock()
	if u.cars.conflict() || u.calendars.conflict() || u.bookings.conflict() || u.reviews.conflict() {
		return uow.ErrConcurrentUpdate
	}
	u.cars.apply()
	u.calendars.apply()
	u.bookings.apply()
	u.reviews.apply()
	if len(u.records) > 0 {
		u.store.Outbox.enqueue(u.records...)
		u.records = nil
	}
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	if u.done {
		return nil
	}
	u.done = true
	u.cars.reset()
	u.calendars.reset()
	u.bookings.reset()
	u.reviews.reset()
	u.records = nil
	return nil
}

var (
	_ uow.UoWFactory = Factory{}
	_ uow.UnitOfWork = (*Unit)(nil)
)
