package booking_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/app/access"
	bookingapp "rentacar/internal/app/handlers/booking"
	domainauth "rentacar/internal/domain/auth"
	domainavailability "rentacar/internal/domain/availability"
	domainbooking "rentacar/internal/domain/booking"
	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/pricing"
	"rentacar/internal/domain/shared/daterange"
	domainuser "rentacar/internal/domain/user"
	"rentacar/internal/infra/storage/memory"
)

func sep(d int) time.Time { return daterange.Date(2025, time.September, d) }

type fixture struct {
	store     *memory.Store
	submit    *bookingapp.SubmitHandler
	validate  *bookingapp.ValidateHandler
	lifecycle *bookingapp.LifecycleHandler
	lists     *bookingapp.ListHandler
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	store := memory.NewStore()
	car, err := cars.NewCar("car-1", cars.Details{
		Brand:    "Toyota",
		Model:    "Aqua",
		Seats:    5,
		Rates:    cars.Rates{Daily: 10000, Weekly: 63000, Monthly: 240000, DriverFeePerDay: 2500},
		Location: cars.Location{District: "Colombo"},
	}, sep(1))
	require.NoError(t, err)
	require.NoError(t, store.Cars.Save(context.Background(), car))

	engine := pricing.MustEngine(pricing.DefaultConfig(), pricing.DefaultPromoTable())
	clock := func() time.Time { return sep(1) }
	factory := store.Factory()
	return fixture{
		store:     store,
		submit:    &bookingapp.SubmitHandler{UoWFactory: factory, Pricing: engine, Outbox: store.Outbox, Clock: clock},
		validate:  &bookingapp.ValidateHandler{UoWFactory: factory, Pricing: engine},
		lifecycle: &bookingapp.LifecycleHandler{UoWFactory: factory, Outbox: store.Outbox, Clock: clock},
		lists:     &bookingapp.ListHandler{UoWFactory: factory},
	}
}

func as(userID string, roles ...domainuser.Role) context.Context {
	return domainauth.WithSession(context.Background(), &domainauth.Session{Token: "t-" + domainauth.Token(userID), UserID: domainuser.ID(userID), Roles: roles})
}

func request(from, to int) domainbooking.Request {
	r := domainbooking.NewRequest("car-1", sep(from), sep(to))
	r.Addons = pricing.AddonSet{}
	r.Renter = domainbooking.Renter{FullName: "Nimal Perera", Email: "nimal@example.lk", Phone: "+94771234567", NICOrPassport: "901234567V"}
	r.TermsAccepted = true
	return r
}

func TestSubmitCreatesPendingBookingAndHold(t *testing.T) {
	f := newFixture(t)
	ctx := as("u1")
	b, err := f.submit.Handle(ctx, bookingapp.SubmitCommand{BookingID: "b1", Request: request(1, 7)})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StatePending), b.State)
	assert.Equal(t, int64(69000), b.Quote.Total.Amount)
	assert.Equal(t, "u1", b.RenterID)

	cal, err := f.store.Calendars.Calendar(context.Background(), "car-1")
	require.NoError(t, err)
	entry, ok := cal.Entry("b1")
	require.True(t, ok)
	assert.Equal(t, domainavailability.ReservationPending, entry.Status)
	assert.Positive(t, f.store.Outbox.Pending())
}

func TestSubmitRequiresSession(t *testing.T) {
	f := newFixture(t)
	_, err := f.submit.Handle(context.Background(), bookingapp.SubmitCommand{Request: request(1, 3)})
	assert.ErrorIs(t, err, access.ErrUnauthenticated)
}

func TestSubmitRejectsInvalidRequestWithoutSideEffects(t *testing.T) {
	f := newFixture(t)
	r := request(1, 3)
	r.TermsAccepted = false
	_, err := f.submit.Handle(as("u1"), bookingapp.SubmitCommand{BookingID: "b1", Request: r})
	assert.ErrorIs(t, err, domainbooking.ErrTermsNotAccepted)

	_, err = f.store.Bookings.ByID(context.Background(), "b1")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	assert.Zero(t, f.store.Outbox.Pending())
}

func TestConfirmedRangeBlocksOverlappingSubmit(t *testing.T) {
	f := newFixture(t)
	_, err := f.submit.Handle(as("u1"), bookingapp.SubmitCommand{BookingID: "b1", Request: request(10, 12)})
	require.NoError(t, err)
	_, err = f.submit.Handle(as("u2"), bookingapp.SubmitCommand{BookingID: "b2", Request: request(11, 14)})
	require.NoError(t, err, "pending does not block")

	admin := as("admin", domainuser.RoleAdmin)
	confirmed, err := f.lifecycle.Confirm(admin, bookingapp.ConfirmCommand{BookingID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateConfirmed), confirmed.State)

	_, err = f.lifecycle.Confirm(admin, bookingapp.ConfirmCommand{BookingID: "b2"})
	assert.ErrorIs(t, err, domainavailability.ErrConfirmedOverlap)

	_, err = f.submit.Handle(as("u3"), bookingapp.SubmitCommand{BookingID: "b3", Request: request(12, 14)})
	assert.ErrorIs(t, err, domainbooking.ErrDateUnavailable, "pickup on a booked day")

	// Both endpoints are free; the hold still sees the booked middle.
	_, err = f.submit.Handle(as("u3"), bookingapp.SubmitCommand{BookingID: "b3", Request: request(9, 13)})
	assert.ErrorIs(t, err, domainavailability.ErrConfirmedOverlap)

	_, err = f.submit.Handle(as("u3"), bookingapp.SubmitCommand{BookingID: "b3", Request: request(13, 15)})
	require.NoError(t, err)
}

func TestHoldCatchesConfirmedDaysInsideRange(t *testing.T) {
	f := newFixture(t)
	_, err := f.submit.Handle(as("u1"), bookingapp.SubmitCommand{BookingID: "b1", Request: request(11, 11)})
	require.NoError(t, err)
	_, err = f.lifecycle.Confirm(as("admin", domainuser.RoleAdmin), bookingapp.ConfirmCommand{BookingID: "b1"})
	require.NoError(t, err)

	var logs bytes.Buffer
	f.submit.Logger = slog.New(slog.NewTextHandler(&logs, nil))
	before := f.store.Outbox.Pending()
	_, err = f.submit.Handle(as("u2"), bookingapp.SubmitCommand{BookingID: "b2", Request: request(10, 12)})
	var overlap *domainavailability.OverlapError
	require.ErrorAs(t, err, &overlap)
	assert.ErrorIs(t, err, domainavailability.ErrConfirmedOverlap)
	assert.Equal(t, "b1", overlap.Conflict)

	assert.Equal(t, before, f.store.Outbox.Pending(), "a refused hold emits nothing")
	_, err = f.store.Bookings.ByID(context.Background(), "b2")
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	cal, err := f.store.Calendars.Calendar(context.Background(), "car-1")
	require.NoError(t, err)
	_, held := cal.Entry("b2")
	assert.False(t, held)
	assert.Contains(t, logs.String(), "overbooking prevented")
	assert.Contains(t, logs.String(), "conflict=b1")
}

func TestCancelReleasesHoldAndChecksOwner(t *testing.T) {
	f := newFixture(t)
	_, err := f.submit.Handle(as("u1"), bookingapp.SubmitCommand{BookingID: "b1", Request: request(10, 12)})
	require.NoError(t, err)

	_, err = f.lifecycle.Cancel(as("u2"), bookingapp.CancelCommand{BookingID: "b1"})
	assert.ErrorIs(t, err, bookingapp.ErrNotOwner)

	out, err := f.lifecycle.Cancel(as("u1"), bookingapp.CancelCommand{BookingID: "b1", Reason: "plans changed"})
	require.NoError(t, err)
	assert.Equal(t, string(domainbooking.StateCancelled), out.State)
	assert.Equal(t, "plans changed", out.CancelReason)

	cal, err := f.store.Calendars.Calendar(context.Background(), "car-1")
	require.NoError(t, err)
	assert.Empty(t, cal.Entries)

	_, err = f.lifecycle.Cancel(as("u1"), bookingapp.CancelCommand{BookingID: "b1"})
	assert.ErrorIs(t, err, domainbooking.ErrInvalidState)
}

func TestCompleteFinished(t *testing.T) {
	f := newFixture(t)
	admin := as("admin", domainuser.RoleAdmin)
	for _, id := range []string{"b1", "b2"} {
		from := map[string]int{"b1": 2, "b2": 20}[id]
		_, err := f.submit.Handle(as("u1"), bookingapp.SubmitCommand{BookingID: id, Request: request(from, from+2)})
		require.NoError(t, err)
		_, err = f.lifecycle.Confirm(admin, bookingapp.ConfirmCommand{BookingID: id})
		require.NoError(t, err)
	}
	res, err := f.lifecycle.CompleteFinished(context.Background(), bookingapp.CompleteFinishedCommand{Now: sep(10)})
	require.NoError(t, err)
	assert.Equal(t, []string{"b1"}, res.Completed)

	mine, err := f.lists.Mine(as("u1"), bookingapp.MyBookingsQuery{})
	require.NoError(t, err)
	require.Equal(t, 2, mine.Total)
	states := map[string]string{}
	for _, b := range mine.Items {
		states[b.ID] = b.State
	}
	assert.Equal(t, "COMPLETED", states["b1"])
	assert.Equal(t, "CONFIRMED", states["b2"])
	assert.True(t, mine.Items[0].Reviewable || mine.Items[1].Reviewable)
}

func TestValidateReturnsDecisionAndQuote(t *testing.T) {
	f := newFixture(t)
	ok, err := f.validate.Handle(context.Background(), bookingapp.ValidateQuery{Request: request(1, 8)})
	require.NoError(t, err)
	assert.True(t, ok.OK)
	require.NotNil(t, ok.Quote)
	assert.Equal(t, int64(65205), ok.Quote.Total.Amount)

	r := request(1, 8)
	r.Renter.Email = "broken"
	bad, err := f.validate.Handle(context.Background(), bookingapp.ValidateQuery{Request: r})
	require.NoError(t, err)
	assert.False(t, bad.OK)
	assert.Equal(t, domainbooking.FieldEmail, bad.Field)
	assert.Nil(t, bad.Quote)
}

func TestGetBookingHidesOtherRenters(t *testing.T) {
	f := newFixture(t)
	_, err := f.submit.Handle(as("u1"), bookingapp.SubmitCommand{BookingID: "b1", Request: request(1, 2)})
	require.NoError(t, err)
	_, err = f.lists.Get(as("u2"), bookingapp.GetBookingQuery{BookingID: "b1"})
	assert.ErrorIs(t, err, domainbooking.ErrBookingNotFound)
	got, err := f.lists.Get(as("admin", domainuser.RoleAdmin), bookingapp.GetBookingQuery{BookingID: "b1"})
	require.NoError(t, err)
	assert.Equal(t, "b1", got.ID)
}
