package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/domain/availability"
	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/pricing"
	"rentacar/internal/domain/shared/daterange"
)

func sep(d int) time.Time { return daterange.Date(2025, time.September, d) }

var schedule = availability.Ranges{
	{Range: daterange.DateRange{Start: sep(10), End: sep(12)}, Status: availability.ReservationConfirmed},
	{Range: daterange.DateRange{Start: sep(15), End: sep(16)}, Status: availability.ReservationPending},
}

func completeRequest() Request {
	r := NewRequest("car-1", sep(1), sep(7))
	r.Renter = Renter{FullName: "Nimal Perera", Email: "nimal@example.lk", Phone: "+94771234567", NICOrPassport: "901234567V"}
	r.TermsAccepted = true
	return r
}

func sampleCar() *cars.Car {
	return &cars.Car{ID: "car-1", Currency: "LKR", Rates: cars.Rates{Daily: 10000, Weekly: 63000, Monthly: 240000, DriverFeePerDay: 2500}}
}

func TestNewRequestDefaults(t *testing.T) {
	r := NewRequest("car-1", sep(5), sep(3))
	assert.Equal(t, sep(5), r.PickupDate)
	assert.Equal(t, sep(5), r.ReturnDate, "return clamps to pickup")
	assert.True(t, r.Addons.Has(pricing.AddonFullInsurance))
	assert.Equal(t, DefaultHandoverTime, r.PickupTime)
}

func TestSetPickupClampsReturnForward(t *testing.T) {
	r := NewRequest("car-1", sep(1), sep(3))
	r.SetPickupDate(sep(6))
	assert.Equal(t, sep(6), r.ReturnDate)

	r.SetPickupDate(sep(2))
	assert.Equal(t, sep(6), r.ReturnDate, "earlier pickup keeps return")

	r.SetReturnDate(sep(1))
	assert.Equal(t, sep(2), r.ReturnDate)
}

func TestSelectRejectsConfirmedAndKeepsPrevious(t *testing.T) {
	r := NewRequest("car-1", sep(1), sep(3))
	err := r.SelectPickupDate(schedule, sep(11))
	var du *DateUnavailableError
	require.ErrorAs(t, err, &du)
	assert.Equal(t, FieldPickupDate, du.Field)
	assert.ErrorIs(t, err, ErrDateUnavailable)
	assert.Equal(t, sep(1), r.PickupDate)
	assert.Equal(t, sep(3), r.ReturnDate)

	require.NoError(t, r.SelectPickupDate(schedule, sep(15)), "pending is a soft hold")
	assert.Equal(t, sep(15), r.ReturnDate)

	err = r.SelectReturnDate(schedule, sep(12))
	assert.ErrorIs(t, err, ErrDateUnavailable)
	assert.Equal(t, sep(15), r.ReturnDate)
}

func TestValidateOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Request)
		err    error
		field  string
	}{
		{"ok", func(*Request) {}, nil, ""},
		{"inverted", func(r *Request) { r.ReturnDate = sep(0) }, ErrInvalidRange, FieldReturnDate},
		{"pickup booked", func(r *Request) { r.PickupDate = sep(10); r.ReturnDate = sep(13) }, ErrDateUnavailable, FieldPickupDate},
		{"return booked", func(r *Request) { r.ReturnDate = sep(12) }, ErrDateUnavailable, FieldReturnDate},
		{"name", func(r *Request) { r.Renter.FullName = "  " }, ErrIncompleteRenterInfo, FieldFullName},
		{"phone", func(r *Request) { r.Renter.Phone = "" }, ErrIncompleteRenterInfo, FieldPhone},
		{"nic", func(r *Request) { r.Renter.NICOrPassport = "" }, ErrIncompleteRenterInfo, FieldNICOrPassport},
		{"email", func(r *Request) { r.Renter.Email = "nimal@" }, ErrInvalidEmail, FieldEmail},
		{"terms", func(r *Request) { r.TermsAccepted = false }, ErrTermsNotAccepted, FieldTerms},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := completeRequest()
			tc.mutate(&r)
			d := Validate(r, schedule)
			if tc.err == nil {
				assert.True(t, d.OK())
				assert.NoError(t, d.Reason)
				return
			}
			assert.Equal(t, StateRejected, d.State)
			assert.ErrorIs(t, d.Reason, tc.err)
			assert.Equal(t, tc.field, d.Field())
		})
	}
}

func TestValidateReportsFirstFailure(t *testing.T) {
	r := completeRequest()
	r.Renter = Renter{}
	r.TermsAccepted = false
	d := Validate(r, schedule)
	assert.ErrorIs(t, d.Reason, ErrIncompleteRenterInfo)
	assert.Equal(t, FieldFullName, d.Field())
}

func TestFlowTransitions(t *testing.T) {
	r := completeRequest()
	r.TermsAccepted = false
	f := NewFlow(r)
	assert.Equal(t, StateEditing, f.State())

	_, err := f.Submit()
	assert.ErrorIs(t, err, ErrInvalidTransition)

	d, err := f.Validate(schedule)
	require.NoError(t, err)
	assert.Equal(t, StateRejected, d.State)
	assert.ErrorIs(t, f.Reason(), ErrTermsNotAccepted)

	require.NoError(t, f.Edit(func(r *Request) error { r.TermsAccepted = true; return nil }))
	assert.Equal(t, StateEditing, f.State())
	assert.NoError(t, f.Reason())

	d, err = f.Validate(schedule)
	require.NoError(t, err)
	assert.True(t, d.OK())

	boom := errors.New("boom")
	assert.ErrorIs(t, f.Edit(func(r *Request) error { r.WithDriver = true; return boom }), boom)
	assert.Equal(t, StateValidated, f.State())
	assert.False(t, f.Request().WithDriver)

	submitted, err := f.Submit()
	require.NoError(t, err)
	assert.Equal(t, StateSubmitted, f.State())
	assert.Equal(t, r.CarID, submitted.CarID)

	assert.ErrorIs(t, f.Edit(func(*Request) error { return nil }), ErrInvalidTransition)
	_, err = f.Validate(schedule)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestFlowEditRejectedByCalendarKeepsState(t *testing.T) {
	f := NewFlow(completeRequest())
	err := f.Edit(func(r *Request) error { return r.SelectPickupDate(schedule, sep(10)) })
	assert.ErrorIs(t, err, ErrDateUnavailable)
	assert.Equal(t, sep(1), f.Request().PickupDate)
}

func TestComputeQuoteFromRequest(t *testing.T) {
	e := pricing.MustEngine(pricing.DefaultConfig(), pricing.DefaultPromoTable())
	r := completeRequest()
	r.Addons = pricing.AddonSet{}
	q, err := ComputeQuote(context.Background(), e, sampleCar(), r)
	require.NoError(t, err)
	assert.Equal(t, int64(69000), q.Total.Amount)

	r.ApplyPromo(" welcome5 ")
	assert.Equal(t, "WELCOME5", r.PromoCode)
	q, err = ComputeQuote(context.Background(), e, sampleCar(), r)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), q.PromoDiscount.Amount)
}

func TestBookingLifecycle(t *testing.T) {
	e := pricing.MustEngine(pricing.DefaultConfig(), nil)
	r := completeRequest()
	q, err := ComputeQuote(context.Background(), e, sampleCar(), r)
	require.NoError(t, err)

	_, err = NewBooking(CreateParams{ID: "b1", Request: r, Quote: q, CreatedAt: sep(1)})
	assert.ErrorIs(t, err, ErrRenterRequired)

	b, err := NewBooking(CreateParams{ID: "b1", RenterID: "u1", Request: r, Quote: q, CreatedAt: sep(1)})
	require.NoError(t, err)
	assert.Equal(t, StatePending, b.State)
	assert.Equal(t, []pricing.AddonKind{pricing.AddonFullInsurance}, b.Terms.Addons)
	assert.True(t, b.Cancellable())

	assert.ErrorIs(t, b.Complete(sep(8)), ErrInvalidState)
	require.NoError(t, b.Confirm(sep(2)))
	assert.ErrorIs(t, b.Confirm(sep(2)), ErrInvalidState)
	assert.ErrorIs(t, b.Complete(sep(7)), ErrNotFinished)
	require.NoError(t, b.Complete(sep(8)))
	assert.True(t, b.Reviewable())
	assert.ErrorIs(t, b.Cancel("late", sep(9)), ErrInvalidState)

	var names []string
	for _, ev := range b.PendingEvents() {
		names = append(names, ev.EventName())
	}
	assert.Equal(t, []string{"booking.requested", "booking.confirmed", "booking.completed"}, names)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "Nimal@example.lk", NormalizeEmail(" Nimal@EXAMPLE.lk "))
	assert.Equal(t, "nope", NormalizeEmail("nope"))
}
