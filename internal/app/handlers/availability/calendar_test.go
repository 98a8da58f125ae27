package availability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/app/access"
	availabilityapp "rentacar/internal/app/handlers/availability"
	domainauth "rentacar/internal/domain/auth"
	domainavailability "rentacar/internal/domain/availability"
	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
	domainuser "rentacar/internal/domain/user"
	"rentacar/internal/infra/storage/memory"
)

func sep(d int) time.Time { return daterange.Date(2025, time.September, d) }

func setup(t *testing.T) (*availabilityapp.Handler, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	car, err := cars.NewCar("car-1", cars.Details{
		Brand:    "Toyota",
		Model:    "Aqua",
		Seats:    5,
		Rates:    cars.Rates{Daily: 10000, Weekly: 63000, Monthly: 240000},
		Location: cars.Location{District: "Colombo"},
	}, sep(1))
	require.NoError(t, err)
	require.NoError(t, store.Cars.Save(context.Background(), car))
	cal := domainavailability.NewCalendar("car-1")
	require.NoError(t, cal.Hold(daterange.DateRange{Start: sep(3), End: sep(5)}, "b1", sep(1)))
	require.NoError(t, cal.Confirm("b1", sep(1)))
	require.NoError(t, store.Calendars.Save(context.Background(), cal))
	h := &availabilityapp.Handler{UoWFactory: store.Factory(), Clock: func() time.Time { return sep(2) }}
	return h, store
}

func TestMonthGrid(t *testing.T) {
	h, _ := setup(t)
	out, err := h.Month(context.Background(), availabilityapp.MonthQuery{CarID: "car-1", Year: 2025, Month: 9, WeekStartsMonday: true})
	require.NoError(t, err)
	require.Len(t, out.Weeks, 6)
	for _, w := range out.Weeks {
		require.Len(t, w, 7)
	}
	assert.Equal(t, "2025-09-01", out.Weeks[0][0].Date)
	assert.True(t, out.Weeks[0][1].Today)
	assert.Equal(t, "Booked", out.Weeks[0][2].Label)
	assert.False(t, out.Weeks[0][2].Bookable)
	assert.Empty(t, out.Reservations, "references are admin only")

	_, err = h.Month(context.Background(), availabilityapp.MonthQuery{CarID: "car-1", Month: 13})
	assert.ErrorIs(t, err, availabilityapp.ErrInvalidMonth)

	_, err = h.Month(context.Background(), availabilityapp.MonthQuery{CarID: "nope"})
	assert.ErrorIs(t, err, cars.ErrCarNotFound)
}

func TestPaintAndCheck(t *testing.T) {
	h, _ := setup(t)
	ctx := context.Background()
	day, err := h.Paint(ctx, availabilityapp.PaintDayCommand{CarID: "car-1", Date: sep(9), Status: domainavailability.StatusPending})
	require.NoError(t, err)
	assert.Equal(t, "Pending", day.Label)
	assert.True(t, day.Bookable)

	day, err = h.Check(ctx, availabilityapp.CheckDateQuery{CarID: "car-1", Date: sep(4)})
	require.NoError(t, err)
	assert.Equal(t, string(domainavailability.StatusConfirmed), day.Status)
	assert.False(t, day.Bookable)

	admin := domainauth.WithSession(ctx, &domainauth.Session{UserID: "a", Roles: []domainuser.Role{domainuser.RoleAdmin}})
	require.True(t, access.IsAdmin(admin))
	out, err := h.Month(admin, availabilityapp.MonthQuery{CarID: "car-1", Year: 2025, Month: 9})
	require.NoError(t, err)
	require.Len(t, out.Reservations, 2)
}
