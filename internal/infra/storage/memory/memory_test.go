package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appoutbox "rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domaincars "rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
)

var now = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func newCar(t *testing.T, id string, daily int64) *domaincars.Car {
	t.Helper()
	c, err := domaincars.NewCar(domaincars.CarID(id), domaincars.Details{
		Brand:    "Toyota",
		Model:    id,
		Seats:    5,
		Rates:    domaincars.Rates{Daily: daily, Weekly: daily * 6, Monthly: daily * 24},
		Location: domaincars.Location{District: "Colombo"},
	}, now)
	require.NoError(t, err)
	return c
}

func TestUnitStagesUntilCommit(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	unit, err := store.Factory().Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, unit.Cars().Save(ctx, newCar(t, "a", 100)))

	_, err = store.Cars.ByID(ctx, "a")
	assert.ErrorIs(t, err, domaincars.ErrCarNotFound)
	got, err := unit.Cars().ByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)

	require.NoError(t, unit.Commit(ctx))
	_, err = store.Cars.ByID(ctx, "a")
	assert.NoError(t, err)
	assert.ErrorIs(t, unit.Commit(ctx), ErrUnitClosed)
}

func TestRollbackDiscardsWritesAndRecords(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	unit, err := store.Factory().Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	execCtx := uow.ContextWithUnitOfWork(ctx, unit)
	require.NoError(t, unit.Cars().Save(execCtx, newCar(t, "a", 100)))
	require.NoError(t, store.Outbox.Add(execCtx, appoutbox.EventRecord{ID: "e1", Name: "car.listed"}))
	require.NoError(t, unit.Rollback(execCtx))

	_, err = store.Cars.ByID(ctx, "a")
	assert.ErrorIs(t, err, domaincars.ErrCarNotFound)
	assert.Zero(t, store.Outbox.Pending())
}

func TestConcurrentCalendarWritesConflict(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	r := daterange.DateRange{Start: daterange.Date(2025, 9, 10), End: daterange.Date(2025, 9, 12)}

	first, err := store.Factory().Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)
	second, err := store.Factory().Begin(ctx, uow.TxOptions{})
	require.NoError(t, err)

	for i, unit := range []uow.UnitOfWork{first, second} {
		cal, err := unit.Calendars().Calendar(ctx, "car-1")
		require.NoError(t, err)
		require.NoError(t, cal.Hold(r, []string{"b1", "b2"}[i], now))
		require.NoError(t, unit.Calendars().Save(ctx, cal))
	}
	require.NoError(t, first.Commit(ctx))
	assert.ErrorIs(t, second.Commit(ctx), uow.ErrConcurrentUpdate)

	cal, err := store.Calendars.Calendar(ctx, "car-1")
	require.NoError(t, err)
	assert.Len(t, cal.Entries, 1)
	assert.Equal(t, domainavailability.ReservationPending, cal.Entries[0].Status)
}

func TestCarSearchPagesSortedResults(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	for i, daily := range []int64{300, 100, 200} {
		require.NoError(t, store.Cars.Save(ctx, newCar(t, string(rune('a'+i)), daily)))
	}
	res, err := store.Cars.Search(ctx, domaincars.SearchParams{Sort: domaincars.SortByPriceAsc, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Total)
	require.Len(t, res.Items, 2)
	assert.Equal(t, int64(100), res.Items[0].Rates.Daily)
}

func TestReturnedAggregatesAreCopies(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	require.NoError(t, store.Cars.Save(ctx, newCar(t, "a", 100)))
	c, err := store.Cars.ByID(ctx, "a")
	require.NoError(t, err)
	c.Brand = "Changed"
	again, err := store.Cars.ByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Toyota", again.Brand)
}
