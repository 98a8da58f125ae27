package reviews_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	reviewsapp "rentacar/internal/app/handlers/reviews"
	domainauth "rentacar/internal/domain/auth"
	domainbooking "rentacar/internal/domain/booking"
	"rentacar/internal/domain/cars"
	domainreviews "rentacar/internal/domain/reviews"
	"rentacar/internal/domain/shared/daterange"
	domainuser "rentacar/internal/domain/user"
	"rentacar/internal/infra/storage/memory"
)

func sep(d int) time.Time { return daterange.Date(2025, time.September, d) }

func as(userID string, roles ...domainuser.Role) context.Context {
	return domainauth.WithSession(context.Background(), &domainauth.Session{UserID: domainuser.ID(userID), Roles: roles})
}

func seed(t *testing.T, states map[string]domainbooking.BookingState) *memory.Store {
	t.Helper()
	store := memory.NewStore()
	ctx := context.Background()
	car, err := cars.NewCar("car-1", cars.Details{
		Brand:    "Suzuki",
		Model:    "Wagon R",
		Seats:    4,
		Rates:    cars.Rates{Daily: 7000, Weekly: 42000, Monthly: 150000},
		Location: cars.Location{District: "Kandy"},
	}, sep(1))
	require.NoError(t, err)
	require.NoError(t, store.Cars.Save(ctx, car))
	for id, state := range states {
		require.NoError(t, store.Bookings.Save(ctx, &domainbooking.Booking{
			ID:       domainbooking.BookingID(id),
			CarID:    "car-1",
			RenterID: "u1",
			Renter:   domainbooking.Renter{FullName: "Kamala Silva"},
			Range:    daterange.DateRange{Start: sep(1), End: sep(3)},
			State:    state,
		}))
	}
	return store
}

func TestReviewLifecycleUpdatesRatingAndFeed(t *testing.T) {
	store := seed(t, map[string]domainbooking.BookingState{"b1": domainbooking.StateCompleted, "b2": domainbooking.StateCompleted})
	feed := domainreviews.NewFeed()
	var kinds []domainreviews.ChangeKind
	stop := feed.Subscribe(func(c domainreviews.Change) { kinds = append(kinds, c.Kind) })
	defer stop()
	h := &reviewsapp.Handler{UoWFactory: store.Factory(), Outbox: store.Outbox, Feed: feed, Clock: func() time.Time { return sep(5) }}
	lists := &reviewsapp.ListHandler{UoWFactory: store.Factory()}
	admin := as("admin", domainuser.RoleAdmin)

	r1, err := h.Submit(as("u1"), reviewsapp.SubmitCommand{BookingID: "b1", Rating: 5, Text: "Spotless"})
	require.NoError(t, err)
	assert.Equal(t, "pending", r1.Status)
	assert.Equal(t, "Kamala Silva", r1.AuthorName)

	_, err = h.Submit(as("u1"), reviewsapp.SubmitCommand{BookingID: "b1", Rating: 4})
	assert.ErrorIs(t, err, domainreviews.ErrDuplicateReview)

	r2, err := h.Submit(as("u1"), reviewsapp.SubmitCommand{BookingID: "b2", Rating: 2})
	require.NoError(t, err)

	public, err := lists.ForCar(context.Background(), reviewsapp.CarReviewsQuery{CarID: "car-1"})
	require.NoError(t, err)
	assert.Zero(t, public.Total, "pending reviews are hidden")

	_, err = h.Moderate(admin, reviewsapp.ModerateCommand{ReviewID: r1.ID, Status: domainreviews.StatusApproved})
	require.NoError(t, err)
	_, err = h.Moderate(admin, reviewsapp.ModerateCommand{ReviewID: r2.ID, Status: domainreviews.StatusApproved})
	require.NoError(t, err)

	car, err := store.Cars.ByID(context.Background(), "car-1")
	require.NoError(t, err)
	assert.InDelta(t, 3.5, car.Rating, 1e-9)
	assert.Equal(t, 2, car.RatingCount)

	_, err = h.Moderate(admin, reviewsapp.ModerateCommand{ReviewID: r2.ID, Status: domainreviews.StatusRejected})
	require.NoError(t, err)
	car, err = store.Cars.ByID(context.Background(), "car-1")
	require.NoError(t, err)
	assert.InDelta(t, 5.0, car.Rating, 1e-9)

	replied, err := h.Reply(admin, reviewsapp.ReplyCommand{ReviewID: r1.ID, Text: "Thanks for renting with us"})
	require.NoError(t, err)
	require.NotNil(t, replied.Reply)

	_, err = h.Delete(admin, reviewsapp.DeleteCommand{ReviewID: r1.ID})
	require.NoError(t, err)
	car, err = store.Cars.ByID(context.Background(), "car-1")
	require.NoError(t, err)
	assert.Zero(t, car.RatingCount)

	all, err := lists.All(admin, reviewsapp.AllReviewsQuery{})
	require.NoError(t, err)
	assert.Equal(t, 1, all.Total)

	assert.Equal(t, []domainreviews.ChangeKind{
		domainreviews.ChangeSubmitted, domainreviews.ChangeSubmitted,
		domainreviews.ChangeApproved, domainreviews.ChangeApproved,
		domainreviews.ChangeRejected, domainreviews.ChangeReplied, domainreviews.ChangeDeleted,
	}, kinds)
}

func TestSubmitRequiresCompletedBooking(t *testing.T) {
	store := seed(t, map[string]domainbooking.BookingState{"b1": domainbooking.StateConfirmed})
	h := &reviewsapp.Handler{UoWFactory: store.Factory()}
	_, err := h.Submit(as("u1"), reviewsapp.SubmitCommand{BookingID: "b1", Rating: 5})
	assert.ErrorIs(t, err, domainreviews.ErrNotReviewable)
	_, err = h.Submit(as("u2"), reviewsapp.SubmitCommand{BookingID: "b1", Rating: 5})
	assert.ErrorIs(t, err, domainreviews.ErrNotAuthor)
}
