package reviews

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/domain/booking"
	"rentacar/internal/domain/shared/daterange"
)

var now = time.Date(2025, 9, 20, 9, 0, 0, 0, time.UTC)

func completedBooking(state booking.BookingState) *booking.Booking {
	return &booking.Booking{
		ID:       "b1",
		CarID:    "car-1",
		RenterID: "u1",
		Renter:   booking.Renter{FullName: "Nimal Perera"},
		Range:    daterange.DateRange{Start: daterange.Date(2025, 9, 1), End: daterange.Date(2025, 9, 7)},
		State:    state,
	}
}

func TestSubmitRules(t *testing.T) {
	_, err := Submit(SubmitParams{ID: "r1", Booking: completedBooking(booking.StateCompleted), AuthorID: "u1", Rating: 6, CreatedAt: now})
	assert.ErrorIs(t, err, ErrInvalidRating)

	_, err = Submit(SubmitParams{ID: "r1", Booking: completedBooking(booking.StateConfirmed), AuthorID: "u1", Rating: 4, CreatedAt: now})
	assert.ErrorIs(t, err, ErrNotReviewable)

	_, err = Submit(SubmitParams{ID: "r1", Booking: completedBooking(booking.StateCompleted), AuthorID: "u2", Rating: 4, CreatedAt: now})
	assert.ErrorIs(t, err, ErrNotAuthor)

	r, err := Submit(SubmitParams{ID: "r1", Booking: completedBooking(booking.StateCompleted), AuthorID: "u1", Rating: 4, Text: " Clean car ", CreatedAt: now})
	require.NoError(t, err)
	assert.Equal(t, StatusPending, r.Status)
	assert.Equal(t, "Clean car", r.Text)
	assert.Equal(t, "Nimal Perera", r.AuthorName)
	assert.Nil(t, r.Reply)
}

func TestModerationAndReply(t *testing.T) {
	r, err := Submit(SubmitParams{ID: "r1", Booking: completedBooking(booking.StateCompleted), AuthorID: "u1", Rating: 5, CreatedAt: now})
	require.NoError(t, err)
	require.NoError(t, r.Approve(now))
	assert.ErrorIs(t, r.Approve(now), ErrAlreadyModerated)
	require.NoError(t, r.Reject(now))
	assert.Equal(t, StatusRejected, r.Status)

	assert.ErrorIs(t, r.ReplyTo("  ", "admin", now), ErrEmptyReply)
	require.NoError(t, r.ReplyTo("Thank you!", "admin", now))
	require.NotNil(t, r.Reply)
	assert.Equal(t, "Thank you!", r.Reply.Text)
}

func TestAverageCountsApprovedOnly(t *testing.T) {
	items := []*Review{
		{Rating: 5, Status: StatusApproved},
		{Rating: 4, Status: StatusApproved},
		{Rating: 1, Status: StatusRejected},
		{Rating: 2, Status: StatusPending},
	}
	avg, n := Average(items)
	assert.Equal(t, 2, n)
	assert.InDelta(t, 4.5, avg, 1e-9)

	avg, n = Average(nil)
	assert.Zero(t, avg)
	assert.Zero(t, n)
}

func TestFeedSubscribeUnsubscribe(t *testing.T) {
	feed := NewFeed()
	var got []Change
	stop := feed.Subscribe(func(c Change) { got = append(got, c) })
	feed.Publish(Change{Kind: ChangeSubmitted, ReviewID: "r1"})
	stop()
	stop()
	feed.Publish(Change{Kind: ChangeDeleted, ReviewID: "r1"})
	require.Len(t, got, 1)
	assert.Equal(t, ChangeSubmitted, got[0].Kind)
	assert.Equal(t, 0, feed.Len())
}
