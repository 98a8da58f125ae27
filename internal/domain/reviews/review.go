package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentacar/internal/domain/booking"
	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/events"
)

var (
	ErrInvalidRating    = errors.New("reviews: rating must be between 1 and 5")
	ErrNotFound         = errors.New("reviews: not found")
	ErrDuplicateReview  = errors.New("reviews: booking already reviewed")
	ErrNotReviewable    = errors.New("reviews: only completed bookings can be reviewed")
	ErrNotAuthor        = errors.New("reviews: booking belongs to another renter")
	ErrEmptyReply       = errors.New("reviews: reply text is required")
	ErrInvalidStatus    = errors.New("reviews: invalid status")
	ErrAlreadyModerated = errors.New("reviews: review already has this status")
)

type ReviewID string

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func ParseStatus(v string) (Status, bool) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return s, true
	}
	return "", false
}

type Reply struct {
	Text     string
	AuthorID string
	At       time.Time
}

type Review struct {
	ID         ReviewID
	CarID      cars.CarID
	BookingID  booking.BookingID
	AuthorID   string
	AuthorName string
	Rating     int
	Text       string
	Status     Status
	Reply      *Reply
	CreatedAt  time.Time
	UpdatedAt  time.Time
	events.EventRecorder
}

// ListFilter narrows listings; zero values match all.
type ListFilter struct {
	CarID  cars.CarID
	Status Status
	Limit  int
	Offset int
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	ByBooking(ctx context.Context, bookingID booking.BookingID) (*Review, error)
	List(ctx context.Context, filter ListFilter) ([]*Review, error)
	Save(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id ReviewID) error
}

type SubmitParams struct {
	ID         ReviewID
	Booking    *booking.Booking
	AuthorID   string
	AuthorName string
	Rating     int
	Text       string
	CreatedAt  time.Time
}

// Submit creates a pending review for a completed booking of the author.
func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	b := params.Booking
	if b == nil {
		return nil, booking.ErrBookingNotFound
	}
	if b.RenterID != params.AuthorID {
		return nil, ErrNotAuthor
	}
	if !b.Reviewable() {
		return nil, ErrNotReviewable
	}
	now := params.CreatedAt.UTC()
	name := strings.TrimSpace(params.AuthorName)
	if name == "" {
		name = b.Renter.FullName
	}
	r := &Review{
		ID:         params.ID,
		CarID:      b.CarID,
		BookingID:  b.ID,
		AuthorID:   params.AuthorID,
		AuthorName: name,
		Rating:     params.Rating,
		Text:       strings.TrimSpace(params.Text),
		Status:     StatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	r.Record(ReviewSubmitted{ReviewID: r.ID, CarID: r.CarID, BookingID: r.BookingID, Rating: r.Rating, At: now})
	return r, nil
}

func (r *Review) Approve(now time.Time) error {
	return r.moderate(StatusApproved, now)
}

func (r *Review) Reject(now time.Time) error {
	return r.moderate(StatusRejected, now)
}

func (r *Review) moderate(to Status, now time.Time) error {
	if r.Status == to {
		return ErrAlreadyModerated
	}
	from := r.Status
	r.Status = to
	r.UpdatedAt = now.UTC()
	r.Record(ReviewModerated{ReviewID: r.ID, CarID: r.CarID, From: from, To: to, At: r.UpdatedAt})
	return nil
}

// ReplyTo sets or replaces the staff reply.
func (r *Review) ReplyTo(text, authorID string, now time.Time) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyReply
	}
	r.Reply = &Reply{Text: text, AuthorID: authorID, At: now.UTC()}
	r.UpdatedAt = now.UTC()
	r.Record(ReviewReplied{ReviewID: r.ID, CarID: r.CarID, At: r.UpdatedAt})
	return nil
}

// Average is the mean rating of approved reviews.
func Average(items []*Review) (float64, int) {
	var sum, n int
	for _, r := range items {
		if r.Status != StatusApproved {
			continue
		}
		sum += r.Rating
		n++
	}
	if n == 0 {
		return 0, 0
	}
	return float64(sum) / float64(n), n
}

// MarkDeleted records the removal; the repository drops the review.
func (r *Review) MarkDeleted(now time.Time) {
	r.Record(ReviewDeleted{ReviewID: r.ID, CarID: r.CarID, At: now.UTC()})
}
