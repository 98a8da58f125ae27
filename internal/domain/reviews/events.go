package reviews

import (
	"time"

	"rentacar/internal/domain/booking"
	"rentacar/internal/domain/cars"
)

type ReviewSubmitted struct {
	ReviewID  ReviewID
	CarID     cars.CarID
	BookingID booking.BookingID
	Rating    int
	At        time.Time
}

func (e ReviewSubmitted) EventName() string     { return "review.submitted" }
func (e ReviewSubmitted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewSubmitted) OccurredAt() time.Time { return e.At }

type ReviewModerated struct {
	ReviewID ReviewID
	CarID    cars.CarID
	From     Status
	To       Status
	At       time.Time
}

func (e ReviewModerated) EventName() string     { return "review.moderated" }
func (e ReviewModerated) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewModerated) OccurredAt() time.Time { return e.At }

type ReviewReplied struct {
	ReviewID ReviewID
	CarID    cars.CarID
	At       time.Time
}

func (e ReviewReplied) EventName() string     { return "review.replied" }
func (e ReviewReplied) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewReplied) OccurredAt() time.Time { return e.At }

type ReviewDeleted struct {
	ReviewID ReviewID
	CarID    cars.CarID
	At       time.Time
}

func (e ReviewDeleted) EventName() string     { return "review.deleted" }
func (e ReviewDeleted) AggregateID() string   { return string(e.ReviewID) }
func (e ReviewDeleted) OccurredAt() time.Time { return e.At }
