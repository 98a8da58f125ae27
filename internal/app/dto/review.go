package dto

import (
	"time"

	domainreviews "rentacar/internal/domain/reviews"
)

type ReviewReply struct {
	Text string    `json:"text"`
	At   time.Time `json:"at"`
}

type Review struct {
	ID         string       `json:"id"`
	CarID      string       `json:"car_id"`
	BookingID  string       `json:"booking_id"`
	AuthorID   string       `json:"author_id"`
	AuthorName string       `json:"author_name"`
	Rating     int          `json:"rating"`
	Text       string       `json:"text,omitempty"`
	Status     string       `json:"status"`
	Reply      *ReviewReply `json:"reply,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

type ReviewCollection struct {
	Items   []Review `json:"items"`
	Total   int      `json:"total"`
	Average float64  `json:"average,omitempty"`
}

func MapReview(r *domainreviews.Review) Review {
	if r == nil {
		return Review{}
	}
	out := Review{
		ID:         string(r.ID),
		CarID:      string(r.CarID),
		BookingID:  string(r.BookingID),
		AuthorID:   r.AuthorID,
		AuthorName: r.AuthorName,
		Rating:     r.Rating,
		Text:       r.Text,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
	}
	if r.Reply != nil {
		out.Reply = &ReviewReply{Text: r.Reply.Text, At: r.Reply.At}
	}
	return out
}

func MapReviews(items []*domainreviews.Review) ReviewCollection {
	out := ReviewCollection{Items: make([]Review, 0, len(items)), Total: len(items)}
	for _, r := range items {
		out.Items = append(out.Items, MapReview(r))
	}
	out.Average, _ = domainreviews.Average(items)
	return out
}
