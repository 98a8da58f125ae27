package dto

import (
	"time"

	"rentacar/internal/domain/booking"
	"rentacar/internal/domain/shared/daterange"
)

type Renter struct {
	FullName      string `json:"full_name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	NICOrPassport string `json:"nic_or_passport"`
}

type Booking struct {
	ID             string    `json:"id"`
	Reference      string    `json:"reference"`
	CarID          string    `json:"car_id"`
	RenterID       string    `json:"renter_id"`
	Renter         Renter    `json:"renter"`
	PickupDate     string    `json:"pickup_date"`
	ReturnDate     string    `json:"return_date"`
	PickupTime     string    `json:"pickup_time"`
	ReturnTime     string    `json:"return_time"`
	PickupDistrict string    `json:"pickup_district,omitempty"`
	ReturnDistrict string    `json:"return_district,omitempty"`
	WithDriver     bool      `json:"with_driver"`
	Addons         []string  `json:"addons"`
	PromoCode      string    `json:"promo_code,omitempty"`
	Quote          Quote     `json:"quote"`
	State          string    `json:"state"`
	Cancellable    bool      `json:"cancellable"`
	Reviewable     bool      `json:"reviewable"`
	CancelReason   string    `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type BookingList struct {
	Items []Booking `json:"items"`
	Total int       `json:"total"`
}

// Validation is the verdict on a request before submission.
type Validation struct {
	State  string `json:"state"`
	OK     bool   `json:"ok"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason,omitempty"`
	Quote  *Quote `json:"quote,omitempty"`
}

func MapBooking(b *booking.Booking) Booking {
	if b == nil {
		return Booking{}
	}
	addons := make([]string, 0, len(b.Terms.Addons))
	for _, a := range b.Terms.Addons {
		addons = append(addons, string(a))
	}
	return Booking{
		ID:             string(b.ID),
		Reference:      b.Reference(),
		CarID:          string(b.CarID),
		RenterID:       b.RenterID,
		Renter:         Renter(b.Renter),
		PickupDate:     daterange.Key(b.Range.Start),
		ReturnDate:     daterange.Key(b.Range.End),
		PickupTime:     b.Terms.PickupTime,
		ReturnTime:     b.Terms.ReturnTime,
		PickupDistrict: b.Terms.PickupDistrict,
		ReturnDistrict: b.Terms.ReturnDistrict,
		WithDriver:     b.Terms.WithDriver,
		Addons:         addons,
		PromoCode:      b.Terms.PromoCode,
		Quote:          MapQuote(b.Quote),
		State:          string(b.State),
		Cancellable:    b.Cancellable(),
		Reviewable:     b.Reviewable(),
		CancelReason:   b.CancelReason,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}

func MapBookings(items []*booking.Booking) BookingList {
	out := BookingList{Items: make([]Booking, 0, len(items)), Total: len(items)}
	for _, b := range items {
		out.Items = append(out.Items, MapBooking(b))
	}
	return out
}

func MapDecision(d booking.Decision) Validation {
	v := Validation{State: string(d.State), OK: d.OK(), Field: d.Field()}
	if d.Reason != nil {
		v.Reason = d.Reason.Error()
	}
	return v
}
