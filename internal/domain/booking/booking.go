package booking

import (
	"context"
	"errors"
	"strings"
	"time"

	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/pricing"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/domain/shared/events"
)

var (
	ErrInvalidState     = errors.New("booking: invalid state transition")
	ErrBookingNotFound  = errors.New("booking: not found")
	ErrRenterRequired   = errors.New("booking: renter id required")
	ErrNotFinished      = errors.New("booking: rental period has not ended")
	ErrTotalNotPositive = errors.New("booking: total must be positive")
)

type BookingID string

type BookingState string

const (
	StatePending   BookingState = "PENDING"
	StateConfirmed BookingState = "CONFIRMED"
	StateCancelled BookingState = "CANCELLED"
	StateCompleted BookingState = "COMPLETED"
)

func ParseState(v string) (BookingState, bool) {
	s := BookingState(strings.ToUpper(strings.TrimSpace(v)))
	switch s {
	case StatePending, StateConfirmed, StateCancelled, StateCompleted:
		return s, true
	}
	return "", false
}

// Terms is the part of the request kept with a submitted booking.
type Terms struct {
	PickupTime     string
	ReturnTime     string
	PickupDistrict string
	ReturnDistrict string
	WithDriver     bool
	Addons         []pricing.AddonKind
	PromoCode      string
}

type Booking struct {
	ID           BookingID
	CarID        cars.CarID
	RenterID     string
	Renter       Renter
	Range        daterange.DateRange
	Terms        Terms
	Quote        pricing.PriceQuote
	State        BookingState
	CancelReason string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Version      int64
	events.EventRecorder
}

// ListFilter narrows admin and renter listings; zero values match all.
type ListFilter struct {
	RenterID string
	CarID    cars.CarID
	States   []BookingState
}

func (f ListFilter) Matches(b *Booking) bool {
	if f.RenterID != "" && b.RenterID != f.RenterID {
		return false
	}
	if f.CarID != "" && b.CarID != f.CarID {
		return false
	}
	if len(f.States) == 0 {
		return true
	}
	for _, s := range f.States {
		if b.State == s {
			return true
		}
	}
	return false
}

type Repository interface {
	ByID(ctx context.Context, id BookingID) (*Booking, error)
	Save(ctx context.Context, booking *Booking) error
	List(ctx context.Context, filter ListFilter) ([]*Booking, error)
}

type CreateParams struct {
	ID        BookingID
	RenterID  string
	Request   Request
	Quote     pricing.PriceQuote
	CreatedAt time.Time
}

// NewBooking turns a validated request and its quote into a pending booking.
func NewBooking(params CreateParams) (*Booking, error) {
	if strings.TrimSpace(params.RenterID) == "" {
		return nil, ErrRenterRequired
	}
	dr, err := params.Request.Range()
	if err != nil {
		return nil, err
	}
	if params.Quote.Total.Amount <= 0 {
		return nil, ErrTotalNotPositive
	}
	now := params.CreatedAt.UTC()
	req := params.Request
	renter := req.Renter.normalized()
	renter.Email = NormalizeEmail(renter.Email)
	b := &Booking{
		ID:       params.ID,
		CarID:    req.CarID,
		RenterID: params.RenterID,
		Renter:   renter,
		Range:    dr,
		Terms: Terms{
			PickupTime:     req.PickupTime,
			ReturnTime:     req.ReturnTime,
			PickupDistrict: req.PickupDistrict,
			ReturnDistrict: req.ReturnDistrict,
			WithDriver:     req.WithDriver,
			Addons:         req.Addons.Kinds(),
			PromoCode:      params.Quote.Promo.Code,
		},
		Quote:     params.Quote.Copy(),
		State:     StatePending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	b.Record(BookingRequested{BookingID: b.ID, CarID: b.CarID, RenterID: b.RenterID, Range: b.Range, Total: b.Quote.Total.Amount, Currency: b.Quote.Currency, At: now})
	return b, nil
}

// Reference is the calendar reservation reference of the booking.
func (b *Booking) Reference() string { return string(b.ID) }

func (b *Booking) Confirm(now time.Time) error {
	if b.State != StatePending {
		return ErrInvalidState
	}
	b.State = StateConfirmed
	b.UpdatedAt = now.UTC()
	b.Record(BookingConfirmed{BookingID: b.ID, CarID: b.CarID, Range: b.Range, At: b.UpdatedAt})
	return nil
}

// Cancel is allowed while the booking is pending or confirmed.
func (b *Booking) Cancel(reason string, now time.Time) error {
	switch b.State {
	case StatePending, StateConfirmed:
	default:
		return ErrInvalidState
	}
	b.State = StateCancelled
	b.CancelReason = strings.TrimSpace(reason)
	b.UpdatedAt = now.UTC()
	b.Record(BookingCancelled{BookingID: b.ID, CarID: b.CarID, Range: b.Range, Reason: b.CancelReason, At: b.UpdatedAt})
	return nil
}

// Complete closes a confirmed booking once its return date has passed.
func (b *Booking) Complete(now time.Time) error {
	if b.State != StateConfirmed {
		return ErrInvalidState
	}
	if !b.Finished(now) {
		return ErrNotFinished
	}
	b.State = StateCompleted
	b.UpdatedAt = now.UTC()
	b.Record(BookingCompleted{BookingID: b.ID, CarID: b.CarID, At: b.UpdatedAt})
	return nil
}

// Finished reports whether now is past the return date.
func (b *Booking) Finished(now time.Time) bool {
	return daterange.Day(now).After(b.Range.End)
}

func (b *Booking) Cancellable() bool {
	return b.State == StatePending || b.State == StateConfirmed
}

func (b *Booking) Reviewable() bool {
	return b.State == StateCompleted
}
