package booking

import (
	"context"

	"rentacar/internal/app/access"
	"rentacar/internal/app/dto"
	"rentacar/internal/app/handlers/support"
	"rentacar/internal/app/uow"
	domainbooking "rentacar/internal/domain/booking"
	domaincars "rentacar/internal/domain/cars"
)

const (
	myBookingsKey  = "booking.list_mine"
	allBookingsKey = "booking.list_all"
	getBookingKey  = "booking.get"
)

type MyBookingsQuery struct{}

func (MyBookingsQuery) Key() string               { return myBookingsKey }
func (MyBookingsQuery) AccessLevel() access.Level { return access.SignedIn }

type AllBookingsQuery struct {
	CarID  string
	States []domainbooking.BookingState
}

func (AllBookingsQuery) Key() string               { return allBookingsKey }
func (AllBookingsQuery) AccessLevel() access.Level { return access.AdminOnly }

type GetBookingQuery struct {
	BookingID string `validate:"required"`
}

func (GetBookingQuery) Key() string               { return getBookingKey }
func (GetBookingQuery) AccessLevel() access.Level { return access.SignedIn }

type ListHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *ListHandler) Mine(ctx context.Context, _ MyBookingsQuery) (dto.BookingList, error) {
	renterID := access.Actor(ctx)
	if renterID == "" {
		return dto.BookingList{}, access.ErrUnauthenticated
	}
	return h.list(ctx, domainbooking.ListFilter{RenterID: renterID})
}

func (h *ListHandler) All(ctx context.Context, q AllBookingsQuery) (dto.BookingList, error) {
	return h.list(ctx, domainbooking.ListFilter{CarID: domaincars.CarID(q.CarID), States: q.States})
}

func (h *ListHandler) Get(ctx context.Context, q GetBookingQuery) (dto.Booking, error) {
	unit, ctx, cleanup, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	defer cleanup()
	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(q.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	if b.RenterID != access.Actor(ctx) && !access.IsAdmin(ctx) {
		return dto.Booking{}, domainbooking.ErrBookingNotFound
	}
	return dto.MapBooking(b), nil
}

func (h *ListHandler) list(ctx context.Context, filter domainbooking.ListFilter) (dto.BookingList, error) {
	unit, ctx, cleanup, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.BookingList{}, err
	}
	defer cleanup()
	items, err := unit.Bookings().List(ctx, filter)
	if err != nil {
		return dto.BookingList{}, err
	}
	return dto.MapBookings(items), nil
}
