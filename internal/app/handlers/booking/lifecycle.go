package booking

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rentacar/internal/app/access"
	"rentacar/internal/app/dto"
	"rentacar/internal/app/handlers/support"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domainbooking "rentacar/internal/domain/booking"
)

const (
	confirmKey  = "booking.confirm"
	cancelKey   = "booking.cancel"
	completeKey = "booking.complete_finished"
)

var ErrNotOwner = errors.New("booking: booking belongs to another renter")

// ConfirmCommand promotes a pending booking and its calendar hold.
type ConfirmCommand struct {
	BookingID string `validate:"required"`
}

func (ConfirmCommand) Key() string               { return confirmKey }
func (ConfirmCommand) AccessLevel() access.Level { return access.AdminOnly }

// CancelCommand may be sent by the renter who owns the booking or an admin.
type CancelCommand struct {
	BookingID string `validate:"required"`
	Reason    string `validate:"max=500"`
}

func (CancelCommand) Key() string               { return cancelKey }
func (CancelCommand) AccessLevel() access.Level { return access.SignedIn }

// CompleteFinishedCommand closes confirmed bookings whose return date has
// passed. It is sent by the scheduler.
type CompleteFinishedCommand struct {
	Now time.Time
}

func (CompleteFinishedCommand) Key() string { return completeKey }

type CompleteResult struct {
	Completed []string `json:"completed"`
}

type LifecycleHandler struct {
	UoWFactory uow.UoWFactory
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

func (h *LifecycleHandler) Confirm(ctx context.Context, cmd ConfirmCommand) (dto.Booking, error) {
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	defer cleanup()

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	cal, err := unit.Calendars().Calendar(ctx, b.CarID)
	if err != nil {
		return dto.Booking{}, err
	}
	now := h.Clock.Now()
	if b.State != domainbooking.StatePending {
		return dto.Booking{}, domainbooking.ErrInvalidState
	}
	if err := cal.Confirm(b.Reference(), now); err != nil {
		var overlap *domainavailability.OverlapError
		if errors.As(err, &overlap) {
			h.logger().WarnContext(ctx, "overbooking prevented", "booking_id", b.ID, "car_id", b.CarID, "conflict", overlap.Conflict)
		}
		return dto.Booking{}, err
	}
	if err := b.Confirm(now); err != nil {
		return dto.Booking{}, err
	}
	if err := h.save(ctx, unit, b, cal); err != nil {
		return dto.Booking{}, err
	}
	if err := commit(); err != nil {
		return dto.Booking{}, err
	}
	h.logger().InfoContext(ctx, "booking confirmed", "booking_id", b.ID, "car_id", b.CarID)
	return dto.MapBooking(b), nil
}

func (h *LifecycleHandler) Cancel(ctx context.Context, cmd CancelCommand) (dto.Booking, error) {
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Booking{}, err
	}
	defer cleanup()

	b, err := unit.Bookings().ByID(ctx, domainbooking.BookingID(cmd.BookingID))
	if err != nil {
		return dto.Booking{}, err
	}
	if b.RenterID != access.Actor(ctx) && !access.IsAdmin(ctx) {
		return dto.Booking{}, ErrNotOwner
	}
	now := h.Clock.Now()
	if err := b.Cancel(cmd.Reason, now); err != nil {
		return dto.Booking{}, err
	}
	cal, err := unit.Calendars().Calendar(ctx, b.CarID)
	if err != nil {
		return dto.Booking{}, err
	}
	if err := cal.Release(b.Reference(), now); err != nil && !errors.Is(err, domainavailability.ErrRangeNotFound) {
		return dto.Booking{}, err
	}
	if err := h.save(ctx, unit, b, cal); err != nil {
		return dto.Booking{}, err
	}
	if err := commit(); err != nil {
		return dto.Booking{}, err
	}
	h.logger().InfoContext(ctx, "booking cancelled", "booking_id", b.ID, "by", access.Actor(ctx))
	return dto.MapBooking(b), nil
}

// CompleteFinished keeps the confirmed calendar range as history.
func (h *LifecycleHandler) CompleteFinished(ctx context.Context, cmd CompleteFinishedCommand) (CompleteResult, error) {
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return CompleteResult{}, err
	}
	defer cleanup()

	now := cmd.Now
	if now.IsZero() {
		now = h.Clock.Now()
	}
	confirmed, err := unit.Bookings().List(ctx, domainbooking.ListFilter{States: []domainbooking.BookingState{domainbooking.StateConfirmed}})
	if err != nil {
		return CompleteResult{}, err
	}
	out := CompleteResult{Completed: []string{}}
	for _, b := range confirmed {
		if !b.Finished(now) {
			continue
		}
		if err := b.Complete(now); err != nil {
			return CompleteResult{}, err
		}
		if err := unit.Bookings().Save(ctx, b); err != nil {
			return CompleteResult{}, err
		}
		if err := support.Record(ctx, h.Outbox, h.Encoder, b); err != nil {
			return CompleteResult{}, err
		}
		out.Completed = append(out.Completed, string(b.ID))
	}
	if err := commit(); err != nil {
		return CompleteResult{}, err
	}
	if len(out.Completed) > 0 {
		h.logger().InfoContext(ctx, "bookings completed", "count", len(out.Completed))
	}
	return out, nil
}

func (h *LifecycleHandler) save(ctx context.Context, unit uow.UnitOfWork, b *domainbooking.Booking, cal *domainavailability.Calendar) error {
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return err
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return err
	}
	return support.Record(ctx, h.Outbox, h.Encoder, b, cal)
}

func (h *LifecycleHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
