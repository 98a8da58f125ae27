package booking

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"rentacar/internal/app/access"
	"rentacar/internal/app/commands"
	"rentacar/internal/app/dto"
	"rentacar/internal/app/handlers/support"
	"rentacar/internal/app/middleware"
	"rentacar/internal/app/outbox"
	"rentacar/internal/app/queries"
	"rentacar/internal/app/uow"
	domainavailability "rentacar/internal/domain/availability"
	domainbooking "rentacar/internal/domain/booking"
	"rentacar/internal/domain/pricing"
)

const (
	validateKey = "booking.validate"
	submitKey   = "booking.submit"
)

var ErrCarUnavailable = errors.New("booking: car is not available for rent")

// ValidateQuery runs the checkout checks without placing a hold. A rejected
// request is a normal result, not an error.
type ValidateQuery struct {
	Request domainbooking.Request
}

func (ValidateQuery) Key() string { return validateKey }

type ValidateHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    pricing.Calculator
}

func (h *ValidateHandler) Handle(ctx context.Context, q ValidateQuery) (dto.Validation, error) {
	unit, ctx, cleanup, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Validation{}, err
	}
	defer cleanup()

	car, err := unit.Cars().ByID(ctx, q.Request.CarID)
	if err != nil {
		return dto.Validation{}, err
	}
	cal, err := unit.Calendars().Calendar(ctx, car.ID)
	if err != nil {
		return dto.Validation{}, err
	}
	decision := domainbooking.Validate(q.Request, cal)
	out := dto.MapDecision(decision)
	if !decision.OK() {
		return out, nil
	}
	quote, err := domainbooking.ComputeQuote(ctx, h.Pricing, car, q.Request)
	if err != nil {
		return dto.Validation{}, err
	}
	mapped := dto.MapQuote(quote)
	out.Quote = &mapped
	return out, nil
}

// SubmitCommand turns a request into a pending booking and holds its dates.
type SubmitCommand struct {
	BookingID       string
	Request         domainbooking.Request
	IdempotencyKeyV string
}

func (SubmitCommand) Key() string               { return submitKey }
func (SubmitCommand) AccessLevel() access.Level { return access.SignedIn }
func (c SubmitCommand) IdempotencyKey() string  { return c.IdempotencyKeyV }
func (SubmitCommand) ResultPrototype() any      { return &dto.Booking{} }

type SubmitHandler struct {
	UoWFactory uow.UoWFactory
	Pricing    pricing.Calculator
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Clock      support.Clock
	Logger     *slog.Logger
}

// Handle validates again on the server, quotes, then places a pending hold.
// The hold fails if a confirmed reservation overlaps any day of the range.
func (h *SubmitHandler) Handle(ctx context.Context, cmd SubmitCommand) (*dto.Booking, error) {
	renterID := access.Actor(ctx)
	if renterID == "" {
		return nil, access.ErrUnauthenticated
	}
	unit, ctx, commit, cleanup, err := support.WriteUnit(ctx, h.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	car, err := unit.Cars().ByID(ctx, cmd.Request.CarID)
	if err != nil {
		return nil, err
	}
	if !car.Available {
		return nil, ErrCarUnavailable
	}
	cal, err := unit.Calendars().Calendar(ctx, car.ID)
	if err != nil {
		return nil, err
	}
	flow := domainbooking.NewFlow(cmd.Request)
	decision, err := flow.Validate(cal)
	if err != nil {
		return nil, err
	}
	if !decision.OK() {
		return nil, decision.Reason
	}
	req, err := flow.Submit()
	if err != nil {
		return nil, err
	}

	quote, err := domainbooking.ComputeQuote(ctx, h.Pricing, car, req)
	if err != nil {
		return nil, err
	}
	id := cmd.BookingID
	if id == "" {
		id = uuid.NewString()
	}
	now := h.Clock.Now()
	b, err := domainbooking.NewBooking(domainbooking.CreateParams{
		ID:        domainbooking.BookingID(id),
		RenterID:  renterID,
		Request:   req,
		Quote:     quote,
		CreatedAt: now,
	})
	if err != nil {
		return nil, err
	}
	if err := cal.Hold(b.Range, b.Reference(), now); err != nil {
		var overlap *domainavailability.OverlapError
		if errors.As(err, &overlap) {
			h.logger().WarnContext(ctx, "overbooking prevented", "car_id", car.ID, "range", b.Range.String(), "conflict", overlap.Conflict)
		}
		return nil, err
	}
	if err := unit.Bookings().Save(ctx, b); err != nil {
		return nil, err
	}
	if err := unit.Calendars().Save(ctx, cal); err != nil {
		return nil, err
	}
	if err := support.Record(ctx, h.Outbox, h.Encoder, b, cal); err != nil {
		return nil, err
	}
	if err := commit(); err != nil {
		return nil, err
	}
	h.logger().InfoContext(ctx, "booking requested", "booking_id", b.ID, "car_id", b.CarID, "total", b.Quote.Total.Amount, "currency", b.Quote.Currency)
	out := dto.MapBooking(b)
	return &out, nil
}

func (h *SubmitHandler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

var (
	_ queries.Handler[ValidateQuery, dto.Validation] = (*ValidateHandler)(nil)
	_ commands.Handler[SubmitCommand, *dto.Booking]  = (*SubmitHandler)(nil)
	_ middleware.IdempotentCommand                   = SubmitCommand{}
)
