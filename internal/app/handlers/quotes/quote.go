package quotes

import (
	"context"

	"rentacar/internal/app/dto"
	"rentacar/internal/app/handlers/support"
	"rentacar/internal/app/queries"
	"rentacar/internal/app/uow"
	domainbooking "rentacar/internal/domain/booking"
	"rentacar/internal/domain/pricing"
)

const quoteKey = "pricing.quote"

// QuoteQuery prices a request against the car's current rates. Availability
// is not checked; the calendar is consulted at validation.
type QuoteQuery struct {
	Request domainbooking.Request
}

func (QuoteQuery) Key() string { return quoteKey }

type Handler struct {
	UoWFactory uow.UoWFactory
	Pricing    pricing.Calculator
}

func (h *Handler) Handle(ctx context.Context, q QuoteQuery) (dto.Quote, error) {
	unit, ctx, cleanup, err := support.ReadUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Quote{}, err
	}
	defer cleanup()

	car, err := unit.Cars().ByID(ctx, q.Request.CarID)
	if err != nil {
		return dto.Quote{}, err
	}
	quote, err := domainbooking.ComputeQuote(ctx, h.Pricing, car, q.Request)
	if err != nil {
		return dto.Quote{}, err
	}
	return dto.MapQuote(quote), nil
}

var _ queries.Handler[QuoteQuery, dto.Quote] = (*Handler)(nil)
