package quotes_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/app/handlers/quotes"
	domainbooking "rentacar/internal/domain/booking"
	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/pricing"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/infra/storage/memory"
)

func newHandler(t *testing.T) *quotes.Handler {
	t.Helper()
	store := memory.NewStore()
	car, err := cars.NewCar("car-1", cars.Details{
		Brand:    "Suzuki",
		Model:    "Wagon R",
		Seats:    4,
		Rates:    cars.Rates{Daily: 10000, Weekly: 63000, Monthly: 240000, DriverFeePerDay: 2500},
		Location: cars.Location{District: "Colombo"},
	}, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.Cars.Save(context.Background(), car))
	return &quotes.Handler{
		UoWFactory: store.Factory(),
		Pricing:    pricing.MustEngine(pricing.DefaultConfig(), pricing.DefaultPromoTable()),
	}
}

func TestQuoteUsesStoredRates(t *testing.T) {
	h := newHandler(t)
	req := domainbooking.NewRequest("car-1", daterange.Date(2025, time.September, 1), daterange.Date(2025, time.September, 3))

	q, err := h.Handle(context.Background(), quotes.QuoteQuery{Request: req})
	require.NoError(t, err)
	assert.Equal(t, 2, q.Days)
	assert.Equal(t, int64(20000), q.BaseBeforeDiscount.Amount)
	assert.Equal(t, int64(2500), q.AddonsTotal.Amount, "full insurance is on by default")
	assert.Equal(t, int64(3375), q.Tax.Amount)
	assert.Equal(t, int64(25875), q.Total.Amount)
}

func TestQuoteUnknownCar(t *testing.T) {
	h := newHandler(t)
	req := domainbooking.NewRequest("ghost", daterange.Date(2025, time.September, 1), daterange.Date(2025, time.September, 2))

	_, err := h.Handle(context.Background(), quotes.QuoteQuery{Request: req})
	assert.ErrorIs(t, err, cars.ErrCarNotFound)
}

type recordingCalculator struct {
	got pricing.QuoteInput
}

func (c *recordingCalculator) Quote(_ context.Context, in pricing.QuoteInput) (pricing.PriceQuote, error) {
	c.got = in
	return pricing.PriceQuote{Days: 7}, nil
}

func TestQuotePricesRequestThroughCalculator(t *testing.T) {
	h := newHandler(t)
	calc := &recordingCalculator{}
	h.Pricing = calc
	req := domainbooking.NewRequest("car-1", daterange.Date(2025, time.September, 1), daterange.Date(2025, time.September, 8))
	req.ApplyPromo("save10")

	q, err := h.Handle(context.Background(), quotes.QuoteQuery{Request: req})
	require.NoError(t, err)
	assert.Equal(t, 7, q.Days)
	assert.Equal(t, int64(10000), calc.got.Rates.Daily)
	assert.Equal(t, req.PickupDate, calc.got.Pickup)
	assert.Equal(t, req.ReturnDate, calc.got.Return)
	assert.Equal(t, "SAVE10", calc.got.PromoCode)
}
