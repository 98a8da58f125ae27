package pricing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
)

var sampleRates = cars.Rates{Daily: 10000, Weekly: 63000, Monthly: 240000, DriverFeePerDay: 2500}

func day(d int) time.Time { return daterange.Date(2025, time.September, d) }

func engine(t *testing.T) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), DefaultPromoTable())
	require.NoError(t, err)
	return e
}

func input(days int) QuoteInput {
	return QuoteInput{Rates: sampleRates, Currency: "LKR", Pickup: day(1), Return: day(1 + days)}
}

func TestTierBoundaries(t *testing.T) {
	cases := map[int]Tier{1: TierDaily, 6: TierDaily, 7: TierWeekly, 29: TierWeekly, 30: TierMonthly, 90: TierMonthly}
	for days, want := range cases {
		assert.Equal(t, want, TierFor(days), "days=%d", days)
	}
}

func TestEffectiveDailyRateIsExact(t *testing.T) {
	r, err := EffectiveDailyRate(cars.Rates{Daily: 1, Weekly: 65000, Monthly: 1}, TierWeekly)
	require.NoError(t, err)
	assert.Equal(t, "65000/7", r.RatString())

	r, err = EffectiveDailyRate(sampleRates, TierMonthly)
	require.NoError(t, err)
	assert.Equal(t, "8000", r.RatString())

	_, err = EffectiveDailyRate(cars.Rates{Daily: 10}, TierWeekly)
	assert.ErrorIs(t, err, ErrInvalidRates)
}

func TestDaysBetweenInclusive(t *testing.T) {
	assert.Equal(t, 1, DaysBetweenInclusive(day(1), day(1)))
	assert.Equal(t, 1, DaysBetweenInclusive(day(1), day(2)))
	assert.Equal(t, 6, DaysBetweenInclusive(day(1), day(7)))
	assert.Equal(t, 1, DaysBetweenInclusive(day(5), day(1)))
	for p := 1; p <= 10; p++ {
		for r := p; r <= 30; r++ {
			assert.GreaterOrEqual(t, DaysBetweenInclusive(day(p), day(r)), 1)
		}
	}
}

func TestSixDayDailyScenario(t *testing.T) {
	q, err := engine(t).Compose(input(6))
	require.NoError(t, err)
	assert.Equal(t, 6, q.Days)
	assert.Equal(t, TierDaily, q.Tier)
	assert.Equal(t, int64(10000), q.BaseDailyRate.Amount)
	assert.Equal(t, int64(60000), q.BaseBeforeDiscount.Amount)
	assert.Equal(t, int64(0), q.TierDiscount.Amount)
	assert.Equal(t, int64(60000), q.Subtotal.Amount)
	assert.Equal(t, int64(9000), q.Tax.Amount)
	assert.Equal(t, int64(69000), q.Total.Amount)
	assert.Equal(t, PromoNone, q.Promo.Status)
}

func TestSevenDayWeeklyScenario(t *testing.T) {
	q, err := engine(t).Compose(input(7))
	require.NoError(t, err)
	assert.Equal(t, TierWeekly, q.Tier)
	assert.Equal(t, "9000", q.Exact.BaseDailyRate)
	assert.Equal(t, int64(63000), q.BaseBeforeDiscount.Amount)
	assert.Equal(t, int64(10), q.TierDiscountPercent)
	assert.Equal(t, int64(6300), q.TierDiscount.Amount)
	assert.Equal(t, int64(56700), q.BaseAfterDiscount.Amount)
	assert.Equal(t, int64(8505), q.Tax.Amount)
	assert.Equal(t, int64(65205), q.Total.Amount)
}

func TestPromoScenarioRoundsTaxHalfUp(t *testing.T) {
	in := input(7)
	in.PromoCode = "  save10 "
	q, err := engine(t).Compose(in)
	require.NoError(t, err)
	assert.Equal(t, PromoApplied, q.Promo.Status)
	assert.Equal(t, "SAVE10", q.Promo.Code)
	assert.Equal(t, int64(56700), q.Subtotal.Amount)
	assert.Equal(t, int64(5670), q.PromoDiscount.Amount)
	assert.Equal(t, int64(51030), q.SubtotalAfterPromo.Amount)
	assert.Equal(t, int64(7655), q.Tax.Amount)
	assert.Equal(t, int64(58685), q.Total.Amount)
}

func TestUnknownPromoFailsSoftly(t *testing.T) {
	in := input(6)
	in.PromoCode = "XYZ123"
	q, err := engine(t).Compose(in)
	require.NoError(t, err)
	assert.Equal(t, PromoUnrecognized, q.Promo.Status)
	assert.ErrorIs(t, q.Promo.Err, ErrUnknownPromoCode)
	assert.Equal(t, int64(0), q.PromoDiscount.Amount)
	assert.Equal(t, int64(69000), q.Total.Amount)
}

func TestDeliveryDerivedFromDistricts(t *testing.T) {
	in := input(2)
	in.PickupDistrict = "Colombo"
	in.ReturnDistrict = "Kandy"
	q, err := engine(t).Compose(in)
	require.NoError(t, err)
	require.Len(t, q.Addons, 1)
	assert.Equal(t, AddonDelivery, q.Addons[0].Kind)
	assert.True(t, q.Addons[0].Derived)
	assert.Equal(t, int64(1500), q.AddonAmount(AddonDelivery).Amount)
	// 2 days * 10000 + 1500 delivery, then 15% tax
	assert.Equal(t, int64(21500), q.Subtotal.Amount)
	assert.Equal(t, int64(24725), q.Total.Amount)

	in.ReturnDistrict = " colombo "
	q, err = engine(t).Compose(in)
	require.NoError(t, err)
	assert.Empty(t, q.Addons)
}

func TestAddonsMeteredAndFlat(t *testing.T) {
	in := input(3)
	in.WithDriver = true
	in.Addons = NewAddonSet(AddonGPS, AddonChildSeat, AddonExtraDriver, AddonFullInsurance)
	q, err := engine(t).Compose(in)
	require.NoError(t, err)
	amounts := q.AddonAmounts()
	assert.Equal(t, int64(1800), amounts[AddonGPS].Amount)
	assert.Equal(t, int64(1500), amounts[AddonChildSeat].Amount)
	assert.Equal(t, int64(3000), amounts[AddonExtraDriver].Amount)
	assert.Equal(t, int64(2500), amounts[AddonFullInsurance].Amount)
	assert.Equal(t, int64(8800), q.AddonsTotal.Amount)
	// (10000 + 2500 driver) * 3
	assert.Equal(t, int64(37500), q.BaseBeforeDiscount.Amount)
	assert.Equal(t, int64(46300), q.Subtotal.Amount)
	assert.Equal(t, int64(6945), q.Tax.Amount)
	assert.Equal(t, int64(53245), q.Total.Amount)
}

func TestAddonsDoNotReceiveTierDiscount(t *testing.T) {
	in := input(30)
	in.Addons = NewAddonSet(AddonGPS)
	q, err := engine(t).Compose(in)
	require.NoError(t, err)
	assert.Equal(t, TierMonthly, q.Tier)
	assert.Equal(t, int64(240000), q.BaseBeforeDiscount.Amount)
	assert.Equal(t, int64(48000), q.TierDiscount.Amount)
	assert.Equal(t, int64(18000), q.AddonsTotal.Amount)
	assert.Equal(t, int64(210000), q.Subtotal.Amount)
}

func TestFractionalRateStaysExactUntilRounding(t *testing.T) {
	in := QuoteInput{Rates: cars.Rates{Daily: 10000, Weekly: 65000, Monthly: 240000}, Currency: "LKR", Pickup: day(1), Return: day(9)}
	q, err := engine(t).Compose(in)
	require.NoError(t, err)
	assert.Equal(t, 8, q.Days)
	// 65000/7 * 8 = 520000/7; 10% = 52000/7 = 7428.57 -> 7429
	assert.Equal(t, "520000/7", q.Exact.BaseBeforeDiscount)
	assert.Equal(t, int64(74286), q.BaseBeforeDiscount.Amount)
	assert.Equal(t, int64(7429), q.TierDiscount.Amount)
	// 520000/7 - 7429 = 467997/7 = 66856.71; tax 15% = 10028.51 -> 10029
	assert.Equal(t, int64(10029), q.Tax.Amount)
	assert.Equal(t, int64(76886), q.Total.Amount)
}

func TestComposeIsPure(t *testing.T) {
	e := engine(t)
	in := input(9)
	in.PromoCode = "WELCOME5"
	in.Addons = NewAddonSet(AddonGPS)
	a, err := e.Compose(in)
	require.NoError(t, err)
	b, err := e.Compose(in)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestComposeRejectsInvertedRange(t *testing.T) {
	in := input(3)
	in.Pickup, in.Return = in.Return, in.Pickup
	_, err := engine(t).Compose(in)
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}

func TestComposeRejectsMissingDates(t *testing.T) {
	for name, drop := range map[string]func(*QuoteInput){
		"pickup": func(in *QuoteInput) { in.Pickup = time.Time{} },
		"return": func(in *QuoteInput) { in.Return = time.Time{} },
		"both":   func(in *QuoteInput) { in.Pickup, in.Return = time.Time{}, time.Time{} },
	} {
		in := input(2)
		drop(&in)
		_, err := engine(t).Compose(in)
		assert.ErrorIs(t, err, daterange.ErrInvalidRange, name)
	}
}

func TestQuoteHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := engine(t).Quote(ctx, input(1))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfigValidation(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TierDiscountPercent[TierWeekly] = 120
	_, err := NewEngine(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = DefaultConfig()
	cfg.Addons[AddonGPS] = AddonPrice{Mode: "hourly", Amount: 1}
	_, err = NewEngine(cfg, nil)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestStaticPromoTable(t *testing.T) {
	table := NewStaticPromoTable([]PromoCode{{Code: " summer15 ", PercentOff: 15}, {Code: "BAD", PercentOff: 0}})
	p, ok := table.Lookup("SUMMER15")
	require.True(t, ok)
	assert.Equal(t, int64(15), p.PercentOff)
	_, ok = table.Lookup("bad")
	assert.False(t, ok)
}

func TestParseAddon(t *testing.T) {
	k, ok := ParseAddon("childSeat")
	require.True(t, ok)
	assert.Equal(t, AddonChildSeat, k)
	_, ok = ParseAddon("jetpack")
	assert.False(t, ok)
}
