package pricing

import (
	"context"
	"math/big"
	"time"

	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
	"rentacar/internal/domain/shared/money"
)

// QuoteInput is everything a quote depends on.
type QuoteInput struct {
	Rates          cars.Rates
	Currency       string
	Pickup         time.Time
	Return         time.Time
	WithDriver     bool
	Addons         AddonSet
	PickupDistrict string
	ReturnDistrict string
	PromoCode      string
}

// InputForCar seeds a QuoteInput from a catalog car.
func InputForCar(car *cars.Car) QuoteInput {
	if car == nil {
		return QuoteInput{}
	}
	return QuoteInput{Rates: car.Rates, Currency: car.Currency}
}

// Calculator is the pricing port consumed by the application layer.
type Calculator interface {
	Quote(ctx context.Context, input QuoteInput) (PriceQuote, error)
}

// Engine composes quotes from a Config and a promo table. It holds no
// mutable state and can be shared freely.
type Engine struct {
	cfg    Config
	promos PromoTable
}

func NewEngine(cfg Config, promos PromoTable) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if promos == nil {
		promos = StaticPromoTable{}
	}
	return &Engine{cfg: cfg, promos: promos}, nil
}

// MustEngine panics on invalid config; for tests and fixtures.
func MustEngine(cfg Config, promos PromoTable) *Engine {
	e, err := NewEngine(cfg, promos)
	if err != nil {
		panic(err)
	}
	return e
}

func (e *Engine) Config() Config { return e.cfg }

func (e *Engine) Promos() PromoTable { return e.promos }

// Quote satisfies Calculator.
func (e *Engine) Quote(ctx context.Context, input QuoteInput) (PriceQuote, error) {
	if err := ctx.Err(); err != nil {
		return PriceQuote{}, err
	}
	return e.Compose(input)
}

// Compose runs the pricing pipeline from scratch. Rounding to whole units
// happens at the tier discount, the promo discount and the tax only.
func (e *Engine) Compose(in QuoteInput) (PriceQuote, error) {
	if in.Pickup.IsZero() || in.Return.IsZero() || daterange.Day(in.Return).Before(daterange.Day(in.Pickup)) {
		return PriceQuote{}, daterange.ErrInvalidRange
	}
	currency := in.Currency
	if currency == "" {
		currency = e.cfg.Currency
	}
	if in.Rates.DriverFeePerDay < 0 {
		return PriceQuote{}, cars.ErrDriverFee
	}

	days := DaysBetweenInclusive(in.Pickup, in.Return)
	tier := TierFor(days)
	rate, err := EffectiveDailyRate(in.Rates, tier)
	if err != nil {
		return PriceQuote{}, err
	}

	dailyRate := new(big.Rat).Set(rate)
	if in.WithDriver {
		dailyRate.Add(dailyRate, big.NewRat(in.Rates.DriverFeePerDay, 1))
	}
	base := new(big.Rat).Mul(dailyRate, big.NewRat(int64(days), 1))

	tierPct := e.cfg.tierDiscount(tier)
	tierDiscount := money.RoundHalfUp(money.Percent(base, tierPct))
	afterTier := new(big.Rat).Sub(base, big.NewRat(tierDiscount, 1))

	lines := e.addonLines(in, days, currency)
	var addonsTotal int64
	for _, l := range lines {
		addonsTotal += l.Amount.Amount
	}
	subtotal := new(big.Rat).Add(afterTier, big.NewRat(addonsTotal, 1))

	promo := resolvePromo(e.promos, in.PromoCode)
	var promoDiscount int64
	if promo.Status == PromoApplied {
		promoDiscount = money.RoundHalfUp(money.Percent(subtotal, promo.PercentOff))
	}
	afterPromo := new(big.Rat).Sub(subtotal, big.NewRat(promoDiscount, 1))

	tax := money.RoundHalfUp(money.Percent(afterPromo, e.cfg.TaxPercent))
	total := new(big.Rat).Add(afterPromo, big.NewRat(tax, 1))

	m := func(r *big.Rat) money.Money { return money.FromRat(r, currency) }
	q := PriceQuote{
		Days:                days,
		Tier:                tier,
		Currency:            currency,
		BaseDailyRate:       m(rate),
		WithDriver:          in.WithDriver,
		DriverFeePerDay:     money.Money{Amount: in.Rates.DriverFeePerDay, Currency: currency},
		BaseBeforeDiscount:  m(base),
		TierDiscountPercent: tierPct,
		TierDiscount:        money.Money{Amount: tierDiscount, Currency: currency},
		BaseAfterDiscount:   m(afterTier),
		Addons:              lines,
		AddonsTotal:         money.Money{Amount: addonsTotal, Currency: currency},
		Subtotal:            m(subtotal),
		Promo:               promo,
		PromoDiscount:       money.Money{Amount: promoDiscount, Currency: currency},
		SubtotalAfterPromo:  m(afterPromo),
		TaxPercent:          e.cfg.TaxPercent,
		Tax:                 money.Money{Amount: tax, Currency: currency},
		Total:               m(total),
		Exact: ExactAmounts{
			BaseDailyRate:      rate.RatString(),
			BaseBeforeDiscount: base.RatString(),
			Subtotal:           subtotal.RatString(),
			SubtotalAfterPromo: afterPromo.RatString(),
			Total:              total.RatString(),
		},
	}
	return q, nil
}

func (e *Engine) addonLines(in QuoteInput, days int, currency string) []AddonLine {
	forced := DistrictsDiffer(in.PickupDistrict, in.ReturnDistrict)
	lines := make([]AddonLine, 0, len(AddonOrder))
	for _, kind := range AddonOrder {
		selected := in.Addons.Has(kind)
		derived := kind == AddonDelivery && forced && !selected
		if !selected && !derived {
			continue
		}
		price, ok := e.cfg.Addons[kind]
		if !ok {
			continue
		}
		lines = append(lines, AddonLine{
			Kind:    kind,
			Label:   kind.Label(),
			Mode:    price.Mode,
			Unit:    money.Money{Amount: price.Amount, Currency: currency},
			Amount:  money.Money{Amount: price.Charge(days), Currency: currency},
			Derived: derived,
		})
	}
	return lines
}
