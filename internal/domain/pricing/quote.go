package pricing

import "rentacar/internal/domain/shared/money"

// AddonLine is one priced extra. Derived lines were added by a rule rather
// than by the renter (delivery on one-way rentals).
type AddonLine struct {
	Kind    AddonKind
	Label   string
	Mode    ChargeMode
	Unit    money.Money
	Amount  money.Money
	Derived bool
}

// ExactAmounts keeps the unrounded rationals ("a/b") behind displayed lines.
type ExactAmounts struct {
	BaseDailyRate      string
	BaseBeforeDiscount string
	Subtotal           string
	SubtotalAfterPromo string
	Total              string
}

// PriceQuote is the itemized result of one composition. Lines whose exact
// value may be fractional are shown rounded half-up; Exact has the source.
type PriceQuote struct {
	Days                int
	Tier                Tier
	Currency            string
	BaseDailyRate       money.Money
	WithDriver          bool
	DriverFeePerDay     money.Money
	BaseBeforeDiscount  money.Money
	TierDiscountPercent int64
	TierDiscount        money.Money
	BaseAfterDiscount   money.Money
	Addons              []AddonLine
	AddonsTotal         money.Money
	Subtotal            money.Money
	Promo               PromoOutcome
	PromoDiscount       money.Money
	SubtotalAfterPromo  money.Money
	TaxPercent          int64
	Tax                 money.Money
	Total               money.Money
	Exact               ExactAmounts
}

// AddonAmount returns the charge for one kind, zero when absent.
func (q PriceQuote) AddonAmount(kind AddonKind) money.Money {
	for _, l := range q.Addons {
		if l.Kind == kind {
			return l.Amount
		}
	}
	return money.Money{Currency: q.Currency}
}

// AddonAmounts maps every priced add-on to its charge.
func (q PriceQuote) AddonAmounts() map[AddonKind]money.Money {
	out := make(map[AddonKind]money.Money, len(q.Addons))
	for _, l := range q.Addons {
		out[l.Kind] = l.Amount
	}
	return out
}

// Copy returns a deep copy safe to store on a booking.
func (q PriceQuote) Copy() PriceQuote {
	out := q
	if q.Addons != nil {
		out.Addons = append([]AddonLine(nil), q.Addons...)
	}
	return out
}
