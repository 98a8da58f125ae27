package pricing

import (
	"errors"
	"fmt"

	"rentacar/internal/domain/shared/money"
)

var ErrInvalidConfig = errors.New("pricing: invalid configuration")

// Config holds the tunable tables of the fee composer.
type Config struct {
	Currency            string
	TierDiscountPercent map[Tier]int64
	TaxPercent          int64
	Addons              map[AddonKind]AddonPrice
}

// DefaultConfig mirrors the storefront's published tariff.
func DefaultConfig() Config {
	return Config{
		Currency: money.DefaultCurrency,
		TierDiscountPercent: map[Tier]int64{
			TierDaily:   0,
			TierWeekly:  10,
			TierMonthly: 20,
		},
		TaxPercent: 15,
		Addons: map[AddonKind]AddonPrice{
			AddonGPS:           {Mode: ChargePerDay, Amount: 600},
			AddonChildSeat:     {Mode: ChargePerDay, Amount: 500},
			AddonExtraDriver:   {Mode: ChargePerDay, Amount: 1000},
			AddonFullInsurance: {Mode: ChargeFlat, Amount: 2500},
			AddonDelivery:      {Mode: ChargeFlat, Amount: 1500},
		},
	}
}

func (c Config) Validate() error {
	if len(c.Currency) != 3 {
		return fmt.Errorf("%w: currency %q", ErrInvalidConfig, c.Currency)
	}
	for tier, pct := range c.TierDiscountPercent {
		if _, ok := ParseTier(string(tier)); !ok {
			return fmt.Errorf("%w: unknown tier %q", ErrInvalidConfig, tier)
		}
		if pct < 0 || pct > 100 {
			return fmt.Errorf("%w: %s discount %d%%", ErrInvalidConfig, tier, pct)
		}
	}
	if c.TaxPercent < 0 || c.TaxPercent > 100 {
		return fmt.Errorf("%w: tax %d%%", ErrInvalidConfig, c.TaxPercent)
	}
	for kind, price := range c.Addons {
		if price.Amount < 0 {
			return fmt.Errorf("%w: add-on %s amount", ErrInvalidConfig, kind)
		}
		if price.Mode != ChargePerDay && price.Mode != ChargeFlat {
			return fmt.Errorf("%w: add-on %s mode %q", ErrInvalidConfig, kind, price.Mode)
		}
	}
	return nil
}

func (c Config) tierDiscount(t Tier) int64 {
	return c.TierDiscountPercent[t]
}
