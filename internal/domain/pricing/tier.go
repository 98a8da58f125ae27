package pricing

import (
	"errors"
	"math/big"
	"strings"
	"time"

	"rentacar/internal/domain/cars"
	"rentacar/internal/domain/shared/daterange"
)

var ErrInvalidRates = errors.New("pricing: posted rate for tier must be positive")

// Tier is the billing plan picked from the rental length.
type Tier string

const (
	TierDaily   Tier = "daily"
	TierWeekly  Tier = "weekly"
	TierMonthly Tier = "monthly"

	WeeklyThresholdDays  = 7
	MonthlyThresholdDays = 30
)

// Tiers in ascending order of length.
var Tiers = []Tier{TierDaily, TierWeekly, TierMonthly}

func ParseTier(v string) (Tier, bool) {
	switch Tier(strings.ToLower(strings.TrimSpace(v))) {
	case TierDaily:
		return TierDaily, true
	case TierWeekly:
		return TierWeekly, true
	case TierMonthly:
		return TierMonthly, true
	}
	return "", false
}

// TierFor picks the plan; each threshold is inclusive at its lower edge.
func TierFor(days int) Tier {
	switch {
	case days >= MonthlyThresholdDays:
		return TierMonthly
	case days >= WeeklyThresholdDays:
		return TierWeekly
	default:
		return TierDaily
	}
}

// EffectiveDailyRate spreads the posted block rate over its block length.
// The result is exact; callers round only where the composer says so.
func EffectiveDailyRate(rates cars.Rates, tier Tier) (*big.Rat, error) {
	var posted, span int64
	switch tier {
	case TierMonthly:
		posted, span = rates.Monthly, MonthlyThresholdDays
	case TierWeekly:
		posted, span = rates.Weekly, WeeklyThresholdDays
	default:
		posted, span = rates.Daily, 1
	}
	if posted <= 0 {
		return nil, ErrInvalidRates
	}
	return big.NewRat(posted, span), nil
}

// DaysBetweenInclusive counts the calendar days a rental spans, never less
// than one: a same-day rental and an overnight rental both bill one day.
func DaysBetweenInclusive(pickup, ret time.Time) int {
	days := daterange.DaysBetween(pickup, ret)
	if days < 1 {
		return 1
	}
	return days
}
