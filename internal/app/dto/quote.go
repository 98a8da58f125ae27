package dto

import (
	"rentacar/internal/domain/pricing"
	"rentacar/internal/domain/shared/money"
)

type AddonLine struct {
	Kind    string      `json:"kind"`
	Label   string      `json:"label"`
	Mode    string      `json:"mode"`
	Unit    money.Money `json:"unit"`
	Amount  money.Money `json:"amount"`
	Derived bool        `json:"derived,omitempty"`
}

type Promo struct {
	Code       string `json:"code,omitempty"`
	Status     string `json:"status"`
	PercentOff int64  `json:"percent_off,omitempty"`
	Message    string `json:"message,omitempty"`
}

// Quote is the itemized price breakdown shown before and after booking.
type Quote struct {
	Days                int               `json:"days"`
	Tier                string            `json:"tier"`
	Currency            string            `json:"currency"`
	BaseDailyRate       money.Money       `json:"base_daily_rate"`
	WithDriver          bool              `json:"with_driver"`
	DriverFeePerDay     money.Money       `json:"driver_fee_per_day"`
	BaseBeforeDiscount  money.Money       `json:"base_before_discount"`
	TierDiscountPercent int64             `json:"tier_discount_percent"`
	TierDiscount        money.Money       `json:"tier_discount"`
	BaseAfterDiscount   money.Money       `json:"base_after_discount"`
	Addons              []AddonLine       `json:"addons"`
	AddonsTotal         money.Money       `json:"addons_total"`
	Subtotal            money.Money       `json:"subtotal"`
	Promo               Promo             `json:"promo"`
	PromoDiscount       money.Money       `json:"promo_discount"`
	SubtotalAfterPromo  money.Money       `json:"subtotal_after_promo"`
	TaxPercent          int64             `json:"tax_percent"`
	Tax                 money.Money       `json:"tax"`
	Total               money.Money       `json:"total"`
	Exact               map[string]string `json:"exact,omitempty"`
}

func MapQuote(q pricing.PriceQuote) Quote {
	addons := make([]AddonLine, 0, len(q.Addons))
	for _, l := range q.Addons {
		addons = append(addons, AddonLine{
			Kind:    string(l.Kind),
			Label:   l.Label,
			Mode:    string(l.Mode),
			Unit:    l.Unit,
			Amount:  l.Amount,
			Derived: l.Derived,
		})
	}
	promo := Promo{Code: q.Promo.Code, Status: string(q.Promo.Status), PercentOff: q.Promo.PercentOff}
	if q.Promo.Err != nil {
		promo.Message = "Promo code not recognized"
	}
	out := Quote{
		Days:                q.Days,
		Tier:                string(q.Tier),
		Currency:            q.Currency,
		BaseDailyRate:       q.BaseDailyRate,
		WithDriver:          q.WithDriver,
		DriverFeePerDay:     q.DriverFeePerDay,
		BaseBeforeDiscount:  q.BaseBeforeDiscount,
		TierDiscountPercent: q.TierDiscountPercent,
		TierDiscount:        q.TierDiscount,
		BaseAfterDiscount:   q.BaseAfterDiscount,
		Addons:              addons,
		AddonsTotal:         q.AddonsTotal,
		Subtotal:            q.Subtotal,
		Promo:               promo,
		PromoDiscount:       q.PromoDiscount,
		SubtotalAfterPromo:  q.SubtotalAfterPromo,
		TaxPercent:          q.TaxPercent,
		Tax:                 q.Tax,
		Total:               q.Total,
	}
	exact := map[string]string{}
	for k, v := range map[string]string{
		"base_daily_rate":      q.Exact.BaseDailyRate,
		"base_before_discount": q.Exact.BaseBeforeDiscount,
		"subtotal":             q.Exact.Subtotal,
		"subtotal_after_promo": q.Exact.SubtotalAfterPromo,
		"total":                q.Exact.Total,
	} {
		if v != "" {
			exact[k] = v
		}
	}
	if len(exact) > 0 {
		out.Exact = exact
	}
	return out
}
