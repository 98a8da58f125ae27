package pricing

import (
	"errors"
	"strings"
)

var ErrUnknownPromoCode = errors.New("pricing: promo code not recognized")

type PromoCode struct {
	Code       string `yaml:"code" json:"code"`
	PercentOff int64  `yaml:"percent_off" json:"percent_off"`
}

// PromoTable resolves normalized codes.
type PromoTable interface {
	Lookup(code string) (PromoCode, bool)
}

// NormalizePromoCode trims and upper-cases user input.
func NormalizePromoCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// StaticPromoTable is a fixed in-memory table.
type StaticPromoTable map[string]int64

func DefaultPromoTable() StaticPromoTable {
	return StaticPromoTable{"SAVE10": 10, "WELCOME5": 5}
}

func NewStaticPromoTable(codes []PromoCode) StaticPromoTable {
	t := make(StaticPromoTable, len(codes))
	for _, c := range codes {
		code := NormalizePromoCode(c.Code)
		if code == "" || c.PercentOff <= 0 || c.PercentOff > 100 {
			continue
		}
		t[code] = c.PercentOff
	}
	return t
}

func (t StaticPromoTable) Lookup(code string) (PromoCode, bool) {
	code = NormalizePromoCode(code)
	pct, ok := t[code]
	if !ok {
		return PromoCode{}, false
	}
	return PromoCode{Code: code, PercentOff: pct}, true
}

type PromoStatus string

const (
	PromoNone         PromoStatus = "none"
	PromoApplied      PromoStatus = "applied"
	PromoUnrecognized PromoStatus = "unrecognized"
)

// PromoOutcome reports what happened to the entered code. An unknown code
// is not a failure of the quote; Err carries ErrUnknownPromoCode so callers
// can tell the user.
type PromoOutcome struct {
	Code       string
	Status     PromoStatus
	PercentOff int64
	Err        error `json:"-" bson:"-"`
}

func resolvePromo(table PromoTable, raw string) PromoOutcome {
	code := NormalizePromoCode(raw)
	if code == "" {
		return PromoOutcome{Status: PromoNone}
	}
	if table != nil {
		if p, ok := table.Lookup(code); ok {
			return PromoOutcome{Code: p.Code, Status: PromoApplied, PercentOff: p.PercentOff}
		}
	}
	return PromoOutcome{Code: code, Status: PromoUnrecognized, Err: ErrUnknownPromoCode}
}
