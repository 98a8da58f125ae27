package money

import (
	"errors"
	"math/big"
	"strings"
)

var (
	ErrInvalidCurrency  = errors.New("money: invalid currency code")
	ErrCurrencyMismatch = errors.New("money: currency mismatch")
)

// DefaultCurrency is Sri Lankan rupees; amounts are whole rupees.
const DefaultCurrency = "LKR"

// Money keeps amounts in whole currency units to avoid floating point issues.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func New(amount int64, currency string) (Money, error) {
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// FromRat rounds an exact amount half-up to whole units.
func FromRat(r *big.Rat, currency string) Money {
	return Money{Amount: RoundHalfUp(r), Currency: strings.ToUpper(currency)}
}

func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}, nil
}

func (m Money) Multiply(times int64) Money {
	return Money{Amount: m.Amount * times, Currency: m.Currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

// Rat returns the amount as an exact rational.
func (m Money) Rat() *big.Rat {
	return new(big.Rat).SetInt64(m.Amount)
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}

// RoundHalfUp rounds r to the nearest integer, ties away from zero.
func RoundHalfUp(r *big.Rat) int64 {
	if r == nil {
		return 0
	}
	num := new(big.Int).Abs(r.Num())
	den := r.Denom()
	// floor((2*num + den) / (2*den))
	twice := new(big.Int).Lsh(num, 1)
	twice.Add(twice, den)
	q := new(big.Int).Quo(twice, new(big.Int).Lsh(den, 1))
	if r.Sign() < 0 {
		q.Neg(q)
	}
	return q.Int64()
}

// Percent returns base * pct / 100 exactly.
func Percent(base *big.Rat, pct int64) *big.Rat {
	out := new(big.Rat).Mul(base, big.NewRat(pct, 1))
	return out.Quo(out, big.NewRat(100, 1))
}
