package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrInvalidCurrency  = errors.New("currency must be a 3-letter ISO-4217 code")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrNegativeAmount   = errors.New("amount cannot be negative")
)

// Money is an immutable amount in a single currency.
type Money struct {
	currency string
	amount   decimal.Decimal
}

func New(amount decimal.Decimal, currency string) (Money, error) {
	if !validCurrency(currency) {
		return Money{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}
	return Money{currency: currency, amount: amount}, nil
}

// Parse builds Money from a decimal string, e.g. "19.99".
func Parse(amount, currency string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", amount, err)
	}
	return New(d, currency)
}

func Zero(currency string) (Money, error) {
	return New(decimal.Zero, currency)
}

func (m Money) Currency() string         { return m.currency }
func (m Money) Amount() decimal.Decimal  { return m.amount }
func (m Money) IsZero() bool             { return m.amount.IsZero() }
func (m Money) IsNegative() bool         { return m.amount.IsNegative() }
func (m Money) IsPositive() bool         { return m.amount.IsPositive() }

func (m Money) Add(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{currency: m.currency, amount: m.amount.Add(other.amount)}, nil
}

func (m Money) Sub(other Money) (Money, error) {
	if err := m.sameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{currency: m.currency, amount: m.amount.Sub(other.amount)}, nil
}

// Mul scales the amount by a quantity.
func (m Money) Mul(q Quantity) Money {
	return Money{currency: m.currency, amount: m.amount.Mul(q.value)}
}

// Cmp returns -1, 0 or 1. Both operands must share a currency.
func (m Money) Cmp(other Money) (int, error) {
	if err := m.sameCurrency(other); err != nil {
		return 0, err
	}
	return m.amount.Cmp(other.amount), nil
}

// Equal is scale-insensitive: 10.0 USD equals 10.00 USD.
func (m Money) Equal(other Money) bool {
	return m.currency == other.currency && m.amount.Equal(other.amount)
}

// Key returns a normalized representation usable as a map key.
func (m Money) Key() string {
	return m.currency + " " + m.amount.String()
}

func (m Money) String() string {
	return m.amount.StringFixed(2) + " " + m.currency
}

func (m Money) sameCurrency(other Money) error {
	if m.currency != other.currency {
		return fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.currency, other.currency)
	}
	return nil
}

func validCurrency(code string) bool {
	if len(code) != 3 {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}
