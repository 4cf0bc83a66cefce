package money

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrNegativeQuantity = errors.New("quantity cannot be negative")
	ErrZeroQuantity     = errors.New("quantity must be positive")
)

// Quantity is a non-negative decimal count of units.
type Quantity struct {
	value decimal.Decimal
}

func NewQuantity(value decimal.Decimal) (Quantity, error) {
	if value.IsNegative() {
		return Quantity{}, fmt.Errorf("%w: %s", ErrNegativeQuantity, value)
	}
	return Quantity{value: value}, nil
}

func QuantityFromInt(n int64) (Quantity, error) {
	return NewQuantity(decimal.NewFromInt(n))
}

func ParseQuantity(s string) (Quantity, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Quantity{}, fmt.Errorf("invalid quantity %q: %w", s, err)
	}
	return NewQuantity(d)
}

func (q Quantity) Value() decimal.Decimal { return q.value }
func (q Quantity) IsZero() bool           { return q.value.IsZero() }

// MustBePositive rejects zero; order lines require at least one unit.
func (q Quantity) MustBePositive() error {
	if !q.value.IsPositive() {
		return ErrZeroQuantity
	}
	return nil
}

func (q Quantity) Add(other Quantity) Quantity {
	return Quantity{value: q.value.Add(other.value)}
}

func (q Quantity) Sub(other Quantity) (Quantity, error) {
	res := q.value.Sub(other.value)
	if res.IsNegative() {
		return Quantity{}, fmt.Errorf("%w: %s - %s", ErrNegativeQuantity, q.value, other.value)
	}
	return Quantity{value: res}, nil
}

func (q Quantity) Equal(other Quantity) bool {
	return q.value.Equal(other.value)
}

func (q Quantity) String() string { return q.value.String() }
