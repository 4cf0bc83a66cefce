package domain

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/metao1/online-store-go/pkg/money"
)

// LimitPolicy is the domain service bounding payment amounts. Ceilings are
// per payment method, with a global ceiling on top.
type LimitPolicy struct {
	Global    decimal.Decimal
	PerMethod map[MethodType]decimal.Decimal
}

func DefaultLimits() LimitPolicy {
	return LimitPolicy{
		Global: decimal.NewFromInt(10000),
		PerMethod: map[MethodType]decimal.Decimal{
			MethodCard:          decimal.NewFromInt(5000),
			MethodDigitalWallet: decimal.NewFromInt(2000),
			MethodBankTransfer:  decimal.NewFromInt(10000),
		},
	}
}

func (p LimitPolicy) Validate(amount money.Money, method MethodType) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: %s", ErrInvalidAmount, amount)
	}
	if amount.Amount().GreaterThan(p.Global) {
		return fmt.Errorf("%w: %s exceeds the global ceiling %s", ErrInvalidAmount, amount, p.Global)
	}
	ceiling, ok := p.PerMethod[method]
	if !ok {
		return fmt.Errorf("unknown payment method %q", method)
	}
	if amount.Amount().GreaterThan(ceiling) {
		return fmt.Errorf("%w: %s exceeds the %s ceiling %s", ErrInvalidAmount, amount, method, ceiling)
	}
	return nil
}
