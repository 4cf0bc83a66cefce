package domain

import (
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

type PaymentProcessed struct {
	events.Base
	OrderID string
	Amount  money.Money
}

type PaymentFailed struct {
	events.Base
	OrderID string
	Amount  money.Money
	Reason  string
}

type PaymentCancelled struct {
	events.Base
	OrderID string
	Amount  money.Money
}
