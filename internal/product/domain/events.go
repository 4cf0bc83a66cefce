package domain

import (
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

type ProductCreated struct {
	events.Base
	Name  string
	Price money.Money
	Stock money.Quantity
}

// ProductUpdated carries the full current state rather than a delta, so
// consumers can upsert without ordering pain beyond the per-key stream.
type ProductUpdated struct {
	events.Base
	Name  string
	Price money.Money
	Stock money.Quantity
}
