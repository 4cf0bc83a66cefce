package app

import (
	"fmt"

	"github.com/metao1/online-store-go/internal/cart/domain"
	"github.com/metao1/online-store-go/pkg/events"
	"github.com/metao1/online-store-go/pkg/money"
)

// NewTranslator builds the cart service's event registry. The cart publishes
// a single fact, the checkout snapshot.
func NewTranslator() *events.Registry {
	reg := events.NewRegistry()

	reg.Register(events.TypeCartCheckedOut, func(ev events.Event) (events.WireMessage, error) {
		checkedOut, ok := ev.(domain.CartCheckedOut)
		if !ok {
			return events.WireMessage{}, fmt.Errorf("event %s has unexpected payload type %T", ev.EventType(), ev)
		}
		return events.Wrap(ev, events.TopicCarts, string(checkedOut.CustomerID), events.CartCheckedOutMessage{
			CartID:       ev.AggregateID(),
			CustomerID:   string(checkedOut.CustomerID),
			Items:        wireItems(checkedOut.Items),
			Total:        wireAmount(checkedOut.Total),
			CheckedOutAt: events.NewTimestamp(ev.OccurredAt()),
		})
	})

	reg.MustCover(events.TypeCartCheckedOut)
	return reg
}

func wireAmount(m money.Money) events.Amount {
	return events.Amount{Value: m.Amount().String(), Currency: m.Currency()}
}

func wireItems(items []domain.CartItem) []events.LineItem {
	out := make([]events.LineItem, 0, len(items))
	for _, it := range items {
		out = append(out, events.LineItem{
			SKU:       string(it.SKU),
			Quantity:  it.Quantity.String(),
			UnitPrice: wireAmount(it.UnitPrice),
		})
	}
	return out
}
