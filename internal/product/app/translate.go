package app

import (
	"fmt"

	"github.com/metao1/online-store-go/internal/product/domain"
	"github.com/metao1/online-store-go/pkg/events"
)

// NewTranslator builds the product service's event registry.
func NewTranslator() *events.Registry {
	reg := events.NewRegistry()

	reg.Register(events.TypeProductCreated, func(ev events.Event) (events.WireMessage, error) {
		created, ok := ev.(domain.ProductCreated)
		if !ok {
			return events.WireMessage{}, fmt.Errorf("event %s has unexpected payload type %T", ev.EventType(), ev)
		}
		return events.Wrap(ev, events.TopicProducts, ev.AggregateID(), events.ProductCreatedMessage{
			SKU:       ev.AggregateID(),
			Name:      created.Name,
			Price:     events.Amount{Value: created.Price.Amount().String(), Currency: created.Price.Currency()},
			Stock:     created.Stock.String(),
			CreatedAt: events.NewTimestamp(ev.OccurredAt()),
		})
	})

	reg.Register(events.TypeProductUpdated, func(ev events.Event) (events.WireMessage, error) {
		updated, ok := ev.(domain.ProductUpdated)
		if !ok {
			return events.WireMessage{}, fmt.Errorf("event %s has unexpected payload type %T", ev.EventType(), ev)
		}
		return events.Wrap(ev, events.TopicProducts, ev.AggregateID(), events.ProductUpdatedMessage{
			SKU:       ev.AggregateID(),
			Name:      updated.Name,
			Price:     events.Amount{Value: updated.Price.Amount().String(), Currency: updated.Price.Currency()},
			Stock:     updated.Stock.String(),
			UpdatedAt: events.NewTimestamp(ev.OccurredAt()),
		})
	})

	reg.MustCover(events.TypeProductCreated, events.TypeProductUpdated)
	return reg
}
