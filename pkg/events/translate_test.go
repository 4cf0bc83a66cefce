package events

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubEvent struct{ Base }

func TestTranslateDispatchesByType(t *testing.T) {
	reg := NewRegistry()
	reg.Register("order.created", func(ev Event) (WireMessage, error) {
		return Wrap(ev, TopicOrders, ev.AggregateID(), map[string]string{"order_id": ev.AggregateID()})
	})

	ev := stubEvent{Base: NewBase("order.created", "ord-1")}
	msg, err := reg.Translate(ev)
	require.NoError(t, err)

	assert.Equal(t, TopicOrders, msg.Topic)
	assert.Equal(t, "ord-1", msg.Key)
	assert.Equal(t, ev.EventID(), msg.EventID)

	var env Envelope
	require.NoError(t, json.Unmarshal(msg.Payload, &env))
	assert.Equal(t, "order.created", env.Type)
	assert.Equal(t, ev.EventID(), env.EventID)
}

func TestTranslateUnknownType(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Translate(stubEvent{Base: NewBase("order.vanished", "ord-1")})
	assert.ErrorIs(t, err, ErrNoTranslator)
}

func TestMustCoverPanicsOnGap(t *testing.T) {
	reg := NewRegistry()
	reg.Register(TypeOrderCreated, func(ev Event) (WireMessage, error) { return WireMessage{}, nil })

	assert.NotPanics(t, func() { reg.MustCover(TypeOrderCreated) })
	assert.Panics(t, func() { reg.MustCover(TypeOrderCreated, TypeOrderStatusChanged) })
}

func TestTranslateAllKeepsOrder(t *testing.T) {
	reg := NewRegistry()
	reg.Register("a", func(ev Event) (WireMessage, error) { return Wrap(ev, "t", "k", nil) })
	reg.Register("b", func(ev Event) (WireMessage, error) { return Wrap(ev, "t", "k", nil) })

	evs := []Event{
		stubEvent{Base: NewBase("a", "x")},
		stubEvent{Base: NewBase("b", "x")},
		stubEvent{Base: NewBase("a", "x")},
	}
	msgs, err := reg.TranslateAll(evs)
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	assert.Equal(t, []string{"a", "b", "a"}, []string{msgs[0].Type, msgs[1].Type, msgs[2].Type})
}

func TestTimestampRoundTrip(t *testing.T) {
	now := time.Date(2025, 3, 14, 9, 26, 53, 589793238, time.UTC)
	ts := NewTimestamp(now)
	assert.Equal(t, now.Unix(), ts.Seconds)
	assert.Equal(t, int32(589793238), ts.Nanos)
	assert.True(t, ts.Time().Equal(now))
}
