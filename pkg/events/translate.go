package events

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ErrNoTranslator is a wiring error: an event type was raised that no
// registered translator covers. Registries are validated with MustCover at
// startup, so hitting this at dispatch time means a registration is missing.
var ErrNoTranslator = fmt.Errorf("no translator registered for event type")

// WireMessage is a translated, ready-to-publish event.
type WireMessage struct {
	EventID string
	Type    string
	Topic   string
	Key     string
	Payload []byte
}

// TranslateFunc converts one domain event into its wire form.
type TranslateFunc func(Event) (WireMessage, error)

// Registry maps event types to translators. Dispatch is by the event's
// declared type tag, not by runtime type inspection.
type Registry struct {
	translators map[string]TranslateFunc
}

func NewRegistry() *Registry {
	return &Registry{translators: make(map[string]TranslateFunc)}
}

func (r *Registry) Register(eventType string, fn TranslateFunc) {
	r.translators[eventType] = fn
}

// MustCover panics unless every given event type has a translator.
// Call it from main after registration so gaps fail at startup.
func (r *Registry) MustCover(types ...string) {
	var missing []string
	for _, t := range types {
		if _, ok := r.translators[t]; !ok {
			missing = append(missing, t)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		panic(fmt.Sprintf("event registry: uncovered event types %v", missing))
	}
}

func (r *Registry) Translate(ev Event) (WireMessage, error) {
	fn, ok := r.translators[ev.EventType()]
	if !ok {
		return WireMessage{}, fmt.Errorf("%w: %s", ErrNoTranslator, ev.EventType())
	}
	return fn(ev)
}

// TranslateAll preserves the order events were raised in.
func (r *Registry) TranslateAll(evs []Event) ([]WireMessage, error) {
	out := make([]WireMessage, 0, len(evs))
	for _, ev := range evs {
		msg, err := r.Translate(ev)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	return out, nil
}

// Wrap builds a WireMessage by sealing payload into the standard envelope.
func Wrap(ev Event, topic, key string, payload any) (WireMessage, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return WireMessage{}, fmt.Errorf("marshal %s payload: %w", ev.EventType(), err)
	}
	env := Envelope{
		EventID:    ev.EventID(),
		Type:       ev.EventType(),
		OccurredAt: NewTimestamp(ev.OccurredAt()),
		Payload:    body,
	}
	data, err := json.Marshal(env)
	if err != nil {
		return WireMessage{}, fmt.Errorf("marshal %s envelope: %w", ev.EventType(), err)
	}
	return WireMessage{
		EventID: ev.EventID(),
		Type:    ev.EventType(),
		Topic:   topic,
		Key:     key,
		Payload: data,
	}, nil
}
