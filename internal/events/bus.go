package events

import (
	"log/slog"
	"sync"
)

// Handler processes a published event.
type Handler func(Event)

// Bus is a synchronous in-process pub-sub bus. Handlers run on the
// publisher's goroutine in subscription order; a panicking handler is
// recovered and logged so it cannot block delivery to the rest.
type Bus struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]Handler
	log    *slog.Logger
}

// NewBus creates an empty bus.
func NewBus(log *slog.Logger) *Bus {
	return &Bus{
		subs: make(map[string]map[int]Handler),
		log:  log,
	}
}

// Subscribe registers a handler for one event type and returns an id for
// Unsubscribe.
func (b *Bus) Subscribe(eventType string, h Handler) int {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	if b.subs[eventType] == nil {
		b.subs[eventType] = make(map[int]Handler)
	}
	b.subs[eventType][b.nextID] = h
	return b.nextID
}

// Unsubscribe removes a subscription. Unknown ids are ignored.
func (b *Bus) Unsubscribe(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, handlers := range b.subs {
		delete(handlers, id)
	}
}

// Publish delivers the event to every handler subscribed to its type.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	handlers := make([]Handler, 0, len(b.subs[ev.EventType()]))
	for _, h := range b.subs[ev.EventType()] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()

	for _, h := range handlers {
		b.dispatch(h, ev)
	}
}

func (b *Bus) dispatch(h Handler, ev Event) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("event handler panicked", "event", ev.EventType(), "panic", r)
		}
	}()
	h(ev)
}
