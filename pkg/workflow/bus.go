package workflow

import (
	"sync"
	"time"
)

// Event is one step transition.
type Event struct {
	Step    Step
	State   State
	Message string
	Phase   Phase
	Time    time.Time
}

// Handler receives events. Handlers run synchronously on the publishing
// goroutine and must not block.
type Handler func(Event)

// Bus fans events out to independent subscribers.
type Bus struct {
	mu       sync.RWMutex
	handlers []handlerEntry
	nextID   int
	history  []Event
	maxHist  int
}

type handlerEntry struct {
	id      int
	handler Handler
}

// NewBus creates a bus that keeps the last 256 events.
func NewBus() *Bus {
	return &Bus{maxHist: 256}
}

// Publish delivers ev to every subscriber.
func (b *Bus) Publish(ev Event) {
	b.mu.Lock()
	b.history = append(b.history, ev)
	if len(b.history) > b.maxHist {
		b.history = b.history[len(b.history)-b.maxHist:]
	}
	targets := make([]Handler, 0, len(b.handlers))
	for _, e := range b.handlers {
		targets = append(targets, e.handler)
	}
	b.mu.Unlock()

	for _, h := range targets {
		h(ev)
	}
}

// Subscribe registers handler. The returned function unsubscribes it.
func (b *Bus) Subscribe(handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	b.handlers = append(b.handlers, handlerEntry{id: id, handler: handler})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		filtered := b.handlers[:0]
		for _, e := range b.handlers {
			if e.id != id {
				filtered = append(filtered, e)
			}
		}
		b.handlers = filtered
	}
}

// History returns the retained events in publication order.
func (b *Bus) History() []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Event, len(b.history))
	copy(out, b.history)
	return out
}
