package events

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Bus is an in-memory publish/subscribe hub keyed by event type.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[EventType]map[string]Handler
}

// NewBus creates an empty event bus.
func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[EventType]map[string]Handler),
	}
}

// Publish delivers an event to every handler subscribed to its type. A
// missing ID or timestamp is filled in. Publish never fails; having no
// subscribers is not an error.
func (b *Bus) Publish(event Event) {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subscribers[event.Type]))
	for _, h := range b.subscribers[event.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	// Deliver outside the lock so a handler subscribing or unsubscribing
	// cannot deadlock the bus.
	for _, h := range handlers {
		h(event)
	}
}

// Subscribe registers a handler for an event type and returns an
// unsubscribe function.
func (b *Bus) Subscribe(eventType EventType, handler Handler) (unsubscribe func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.subscribers[eventType] == nil {
		b.subscribers[eventType] = make(map[string]Handler)
	}

	subscriptionID := uuid.New().String()
	b.subscribers[eventType][subscriptionID] = handler

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if handlers, ok := b.subscribers[eventType]; ok {
			delete(handlers, subscriptionID)
			if len(handlers) == 0 {
				delete(b.subscribers, eventType)
			}
		}
	}
}
