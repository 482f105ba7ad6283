// Package events provides the in-process bus that delivers inbound channel
// messages to subscribed handlers. Delivery is synchronous and one-shot:
// a published event is handed to each matching handler exactly once, in
// registration order, with no acknowledgment.
package events

import (
	"context"
	"sync"

	"github.com/artpar/socketgate/core/schema"
	"github.com/rs/zerolog"
)

// EventMessage is published for every inbound message on a client connection.
const EventMessage = "websocket.message"

// Sender is the transport handle of a connected peer. The bus and handlers
// assume nothing about it beyond the ability to send one text frame.
type Sender interface {
	Send(text string) error
}

// Event represents a delivered notification.
type Event struct {
	// Name is the event name (e.g., "websocket.message").
	Name string

	// Client is the transport handle the event originated from.
	Client Sender

	// Accountability identifies the caller behind the client connection.
	Accountability schema.Accountability

	// Message is the decoded inbound message object.
	Message map[string]any
}

// Handler is a function that processes an event.
type Handler func(ctx context.Context, event Event) error

// Subscription identifies a registered handler so the host can tear it down.
type Subscription struct {
	event string
	id    int
}

type registration struct {
	id      int
	handler Handler
}

// Bus is a simple publish/subscribe event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]registration
	nextID   int
	logger   zerolog.Logger
}

// NewBus creates a new event bus.
func NewBus(logger zerolog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]registration),
		logger:   logger,
	}
}

// Subscribe registers a handler for an event name and returns a subscription
// handle for later removal.
func (b *Bus) Subscribe(event string, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	b.handlers[event] = append(b.handlers[event], registration{id: b.nextID, handler: handler})
	return Subscription{event: event, id: b.nextID}
}

// Unsubscribe removes a previously registered handler.
func (b *Bus) Unsubscribe(sub Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()

	regs := b.handlers[sub.event]
	for i, reg := range regs {
		if reg.id == sub.id {
			b.handlers[sub.event] = append(regs[:i], regs[i+1:]...)
			return
		}
	}
}

// Publish delivers an event to all handlers registered for its name.
// Handlers are called synchronously in registration order. A handler error
// is logged and does not stop delivery to the remaining handlers.
func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	regs := make([]registration, len(b.handlers[event.Name]))
	copy(regs, b.handlers[event.Name])
	b.mu.RUnlock()

	b.logger.Debug().
		Str("event", event.Name).
		Int("handlers", len(regs)).
		Msg("event delivered")

	for _, reg := range regs {
		if err := reg.handler(ctx, event); err != nil {
			b.logger.Error().
				Err(err).
				Str("event", event.Name).
				Msg("event handler error")
		}
	}
}

// HasSubscribers checks if any handlers are registered for an event.
func (b *Bus) HasSubscribers(event string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[event]) > 0
}
