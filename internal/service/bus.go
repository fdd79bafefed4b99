package service

import (
	"sync"

	"github.com/mmcdole/laptophub/internal/domain"
)

// EventBus is the process-wide cart-change broadcast.
// Publish delivers synchronously to every current subscriber in
// subscription order; nothing is buffered for late subscribers.
type EventBus struct {
	mu     sync.Mutex
	nextID uint64
	subs   []*Subscription
}

// Subscription is a registered handler; call Unsubscribe to detach it
type Subscription struct {
	id      uint64
	handler func(domain.CartEvent)
	bus     *EventBus
}

// NewEventBus creates an empty bus
func NewEventBus() *EventBus {
	return &EventBus{}
}

// Subscribe registers handler for all subsequent events
func (b *EventBus) Subscribe(handler func(domain.CartEvent)) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, handler: handler, bus: b}
	b.subs = append(b.subs, sub)
	return sub
}

// SubscribeObserver registers a domain.CartObserver
func (b *EventBus) SubscribeObserver(o domain.CartObserver) *Subscription {
	return b.Subscribe(o.OnCartEvent)
}

// Unsubscribe detaches the handler. Safe to call more than once and from
// inside a handler.
func (s *Subscription) Unsubscribe() {
	if s == nil || s.bus == nil {
		return
	}
	b := s.bus
	b.mu.Lock()
	defer b.mu.Unlock()

	for i, sub := range b.subs {
		if sub.id == s.id {
			// Copy so an in-progress Publish keeps its snapshot intact
			subs := make([]*Subscription, 0, len(b.subs)-1)
			subs = append(subs, b.subs[:i]...)
			b.subs = append(subs, b.subs[i+1:]...)
			return
		}
	}
}

// Publish fans event out to the subscribers registered at call time
func (b *EventBus) Publish(event domain.CartEvent) {
	b.mu.Lock()
	subs := b.subs
	b.mu.Unlock()

	for _, sub := range subs {
		sub.handler(event)
	}
}

// Len returns the number of current subscribers
func (b *EventBus) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
