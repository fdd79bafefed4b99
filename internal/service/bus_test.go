package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mmcdole/laptophub/internal/domain"
)

func TestEventBus_DeliversInSubscriptionOrder(t *testing.T) {
	bus := NewEventBus()
	var order []string
	bus.Subscribe(func(domain.CartEvent) { order = append(order, "a") })
	bus.Subscribe(func(domain.CartEvent) { order = append(order, "b") })
	bus.Subscribe(func(domain.CartEvent) { order = append(order, "c") })

	bus.Publish(domain.RefreshEvent())

	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestEventBus_LateSubscriberMissesEarlierEvents(t *testing.T) {
	bus := NewEventBus()
	bus.Publish(domain.RefreshEvent())

	log := &eventLog{}
	bus.Subscribe(log.handle)
	assert.Empty(t, log.All())

	bus.Publish(domain.ItemUpdatedEvent(3, 4))
	assert.Equal(t, []domain.CartEvent{domain.ItemUpdatedEvent(3, 4)}, log.All())
}

func TestEventBus_Unsubscribe(t *testing.T) {
	bus := NewEventBus()
	log := &eventLog{}
	sub := bus.Subscribe(log.handle)
	assert.Equal(t, 1, bus.Len())

	sub.Unsubscribe()
	sub.Unsubscribe()
	assert.Equal(t, 0, bus.Len())

	bus.Publish(domain.RefreshEvent())
	assert.Empty(t, log.All())
}

func TestEventBus_UnsubscribeDuringPublish(t *testing.T) {
	bus := NewEventBus()
	var calls int
	var sub *Subscription
	sub = bus.Subscribe(func(domain.CartEvent) {
		calls++
		sub.Unsubscribe()
	})
	later := &eventLog{}
	bus.Subscribe(later.handle)

	bus.Publish(domain.RefreshEvent())
	bus.Publish(domain.RefreshEvent())

	assert.Equal(t, 1, calls)
	assert.Len(t, later.All(), 2)
}

func TestEventBus_SubscribeObserver(t *testing.T) {
	bus := NewEventBus()
	sub := bus.SubscribeObserver(domain.NoOpObserver{})
	assert.Equal(t, 1, bus.Len())
	assert.NotPanics(t, func() { bus.Publish(domain.RefreshEvent()) })
	sub.Unsubscribe()
}

func TestEventKind_String(t *testing.T) {
	assert.Equal(t, "refresh", domain.EventRefresh.String())
	assert.Equal(t, "item-updated", domain.EventItemUpdated.String())
}
