package domain

// EventKind tags a CartEvent
type EventKind int

const (
	// EventRefresh asks consumers to re-fetch the whole cart
	EventRefresh EventKind = iota
	// EventItemUpdated carries a new quantity for a single line
	EventItemUpdated
)

func (k EventKind) String() string {
	switch k {
	case EventRefresh:
		return "refresh"
	case EventItemUpdated:
		return "item-updated"
	default:
		return "unknown"
	}
}

// CartEvent is a transient cart-change notification.
// ItemID and Quantity are only meaningful for EventItemUpdated.
type CartEvent struct {
	Kind     EventKind
	ItemID   int64
	Quantity int
}

// RefreshEvent returns a Refresh event
func RefreshEvent() CartEvent {
	return CartEvent{Kind: EventRefresh}
}

// ItemUpdatedEvent returns an ItemUpdated event for itemID
func ItemUpdatedEvent(itemID int64, quantity int) CartEvent {
	return CartEvent{Kind: EventItemUpdated, ItemID: itemID, Quantity: quantity}
}

// CartObserver receives cart events.
type CartObserver interface {
	OnCartEvent(event CartEvent)
}

// NoOpObserver discards cart events (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnCartEvent(CartEvent) {}
