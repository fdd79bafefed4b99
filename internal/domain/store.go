package domain

// CartStore handles the local cart cache (BoltDB + memory).
// It holds the last successfully fetched cart; it never holds optimistic state.
type CartStore interface {
	GetCart() (*Cart, bool)
	SaveCart(cart *Cart) error

	InvalidateAll() error

	Close() error
}
