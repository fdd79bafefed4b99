package domain

import (
	"context"
)

// CartRepository provides access to the remote cart API
type CartRepository interface {
	// GetCart returns the authoritative cart for a user
	GetCart(ctx context.Context, userID string) (*Cart, error)

	// AddItem adds quantity units of a product to the user's cart
	AddItem(ctx context.Context, userID string, productID int64, quantity int) error

	// UpdateQuantity sets the quantity of a cart line (quantity must be positive)
	UpdateQuantity(ctx context.Context, itemID int64, quantity int) error

	// RemoveItem deletes a cart line
	RemoveItem(ctx context.Context, itemID int64) error

	// ClearCart deletes every line of the user's cart
	ClearCart(ctx context.Context, userID string) error
}

// ProductRepository provides product detail lookups
type ProductRepository interface {
	// GetProduct returns the product detail, including stock
	GetProduct(ctx context.Context, productID int64) (*Product, error)
}

// Identity is the synchronous accessor for the current user.
// UserID returns ok=false when nobody is logged in.
type Identity interface {
	UserID() (string, bool)
}

// IdentityFunc adapts a plain function to Identity
type IdentityFunc func() (string, bool)

func (f IdentityFunc) UserID() (string, bool) { return f() }
