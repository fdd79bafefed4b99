package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductRef is the nested product reference some cart responses carry
type ProductRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name,omitempty"`
}

// CartItem is a single line in a user's cart
type CartItem struct {
	ID        int64           `json:"id"`                  // Server-assigned line identifier
	ProductID int64           `json:"productId,omitempty"` // Flat product id (0 when absent)
	Product   *ProductRef     `json:"product,omitempty"`   // Nested product reference (nil when absent)
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	ImageURL  string          `json:"imageUrl,omitempty"`
}

// Subtotal returns UnitPrice * Quantity
func (i CartItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// RefersTo reports whether the line references the given product.
// The nested reference is checked first, then the flat field; the remote
// API is not uniform about which one it fills in.
func (i CartItem) RefersTo(productID int64) bool {
	if i.Product != nil {
		return i.Product.ID == productID
	}
	if i.ProductID != 0 {
		return i.ProductID == productID
	}
	return false
}

// Cart is the remote source-of-truth cart as last seen by the client
type Cart struct {
	Items []CartItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// EmptyCart returns the cart shown to callers without an identity
func EmptyCart() *Cart {
	return &Cart{Items: []CartItem{}, Total: decimal.Zero}
}

// ItemCount returns the number of units across all lines
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	n := 0
	for _, it := range c.Items {
		n += it.Quantity
	}
	return n
}

// FindItem returns the line with the given id
func (c *Cart) FindItem(itemID int64) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}
	for _, it := range c.Items {
		if it.ID == itemID {
			return it, true
		}
	}
	return CartItem{}, false
}

// ContainsProduct reports whether any line references productID
func (c *Cart) ContainsProduct(productID int64) bool {
	if c == nil {
		return false
	}
	for _, it := range c.Items {
		if it.RefersTo(productID) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so cached carts are never shared with callers
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	out := &Cart{Items: make([]CartItem, len(c.Items)), Total: c.Total}
	for i, it := range c.Items {
		if it.Product != nil {
			ref := *it.Product
			it.Product = &ref
		}
		out.Items[i] = it
	}
	return out
}

// ProductImage is one image of a product gallery
type ProductImage struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
	Order       int    `json:"order"`
}

// Product is the subset of the product detail the storefront needs
type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand,omitempty"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Images      []ProductImage  `json:"images,omitempty"` // Sorted by Order
}

// InStock returns true if at least one unit is available
func (p Product) InStock() bool {
	return p.Stock > 0
}

// FormattedPrice returns the price as "$ 1234.50"
func FormattedPrice(d decimal.Decimal) string {
	return fmt.Sprintf("$ %s", d.StringFixed(2))
}
