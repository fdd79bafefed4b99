package tui

import (
	"github.com/mmcdole/laptophub/internal/domain"
	"github.com/mmcdole/laptophub/internal/service"
)

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// CartLoadedMsg carries a freshly fetched cart
type CartLoadedMsg struct {
	Cart *domain.Cart
}

// ProductLoadedMsg carries the product shown in the product pane
type ProductLoadedMsg struct {
	Product *domain.Product
}

// CartEventMsg wraps a notification from the cart bus
type CartEventMsg struct {
	Event domain.CartEvent
}

// MembershipCheckedMsg reports whether the shown product is in the cart
type MembershipCheckedMsg struct {
	InCart bool
}

// AddResultMsg reports the outcome of an add-to-cart press
type AddResultMsg struct {
	Result service.AddResult
	Name   string
	Err    error
}

// QuantityUpdatedMsg reports a finished quantity change
type QuantityUpdatedMsg struct {
	ItemID   int64
	Quantity int
	Err      error
}

// ItemRemovedMsg reports a finished line removal
type ItemRemovedMsg struct {
	ItemID int64
	Err    error
}

// CartClearedMsg reports a finished clear
type CartClearedMsg struct {
	Err error
}

// LogoutCompleteMsg signals that logout has finished
type LogoutCompleteMsg struct {
	Error error
}

// ClearStatusMsg clears the status line
type ClearStatusMsg struct{}

// TickMsg is used for spinner animation
type TickMsg struct{}
