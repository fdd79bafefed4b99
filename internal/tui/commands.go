package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mmcdole/laptophub/internal/domain"
	"github.com/mmcdole/laptophub/internal/service"
)

const requestTimeout = 30 * time.Second

// Command factories for async operations

// LoadCartCmd fetches the user's cart
func LoadCartCmd(svc *service.CartService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		cart, err := svc.FetchCart(ctx)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading cart"}
		}
		return CartLoadedMsg{Cart: cart}
	}
}

// LoadProductCmd fetches the product shown in the product pane
func LoadProductCmd(repo domain.ProductRepository, productID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		product, err := repo.GetProduct(ctx, productID)
		if err != nil {
			return ErrMsg{Err: err, Context: "loading product"}
		}
		return ProductLoadedMsg{Product: product}
	}
}

// CheckMembershipCmd re-checks whether the guarded product is in the cart
func CheckMembershipCmd(guard *service.AddToCartGuard) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return MembershipCheckedMsg{InCart: guard.Refresh(ctx)}
	}
}

// AddToCartCmd runs the add-to-cart protocol
func AddToCartCmd(guard *service.AddToCartGuard, quantity int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		res, err := guard.Add(ctx, quantity)
		return AddResultMsg{Result: res, Name: guard.Product().Name, Err: err}
	}
}

// UpdateQuantityCmd sends a quantity change that is already shown as pending
func UpdateQuantityCmd(svc *service.CartService, itemID int64, quantity int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		err := svc.UpdateQuantity(ctx, itemID, quantity)
		return QuantityUpdatedMsg{ItemID: itemID, Quantity: quantity, Err: err}
	}
}

// RemoveItemCmd deletes a cart line
func RemoveItemCmd(svc *service.CartService, itemID int64) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return ItemRemovedMsg{ItemID: itemID, Err: svc.RemoveItem(ctx, itemID)}
	}
}

// ClearCartCmd deletes every cart line
func ClearCartCmd(svc *service.CartService) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
		defer cancel()

		return CartClearedMsg{Err: svc.ClearCart(ctx)}
	}
}

// LogoutCmd forgets the session and drops cached cart state
func LogoutCmd(svc *service.SessionService) tea.Cmd {
	return func() tea.Msg {
		return LogoutCompleteMsg{Error: svc.Logout()}
	}
}

// TickCmd returns a command that sends a tick after a delay
func TickCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// ClearStatusCmd returns a command that clears status after a delay
func ClearStatusCmd(delay time.Duration) tea.Cmd {
	return tea.Tick(delay, func(t time.Time) tea.Msg {
		return ClearStatusMsg{}
	})
}
