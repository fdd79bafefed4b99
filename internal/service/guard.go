package service

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/mmcdole/laptophub/internal/domain"
)

// LoginPath is where an anonymous add-to-cart is sent
const LoginPath = "/login"

// AddOutcome describes what an add-to-cart attempt did
type AddOutcome int

const (
	AddDone            AddOutcome = iota // Item added remotely
	AddLoginRequired                     // No identity; RedirectURL is set
	AddSkippedInCart                     // Product already in the cart
	AddSkippedInFlight                   // Another add for this product is outstanding
)

func (o AddOutcome) String() string {
	switch o {
	case AddDone:
		return "added"
	case AddLoginRequired:
		return "login-required"
	case AddSkippedInCart:
		return "already-in-cart"
	case AddSkippedInFlight:
		return "in-flight"
	default:
		return "unknown"
	}
}

// AddResult is the result of AddToCartGuard.Add
type AddResult struct {
	Outcome     AddOutcome
	Quantity    int    // Clamped quantity sent to the server (AddDone only)
	RedirectURL string // Login URL with return destination (AddLoginRequired only)
}

// AddToCartGuard runs the product page's add-to-cart protocol for one
// product: identity check, membership check, quantity clamp and a
// single-flight guard. The UI flags it keeps replace the page's signals.
type AddToCartGuard struct {
	cart     *CartService
	identity domain.Identity
	product  domain.Product
	returnTo string
	logger   *slog.Logger

	mu         sync.Mutex
	processing bool
	inCart     bool
}

// NewAddToCartGuard creates a guard for product.
// A nil identity uses the cart service's; returnTo is the path to come back
// to after login, empty meaning /product/{id}.
func NewAddToCartGuard(cart *CartService, identity domain.Identity, product domain.Product, returnTo string, logger *slog.Logger) *AddToCartGuard {
	if logger == nil {
		logger = slog.Default()
	}
	if identity == nil {
		identity = cart.identity
	}
	if returnTo == "" {
		returnTo = ProductPath(product.ID)
	}
	return &AddToCartGuard{
		cart:     cart,
		identity: identity,
		product:  product,
		returnTo: returnTo,
		logger:   logger,
	}
}

// ProductPath returns the product page path for id
func ProductPath(id int64) string {
	return fmt.Sprintf("/product/%d", id)
}

// LoginRedirectURL returns /login?redirect=<returnTo>.
// Slashes stay literal; they are legal in a query component.
func LoginRedirectURL(returnTo string) string {
	return LoginPath + "?redirect=" + strings.ReplaceAll(url.QueryEscape(returnTo), "%2F", "/")
}

// Product returns the guarded product
func (g *AddToCartGuard) Product() domain.Product {
	return g.product
}

// InCart reports whether the product is known to be in the cart
func (g *AddToCartGuard) InCart() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.inCart
}

// Busy reports whether an add is outstanding
func (g *AddToCartGuard) Busy() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.processing
}

// Disabled mirrors the add button state: busy, already in cart, or no stock
func (g *AddToCartGuard) Disabled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.processing || g.inCart || !g.product.InStock()
}

// Clamp limits requested to [1, stock]
func (g *AddToCartGuard) Clamp(requested int) int {
	return ClampQuantity(requested, g.product.Stock)
}

// ClampQuantity limits requested to [1, limit]
func ClampQuantity(requested, limit int) int {
	if requested > limit {
		requested = limit
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}

// Refresh re-checks membership against a freshly fetched cart
func (g *AddToCartGuard) Refresh(ctx context.Context) bool {
	found := g.cart.ContainsProduct(ctx, g.product.ID)
	g.mu.Lock()
	if !g.processing {
		g.inCart = found
	}
	g.mu.Unlock()
	return found
}

// Add runs the add-to-cart protocol with the requested quantity
func (g *AddToCartGuard) Add(ctx context.Context, requested int) (AddResult, error) {
	g.mu.Lock()
	if g.processing {
		g.mu.Unlock()
		return AddResult{Outcome: AddSkippedInFlight}, nil
	}
	if g.inCart {
		g.mu.Unlock()
		return AddResult{Outcome: AddSkippedInCart}, nil
	}
	g.processing = true
	g.mu.Unlock()

	defer func() {
		g.mu.Lock()
		g.processing = false
		g.mu.Unlock()
	}()

	if !g.loggedIn() {
		redirect := LoginRedirectURL(g.returnTo)
		g.logger.Info("add to cart requires login", "productID", g.product.ID, "redirect", redirect)
		return AddResult{Outcome: AddLoginRequired, RedirectURL: redirect}, nil
	}

	if g.cart.ContainsProduct(ctx, g.product.ID) {
		g.setInCart(true)
		return AddResult{Outcome: AddSkippedInCart}, nil
	}

	if !g.product.InStock() {
		return AddResult{}, domain.ErrOutOfStock
	}
	qty := g.Clamp(requested)

	// Optimistic: the button reads "in cart" while the request is out
	g.setInCart(true)

	if err := g.cart.AddItem(ctx, g.product.ID, qty); err != nil {
		g.logger.Warn("add to cart failed", "productID", g.product.ID, "quantity", qty, "error", err)
		g.setInCart(false)
		g.cart.NotifyChanged()
		return AddResult{}, fmt.Errorf("add product %d to cart: %w", g.product.ID, err)
	}

	return AddResult{Outcome: AddDone, Quantity: qty}, nil
}

func (g *AddToCartGuard) loggedIn() bool {
	if g.identity == nil {
		return false
	}
	id, ok := g.identity.UserID()
	return ok && id != ""
}

func (g *AddToCartGuard) setInCart(v bool) {
	g.mu.Lock()
	g.inCart = v
	g.mu.Unlock()
}
