package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mmcdole/laptophub/internal/domain"
	"github.com/mmcdole/laptophub/internal/store"
)

// MetricsRecorder receives cart sync measurements (consumer-defined interface)
type MetricsRecorder interface {
	Mutation(op string, err error)
	Event(kind domain.EventKind)
	PendingUpdates(n int)
}

type nopRecorder struct{}

func (nopRecorder) Mutation(string, error) {}
func (nopRecorder) Event(domain.EventKind) {}
func (nopRecorder) PendingUpdates(int)     {}

// CartLine is a cart item with any pending quantity applied
type CartLine struct {
	domain.CartItem
	Pending bool // Quantity comes from the ledger, not the server
}

// CartService mediates every read and write of the remote cart.
// Every mutation follows the same shape: call the remote API, then
// broadcast on the bus. It holds the last fetched cart and the ledger of
// optimistic quantities, and does no queuing or locking of its own.
type CartService struct {
	repo     domain.CartRepository
	identity domain.Identity
	cache    domain.CartStore
	bus      *EventBus
	ledger   *PendingLedger
	metrics  MetricsRecorder
	logger   *slog.Logger
}

// NewCartService creates a cart synchronizer.
// A nil cache gives a memory-only cache and a nil bus a private bus.
func NewCartService(
	repo domain.CartRepository,
	identity domain.Identity,
	cache domain.CartStore,
	bus *EventBus,
	logger *slog.Logger,
) *CartService {
	if logger == nil {
		logger = slog.Default()
	}
	if cache == nil {
		cache = store.NewMemoryStore()
	}
	if bus == nil {
		bus = NewEventBus()
	}
	return &CartService{
		repo:     repo,
		identity: identity,
		cache:    cache,
		bus:      bus,
		ledger:   NewPendingLedger(),
		metrics:  nopRecorder{},
		logger:   logger,
	}
}

// SetMetrics installs a metrics recorder
func (s *CartService) SetMetrics(m MetricsRecorder) {
	if m == nil {
		m = nopRecorder{}
	}
	s.metrics = m
}

// Bus returns the notification bus the service publishes on
func (s *CartService) Bus() *EventBus {
	return s.bus
}

// === Reads ===

// FetchCart returns the user's cart and replaces the cached copy.
// Without an identity it returns an empty cart and makes no remote call.
func (s *CartService) FetchCart(ctx context.Context) (*domain.Cart, error) {
	userID, ok := s.userID()
	if !ok {
		empty := domain.EmptyCart()
		s.saveCache(empty)
		return empty, nil
	}

	cart, err := s.repo.GetCart(ctx, userID)
	if err != nil {
		s.logger.Warn("fetch cart failed", "userID", userID, "error", err)
		return nil, asRemote("fetch cart", err)
	}

	s.saveCache(cart)
	s.logger.Debug("cart fetched", "userID", userID, "items", len(cart.Items))
	return cart.Clone(), nil
}

// CachedCart returns the last successfully fetched cart
func (s *CartService) CachedCart() (*domain.Cart, bool) {
	return s.cache.GetCart()
}

// PendingUpdates returns a snapshot of the optimistic quantities
func (s *CartService) PendingUpdates() map[int64]int {
	return s.ledger.Snapshot()
}

// ContainsProduct reports whether the user's cart holds productID.
// Read failures and a missing identity both answer false.
func (s *CartService) ContainsProduct(ctx context.Context, productID int64) bool {
	if _, ok := s.userID(); !ok {
		return false
	}
	cart, err := s.FetchCart(ctx)
	if err != nil {
		return false
	}
	return cart.ContainsProduct(productID)
}

// Merged applies pending quantities to cart for rendering
func (s *CartService) Merged(cart *domain.Cart) []CartLine {
	if cart == nil {
		return nil
	}
	pending := s.ledger.Snapshot()
	lines := make([]CartLine, len(cart.Items))
	for i, it := range cart.Items {
		lines[i] = CartLine{CartItem: it}
		if q, ok := pending[it.ID]; ok {
			lines[i].Quantity = q
			lines[i].Pending = true
		}
	}
	return lines
}

// === Mutations ===

// AddItem adds quantity units of productID; quantity below 1 means 1.
// The cache is left alone; subscribers re-fetch on the Refresh event.
func (s *CartService) AddItem(ctx context.Context, productID int64, quantity int) error {
	userID, ok := s.userID()
	if !ok {
		return domain.ErrNoIdentity
	}
	if quantity < 1 {
		quantity = 1
	}

	if err := s.repo.AddItem(ctx, userID, productID, quantity); err != nil {
		s.logger.Error("add item failed", "productID", productID, "quantity", quantity, "error", err)
		s.metrics.Mutation("add", err)
		return asRemote("add item", err)
	}

	s.logger.Info("item added", "productID", productID, "quantity", quantity)
	s.metrics.Mutation("add", nil)
	s.publish(domain.RefreshEvent())
	return nil
}

// UpdateQuantity sets a line's quantity. Non-positive quantities remove the
// line instead. The ledger entry for itemID is gone once this returns; on
// failure a Refresh is published before the error is returned.
func (s *CartService) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	if quantity <= 0 {
		s.logger.Debug("non-positive quantity, removing item", "itemID", itemID, "quantity", quantity)
		err := s.removeItem(ctx, itemID)
		s.resolvePending(itemID)
		// Success or not, the line's quantity is the server's again
		s.publish(domain.RefreshEvent())
		return err
	}

	err := s.repo.UpdateQuantity(ctx, itemID, quantity)
	s.resolvePending(itemID)
	if err != nil {
		s.logger.Error("quantity update failed", "itemID", itemID, "quantity", quantity, "error", err)
		s.metrics.Mutation("update", err)
		s.publish(domain.RefreshEvent())
		return asRemote("update item", err)
	}

	s.logger.Info("quantity updated", "itemID", itemID, "quantity", quantity)
	s.metrics.Mutation("update", nil)
	s.publish(domain.ItemUpdatedEvent(itemID, quantity))
	return nil
}

// RemoveItem deletes a line
func (s *CartService) RemoveItem(ctx context.Context, itemID int64) error {
	if err := s.removeItem(ctx, itemID); err != nil {
		return err
	}
	s.publish(domain.RefreshEvent())
	return nil
}

// removeItem is the remote half of a removal; callers publish
func (s *CartService) removeItem(ctx context.Context, itemID int64) error {
	if err := s.repo.RemoveItem(ctx, itemID); err != nil {
		s.logger.Error("remove item failed", "itemID", itemID, "error", err)
		s.metrics.Mutation("remove", err)
		return asRemote("remove item", err)
	}

	s.logger.Info("item removed", "itemID", itemID)
	s.metrics.Mutation("remove", nil)
	return nil
}

// ClearCart deletes every line of the user's cart
func (s *CartService) ClearCart(ctx context.Context) error {
	userID, ok := s.userID()
	if !ok {
		return domain.ErrNoIdentity
	}

	if err := s.repo.ClearCart(ctx, userID); err != nil {
		s.logger.Error("clear cart failed", "userID", userID, "error", err)
		s.metrics.Mutation("clear", err)
		return asRemote("clear cart", err)
	}

	s.logger.Info("cart cleared", "userID", userID)
	s.metrics.Mutation("clear", nil)
	s.publish(domain.RefreshEvent())
	return nil
}

// MarkPending records an optimistic quantity and announces it immediately.
// No remote call is made.
func (s *CartService) MarkPending(itemID int64, quantity int) {
	s.ledger.Set(itemID, quantity)
	s.metrics.PendingUpdates(s.ledger.Len())
	s.publish(domain.ItemUpdatedEvent(itemID, quantity))
}

// === Notification ===

// Subscribe registers handler on the cart-change bus
func (s *CartService) Subscribe(handler func(domain.CartEvent)) *Subscription {
	return s.bus.Subscribe(handler)
}

// NotifyChanged publishes a Refresh without touching the remote API
func (s *CartService) NotifyChanged() {
	s.publish(domain.RefreshEvent())
}

// Reset drops the cache and the ledger (used on logout).
// The ledger is cleared and Refresh published even if the cache cannot be wiped.
func (s *CartService) Reset() error {
	err := s.cache.InvalidateAll()
	if err != nil {
		s.logger.Error("failed to drop cached cart", "error", err)
	}
	s.ledger.Reset()
	s.metrics.PendingUpdates(0)
	s.publish(domain.RefreshEvent())
	return err
}

// === helpers ===

func (s *CartService) userID() (string, bool) {
	if s.identity == nil {
		return "", false
	}
	id, ok := s.identity.UserID()
	if id == "" {
		return "", false
	}
	return id, ok
}

func (s *CartService) saveCache(cart *domain.Cart) {
	if err := s.cache.SaveCart(cart); err != nil {
		s.logger.Warn("failed to cache cart", "error", err)
	}
}

func (s *CartService) resolvePending(itemID int64) {
	s.ledger.Clear(itemID)
	s.metrics.PendingUpdates(s.ledger.Len())
}

func (s *CartService) publish(event domain.CartEvent) {
	s.metrics.Event(event.Kind)
	s.bus.Publish(event)
}

// asRemote makes sure err matches domain.ErrRemote
func asRemote(op string, err error) error {
	if errors.Is(err, domain.ErrRemote) {
		return err
	}
	return &domain.RemoteError{Op: op, Err: err}
}
