package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mmcdole/laptophub/internal/domain"
)

// fakeRepo is an in-memory domain.CartRepository that records calls
type fakeRepo struct {
	mu     sync.Mutex
	carts  map[string][]domain.CartItem
	nextID int64
	calls  []string

	// fail maps an operation name to the error it returns
	fail map[string]error
	// block, when set, is waited on by AddItem before it answers
	block chan struct{}
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		carts:  make(map[string][]domain.CartItem),
		nextID: 100,
		fail:   make(map[string]error),
	}
}

func (r *fakeRepo) record(op string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, op)
	return r.fail[op]
}

func (r *fakeRepo) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *fakeRepo) seed(userID string, productID int64, name string, qty int) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.carts[userID] = append(r.carts[userID], domain.CartItem{
		ID:        r.nextID,
		ProductID: productID,
		Name:      name,
		UnitPrice: decimal.NewFromInt(100),
		Quantity:  qty,
	})
	return r.nextID
}

func (r *fakeRepo) GetCart(_ context.Context, userID string) (*domain.Cart, error) {
	if err := r.record("get"); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	items := append([]domain.CartItem{}, r.carts[userID]...)
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return &domain.Cart{Items: items, Total: total}, nil
}

func (r *fakeRepo) AddItem(_ context.Context, userID string, productID int64, quantity int) error {
	if r.block != nil {
		<-r.block
	}
	if err := r.record("add"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	r.carts[userID] = append(r.carts[userID], domain.CartItem{
		ID:        r.nextID,
		ProductID: productID,
		Name:      fmt.Sprintf("Product %d", productID),
		UnitPrice: decimal.NewFromInt(100),
		Quantity:  quantity,
	})
	return nil
}

func (r *fakeRepo) UpdateQuantity(_ context.Context, itemID int64, quantity int) error {
	if err := r.record("update"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for user, items := range r.carts {
		for i := range items {
			if items[i].ID == itemID {
				r.carts[user][i].Quantity = quantity
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (r *fakeRepo) RemoveItem(_ context.Context, itemID int64) error {
	if err := r.record("remove"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for user, items := range r.carts {
		for i := range items {
			if items[i].ID == itemID {
				r.carts[user] = append(items[:i:i], items[i+1:]...)
				return nil
			}
		}
	}
	return nil
}

func (r *fakeRepo) ClearCart(_ context.Context, userID string) error {
	if err := r.record("clear"); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.carts, userID)
	return nil
}

// eventLog collects events from a bus subscription
type eventLog struct {
	mu     sync.Mutex
	events []domain.CartEvent
}

func (l *eventLog) handle(e domain.CartEvent) {
	l.mu.Lock()
	l.events = append(l.events, e)
	l.mu.Unlock()
}

func (l *eventLog) All() []domain.CartEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.CartEvent(nil), l.events...)
}

func (l *eventLog) Count(kind domain.EventKind) int {
	n := 0
	for _, e := range l.All() {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

func loggedIn(userID string) domain.Identity {
	return domain.IdentityFunc(func() (string, bool) { return userID, true })
}

func anonymous() domain.Identity {
	return domain.IdentityFunc(func() (string, bool) { return "", false })
}

func newTestService(repo *fakeRepo, identity domain.Identity) (*CartService, *eventLog) {
	svc := NewCartService(repo, identity, nil, nil, nil)
	log := &eventLog{}
	svc.Subscribe(log.handle)
	return svc, log
}
