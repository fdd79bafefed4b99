package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/laptophub/internal/domain"
)

func testProduct(id int64, stock int) domain.Product {
	return domain.Product{ID: id, Name: "ThinkPad X1", Price: decimal.NewFromInt(1500), Stock: stock}
}

func TestGuard_AnonymousRedirectsToLogin(t *testing.T) {
	repo := newFakeRepo()
	svc, log := newTestService(repo, anonymous())
	g := NewAddToCartGuard(svc, anonymous(), testProduct(42, 5), "", nil)

	res, err := g.Add(context.Background(), 1)
	require.NoError(t, err)

	assert.Equal(t, AddLoginRequired, res.Outcome)
	assert.Equal(t, "/login?redirect=/product/42", res.RedirectURL)
	assert.Empty(t, repo.Calls())
	assert.Empty(t, log.All())
	assert.False(t, g.Busy())
}

func TestGuard_NilIdentityUsesCartIdentity(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, loggedIn("u1"))
	g := NewAddToCartGuard(svc, nil, testProduct(7, 3), "", nil)

	res, err := g.Add(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, AddDone, res.Outcome)
	assert.Equal(t, []string{"get", "add"}, repo.Calls())
}

func TestGuard_NoIdentityAnywhere(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, nil)
	g := NewAddToCartGuard(svc, nil, testProduct(42, 5), "", nil)

	require.NotPanics(t, func() {
		res, err := g.Add(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, AddLoginRequired, res.Outcome)
	})
	assert.Empty(t, repo.Calls())
}

func TestGuard_AddsClampedQuantity(t *testing.T) {
	repo := newFakeRepo()
	svc, log := newTestService(repo, loggedIn("u1"))
	g := NewAddToCartGuard(svc, loggedIn("u1"), testProduct(7, 3), "", nil)

	res, err := g.Add(context.Background(), 10)
	require.NoError(t, err)

	assert.Equal(t, AddDone, res.Outcome)
	assert.Equal(t, 3, res.Quantity)
	assert.True(t, g.InCart())
	assert.True(t, g.Disabled())
	assert.Equal(t, []string{"get", "add"}, repo.Calls())
	assert.Equal(t, 1, log.Count(domain.EventRefresh))

	// A second press is a no-op
	res, err = g.Add(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, AddSkippedInCart, res.Outcome)
	assert.Equal(t, []string{"get", "add"}, repo.Calls())
}

func TestGuard_AlreadyInCart(t *testing.T) {
	tests := []struct {
		name string
		item domain.CartItem
	}{
		{"flat product id", domain.CartItem{ID: 1, ProductID: 7, Quantity: 1}},
		{"nested product", domain.CartItem{ID: 1, Product: &domain.ProductRef{ID: 7}, Quantity: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newFakeRepo()
			repo.carts["u1"] = []domain.CartItem{tt.item}
			svc, _ := newTestService(repo, loggedIn("u1"))
			g := NewAddToCartGuard(svc, loggedIn("u1"), testProduct(7, 3), "", nil)

			res, err := g.Add(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, AddSkippedInCart, res.Outcome)
			assert.True(t, g.InCart())
			assert.Equal(t, []string{"get"}, repo.Calls())
		})
	}
}

func TestGuard_OutOfStock(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, loggedIn("u1"))
	g := NewAddToCartGuard(svc, loggedIn("u1"), testProduct(7, 0), "", nil)

	assert.True(t, g.Disabled())
	_, err := g.Add(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrOutOfStock)
	assert.NotContains(t, repo.Calls(), "add")
}

func TestGuard_FailureRevertsInCart(t *testing.T) {
	repo := newFakeRepo()
	repo.fail["add"] = domain.ErrServerOffline
	svc, log := newTestService(repo, loggedIn("u1"))
	g := NewAddToCartGuard(svc, loggedIn("u1"), testProduct(7, 3), "", nil)

	_, err := g.Add(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.False(t, g.InCart())
	assert.False(t, g.Busy())
	assert.Equal(t, 1, log.Count(domain.EventRefresh))
}

func TestGuard_SingleFlight(t *testing.T) {
	repo := newFakeRepo()
	repo.block = make(chan struct{})
	svc, _ := newTestService(repo, loggedIn("u1"))
	g := NewAddToCartGuard(svc, loggedIn("u1"), testProduct(7, 3), "", nil)

	done := make(chan AddResult, 1)
	go func() {
		res, err := g.Add(context.Background(), 1)
		assert.NoError(t, err)
		done <- res
	}()

	require.Eventually(t, g.Busy, time.Second, 5*time.Millisecond)

	res, err := g.Add(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, AddSkippedInFlight, res.Outcome)

	close(repo.block)
	select {
	case res := <-done:
		assert.Equal(t, AddDone, res.Outcome)
	case <-time.After(time.Second):
		t.Fatal("first add did not finish")
	}

	var adds int
	for _, c := range repo.Calls() {
		if c == "add" {
			adds++
		}
	}
	assert.Equal(t, 1, adds)
}

func TestGuard_Refresh(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo, loggedIn("u1"))
	g := NewAddToCartGuard(svc, loggedIn("u1"), testProduct(7, 3), "", nil)

	assert.False(t, g.Refresh(context.Background()))
	repo.seed("u1", 7, "ThinkPad X1", 1)
	assert.True(t, g.Refresh(context.Background()))
	assert.True(t, g.InCart())
}

func TestClampQuantity(t *testing.T) {
	assert.Equal(t, 1, ClampQuantity(0, 5))
	assert.Equal(t, 1, ClampQuantity(-3, 5))
	assert.Equal(t, 3, ClampQuantity(3, 5))
	assert.Equal(t, 5, ClampQuantity(9, 5))
}

func TestLoginRedirectURL(t *testing.T) {
	assert.Equal(t, "/login?redirect=/product/42", LoginRedirectURL(ProductPath(42)))
	assert.Equal(t, "/login?redirect=/cart%3Fstep%3D2", LoginRedirectURL("/cart?step=2"))
	assert.Equal(t, "login-required", AddLoginRequired.String())
}
