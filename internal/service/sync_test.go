package service_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/laptophub/internal/adapter"
	"github.com/mmcdole/laptophub/internal/adapter/source/laptophub"
	"github.com/mmcdole/laptophub/internal/domain"
	"github.com/mmcdole/laptophub/internal/fakeapi"
	"github.com/mmcdole/laptophub/internal/service"
	"github.com/mmcdole/laptophub/internal/store"
)

type harness struct {
	api     *fakeapi.Server
	client  *laptophub.Client
	cart    *service.CartService
	session *adapter.Session
	events  chan domain.CartEvent
}

func newHarness(t *testing.T, opts ...fakeapi.Option) *harness {
	t.Helper()
	opts = append(opts, fakeapi.WithToken("tok"))
	api := fakeapi.New(opts...)
	api.AddProduct(fakeapi.Product{ID: 7, Name: "ThinkPad X1", Price: decimal.RequireFromString("1499.90"), Stock: 5})
	api.AddProduct(fakeapi.Product{ID: 42, Name: "MacBook Air", Price: decimal.RequireFromString("1299"), Stock: 2})
	srv := httptest.NewServer(api.Router())
	t.Cleanup(srv.Close)

	session := adapter.NewSession("tok", "u1", "ana@example.com")
	client := laptophub.NewClient(laptophub.ClientConfig{
		BaseURL:   srv.URL,
		Timeout:   5 * time.Second,
		RateLimit: 1000,
		Burst:     100,
	}, session, nil)

	cache, err := store.NewCartStore(t.TempDir(), srv.URL, "u1")
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	cart := service.NewCartService(client, session, cache, nil, nil)
	events := make(chan domain.CartEvent, 16)
	cart.Subscribe(func(e domain.CartEvent) { events <- e })

	return &harness{api: api, client: client, cart: cart, session: session, events: events}
}

func (h *harness) drain() []domain.CartEvent {
	var out []domain.CartEvent
	for {
		select {
		case e := <-h.events:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestSync_AddThenFetch(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.cart.AddItem(ctx, 7, 2))
	assert.Equal(t, []domain.CartEvent{domain.RefreshEvent()}, h.drain())

	cart, err := h.cart.FetchCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)
	assert.True(t, cart.Items[0].RefersTo(7))
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "2999.8", cart.Total.String())
}

func TestSync_UpdateFailureResynchronizes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.api.SeedLine("u1", 7, 1)

	h.cart.MarkPending(id, 4)
	h.api.FailNext(http.MethodPut, http.StatusInternalServerError)

	err := h.cart.UpdateQuantity(ctx, id, 4)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.Empty(t, h.cart.PendingUpdates())
	assert.Equal(t, []domain.CartEvent{
		domain.ItemUpdatedEvent(id, 4),
		domain.RefreshEvent(),
	}, h.drain())

	// Mutations are sent once
	puts := 0
	for _, r := range h.api.Requests() {
		if r == "PUT /cart/items/"+strconv.FormatInt(id, 10) {
			puts++
		}
	}
	assert.Equal(t, 1, puts)

	q, _ := h.api.Quantity("u1", 7)
	assert.Equal(t, 1, q)
}

func TestSync_FetchFailureIsNotRetried(t *testing.T) {
	h := newHarness(t)
	h.api.FailNext(http.MethodGet, http.StatusInternalServerError)

	_, err := h.cart.FetchCart(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrRemote)
	assert.Equal(t, []string{"GET /cart/user/u1"}, h.api.Requests())
}

func TestSync_ZeroQuantityRemovesLine(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	id := h.api.SeedLine("u1", 7, 3)

	require.NoError(t, h.cart.UpdateQuantity(ctx, id, 0))

	_, ok := h.api.Quantity("u1", 7)
	assert.False(t, ok)
	assert.Contains(t, h.api.Requests(), "DELETE /cart/items/"+strconv.FormatInt(id, 10))
}

func TestSync_GuardWithNestedProducts(t *testing.T) {
	h := newHarness(t, fakeapi.WithNestedProducts())
	ctx := context.Background()

	product, err := h.client.GetProduct(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, 2, product.Stock)

	g := service.NewAddToCartGuard(h.cart, h.session, *product, "", nil)
	res, err := g.Add(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, service.AddDone, res.Outcome)
	assert.Equal(t, 2, res.Quantity)

	// A fresh guard for the same product sees it in the nested cart shape
	g2 := service.NewAddToCartGuard(h.cart, h.session, *product, "", nil)
	res, err = g2.Add(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, service.AddSkippedInCart, res.Outcome)
}

func TestSync_LogoutEmptiesCart(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.api.SeedLine("u1", 7, 1)

	cart, err := h.cart.FetchCart(ctx)
	require.NoError(t, err)
	require.Len(t, cart.Items, 1)

	h.session.Clear()
	require.NoError(t, h.cart.Reset())
	before := len(h.api.Requests())

	cart, err = h.cart.FetchCart(ctx)
	require.NoError(t, err)
	assert.Empty(t, cart.Items)
	assert.Len(t, h.api.Requests(), before)
}
