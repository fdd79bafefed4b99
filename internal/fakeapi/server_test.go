package fakeapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	s := New(opts...)
	s.AddProduct(Product{ID: 7, Name: "ThinkPad X1", Price: decimal.RequireFromString("1499.90"), Stock: 3})
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return s, srv
}

func do(t *testing.T, method, url, body string, header http.Header) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp, out
}

func TestServer_AddAndGetCart(t *testing.T) {
	s, srv := newTestServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/cart/user/u1/items?productId=7&cantidad=2", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, cart := do(t, http.MethodGet, srv.URL+"/cart/user/u1", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	items := cart["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, 7.0, item["productId"])
	assert.Equal(t, 2.0, item["cantidad"])
	assert.Equal(t, 2999.8, cart["total"])

	q, ok := s.Quantity("u1", 7)
	assert.True(t, ok)
	assert.Equal(t, 2, q)
}

func TestServer_AddReadsJSONBody(t *testing.T) {
	s, srv := newTestServer(t)

	resp, _ := do(t, http.MethodPost, srv.URL+"/cart/user/u1/items", `{"productId":7,"cantidad":1}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	q, _ := s.Quantity("u1", 7)
	assert.Equal(t, 1, q)
}

func TestServer_AddRejectsOverStock(t *testing.T) {
	_, srv := newTestServer(t)

	resp, body := do(t, http.MethodPost, srv.URL+"/cart/user/u1/items?productId=7&cantidad=9", "", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "stock insuficiente", body["error"])

	resp, _ = do(t, http.MethodPost, srv.URL+"/cart/user/u1/items?productId=99&cantidad=1", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_UpdateRemoveClear(t *testing.T) {
	s, srv := newTestServer(t)
	id := s.SeedLine("u1", 7, 1)
	itemURL := srv.URL + "/cart/items/" + strconv.FormatInt(id, 10)

	resp, _ := do(t, http.MethodPut, itemURL+"?cantidad=3", `{"cantidad":3}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	q, _ := s.Quantity("u1", 7)
	assert.Equal(t, 3, q)

	resp, _ = do(t, http.MethodPut, itemURL, `{"cantidad":0}`, nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = do(t, http.MethodDelete, itemURL, "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok := s.Quantity("u1", 7)
	assert.False(t, ok)

	resp, _ = do(t, http.MethodDelete, itemURL, "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	s.SeedLine("u1", 7, 1)
	resp, _ = do(t, http.MethodDelete, srv.URL+"/cart/user/u1/clear", "", nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, ok = s.Quantity("u1", 7)
	assert.False(t, ok)
}

func TestServer_NestedProducts(t *testing.T) {
	s, srv := newTestServer(t, WithNestedProducts())
	s.SeedLine("u1", 7, 1)

	_, cart := do(t, http.MethodGet, srv.URL+"/cart/user/u1", "", nil)
	item := cart["items"].([]any)[0].(map[string]any)
	_, flat := item["productId"]
	assert.False(t, flat)
	assert.Equal(t, 7.0, item["product"].(map[string]any)["id"])
}

func TestServer_Token(t *testing.T) {
	_, srv := newTestServer(t, WithToken("secret"))

	resp, _ := do(t, http.MethodGet, srv.URL+"/products/7", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, product := do(t, http.MethodGet, srv.URL+"/products/7", "", http.Header{"Authorization": {"Bearer secret"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ThinkPad X1", product["nombre"])
	assert.Equal(t, 3.0, product["stock"])
}

func TestServer_FailNext(t *testing.T) {
	s, srv := newTestServer(t)
	s.FailNext(http.MethodGet, http.StatusServiceUnavailable)

	resp, _ := do(t, http.MethodGet, srv.URL+"/cart/user/u1", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, _ = do(t, http.MethodGet, srv.URL+"/cart/user/u1", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []string{"GET /cart/user/u1", "GET /cart/user/u1"}, s.Requests())
}
