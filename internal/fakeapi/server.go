// Package fakeapi is an in-memory stand-in for the shop's cart and product
// API. It answers the same routes and JSON shapes as the real backend and
// backs the end-to-end tests and cmd/fakecart.
package fakeapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
)

// Product is a catalog entry
type Product struct {
	ID          int64
	Name        string
	Brand       string
	Description string
	Price       decimal.Decimal
	Stock       int
	Images      []Image
}

// Image is a product picture
type Image struct {
	URL         string
	Description string
	Order       int
}

type line struct {
	id        int64
	productID int64
	quantity  int
}

// Server holds the fake backend state
type Server struct {
	mu         sync.Mutex
	products   map[int64]Product
	carts      map[string][]*line
	nextItemID int64
	failNext   map[string]int
	requests   []string

	token  string
	nested bool
	logger *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithToken requires "Authorization: Bearer <token>" on every request
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithNestedProducts answers cart lines with a nested "product" object
// instead of a flat "productId"
func WithNestedProducts() Option {
	return func(s *Server) { s.nested = true }
}

// WithLogger sets the request logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// New creates an empty backend
func New(opts ...Option) *Server {
	s := &Server{
		products: make(map[int64]Product),
		carts:    make(map[string][]*line),
		failNext: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// AddProduct adds or replaces a catalog entry
func (s *Server) AddProduct(p Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p
}

// SeedLine puts a line straight into userID's cart and returns its id
func (s *Server) SeedLine(userID string, productID int64, quantity int) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextItemID++
	s.carts[userID] = append(s.carts[userID], &line{id: s.nextItemID, productID: productID, quantity: quantity})
	return s.nextItemID
}

// FailNext makes the next request with the given method answer status
func (s *Server) FailNext(method string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failNext[method] = status
}

// Requests returns "METHOD /path" for every request received
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

// Quantity returns the quantity of productID in userID's cart
func (s *Server) Quantity(userID string, productID int64) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.carts[userID] {
		if l.productID == productID {
			return l.quantity, true
		}
	}
	return 0, false
}

// Router returns the HTTP handler with every route mounted at the root
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.record)
	r.Use(s.authenticate)
	r.Use(s.injectFailures)

	r.Route("/cart", func(r chi.Router) {
		r.Get("/user/{userID}", s.handleGetCart)
		r.Post("/user/{userID}/items", s.handleAddItem)
		r.Delete("/user/{userID}/clear", s.handleClearCart)
		r.Put("/items/{itemID}", s.handleUpdateQuantity)
		r.Delete("/items/{itemID}", s.handleRemoveItem)
	})
	r.Get("/products/{productID}", s.handleGetProduct)

	return r
}

// === Middleware ===

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()
		s.logger.Debug("fake api request", "method", r.Method, "path", r.URL.Path,
			"requestID", r.Header.Get("X-Request-ID"))
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token != "" && r.Header.Get("Authorization") != "Bearer "+s.token {
			writeError(w, http.StatusUnauthorized, "no autorizado")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		status, ok := s.failNext[r.Method]
		delete(s.failNext, r.Method)
		s.mu.Unlock()
		if ok {
			writeError(w, status, "injected failure")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// === Handlers ===

func (s *Server) handleGetCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	s.mu.Lock()
	body := s.cartJSON(userID)
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")
	productID, quantity, err := readAddParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.products[productID]
	if !ok {
		writeError(w, http.StatusNotFound, "producto no encontrado")
		return
	}

	existing := s.findLine(userID, productID)
	total := quantity
	if existing != nil {
		total += existing.quantity
	}
	if total > p.Stock {
		writeError(w, http.StatusBadRequest, "stock insuficiente")
		return
	}

	if existing != nil {
		existing.quantity = total
	} else {
		s.nextItemID++
		s.carts[userID] = append(s.carts[userID], &line{id: s.nextItemID, productID: productID, quantity: quantity})
	}

	writeJSON(w, http.StatusOK, s.cartJSON(userID))
}

func (s *Server) handleUpdateQuantity(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	quantity, err := readQuantity(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if quantity <= 0 {
		writeError(w, http.StatusBadRequest, "cantidad debe ser positiva")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, l := s.findItem(itemID)
	if l == nil {
		writeError(w, http.StatusNotFound, "item no encontrado")
		return
	}
	if p, ok := s.products[l.productID]; ok && quantity > p.Stock {
		writeError(w, http.StatusBadRequest, "stock insuficiente")
		return
	}
	l.quantity = quantity

	writeJSON(w, http.StatusOK, s.cartJSON(userID))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	itemID, err := strconv.ParseInt(chi.URLParam(r, "itemID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	userID, l := s.findItem(itemID)
	if l == nil {
		writeError(w, http.StatusNotFound, "item no encontrado")
		return
	}
	lines := s.carts[userID]
	kept := lines[:0]
	for _, other := range lines {
		if other.id != itemID {
			kept = append(kept, other)
		}
	}
	s.carts[userID] = kept

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearCart(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	s.mu.Lock()
	delete(s.carts, userID)
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	s.mu.Lock()
	p, ok := s.products[productID]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "producto no encontrado")
		return
	}

	writeJSON(w, http.StatusOK, productJSON(p))
}

// === helpers (callers hold s.mu) ===

func (s *Server) findLine(userID string, productID int64) *line {
	for _, l := range s.carts[userID] {
		if l.productID == productID {
			return l
		}
	}
	return nil
}

func (s *Server) findItem(itemID int64) (string, *line) {
	for userID, lines := range s.carts {
		for _, l := range lines {
			if l.id == itemID {
				return userID, l
			}
		}
	}
	return "", nil
}

func (s *Server) cartJSON(userID string) map[string]any {
	items := make([]map[string]any, 0, len(s.carts[userID]))
	total := decimal.Zero
	for _, l := range s.carts[userID] {
		p := s.products[l.productID]
		item := map[string]any{
			"id":       l.id,
			"cantidad": l.quantity,
			"precio":   number(p.Price),
		}
		if s.nested {
			item["product"] = map[string]any{"id": l.productID, "nombre": p.Name}
		} else {
			item["productId"] = l.productID
			item["nombre"] = p.Name
		}
		if len(p.Images) > 0 {
			item["imagenUrl"] = p.Images[0].URL
		}
		items = append(items, item)
		total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(l.quantity))))
	}
	return map[string]any{"items": items, "total": number(total)}
}

func productJSON(p Product) map[string]any {
	images := make([]map[string]any, 0, len(p.Images))
	sorted := append([]Image(nil), p.Images...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })
	for _, img := range sorted {
		images = append(images, map[string]any{
			"url":         img.URL,
			"descripcion": img.Description,
			"orden":       img.Order,
		})
	}
	return map[string]any{
		"id":          p.ID,
		"nombre":      p.Name,
		"marca":       p.Brand,
		"descripcion": p.Description,
		"precio":      number(p.Price),
		"stock":       p.Stock,
		"imagenes":    images,
	}
}

// number renders d as a bare JSON number
func number(d decimal.Decimal) json.RawMessage {
	return json.RawMessage(d.String())
}

// readAddParams reads productId and cantidad from the query string, falling
// back to the JSON body
func readAddParams(r *http.Request) (int64, int, error) {
	var body struct {
		ProductID int64 `json:"productId"`
		Cantidad  int   `json:"cantidad"`
	}
	if err := decodeBody(r, &body); err != nil {
		return 0, 0, err
	}

	q := r.URL.Query()
	if v := q.Get("productId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid productId %q", v)
		}
		body.ProductID = id
	}
	if v := q.Get("cantidad"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid cantidad %q", v)
		}
		body.Cantidad = n
	}

	if body.ProductID == 0 {
		return 0, 0, errors.New("productId is required")
	}
	if body.Cantidad < 1 {
		body.Cantidad = 1
	}
	return body.ProductID, body.Cantidad, nil
}

func readQuantity(r *http.Request) (int, error) {
	var body struct {
		Cantidad *int `json:"cantidad"`
	}
	if err := decodeBody(r, &body); err != nil {
		return 0, err
	}
	if v := r.URL.Query().Get("cantidad"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid cantidad %q", v)
		}
		return n, nil
	}
	if body.Cantidad == nil {
		return 0, errors.New("cantidad is required")
	}
	return *body.Cantidad, nil
}

func decodeBody(r *http.Request, dst any) error {
	if r.Body == nil || !strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		return nil
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("invalid body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
