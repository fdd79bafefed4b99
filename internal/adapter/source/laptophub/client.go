package laptophub

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/mmcdole/laptophub/internal/domain"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultRateLimit = 10 // requests per second
	defaultBurst     = 5
	maxReadRetries   = 3
	baseRetryDelay   = 500 * time.Millisecond

	requestIDHeader = "X-Request-ID"
)

// TokenSource returns the bearer token to attach, or "" for none
type TokenSource interface {
	Token() string
}

// ClientConfig configures the shop API client
type ClientConfig struct {
	BaseURL   string        // e.g. https://shop.example/api
	Timeout   time.Duration // Per-request timeout (0 = default)
	RateLimit float64       // Outbound requests per second (0 = default)
	Burst     int           // Limiter burst (0 = default)

	// ReadRetries is how many times a GET is retried on 5xx, capped at 3.
	// Zero leaves failed reads to the caller; mutations are never retried.
	ReadRetries int
}

// Client implements domain.CartRepository and domain.ProductRepository
// against the LaptopHub REST API
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
	retries    int
	logger     *slog.Logger
}

// NewClient creates a new shop API client
func NewClient(cfg ClientConfig, tokens TokenSource, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultBurst
	}
	retries := min(max(cfg.ReadRetries, 0), maxReadRetries)
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: rate.NewLimiter(rate.Limit(limit), burst),
		retries: retries,
		logger:  logger,
	}
}

// statusError carries a non-2xx status out of doRequest
type statusError struct {
	status int
	err    error
}

func (e *statusError) Error() string { return e.err.Error() }
func (e *statusError) Unwrap() error { return e.err }

// doRequest performs an authenticated HTTP request to the shop API.
// GETs may be retried with exponential backoff on 5xx (see ReadRetries);
// mutations are sent once.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values, payload interface{}) ([]byte, error) {
	reqURL := c.baseURL + path
	if len(query) > 0 {
		reqURL = fmt.Sprintf("%s?%s", reqURL, query.Encode())
	}

	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts += c.retries
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "url", reqURL)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		var bodyReader io.Reader
		if data != nil {
			bodyReader = bytes.NewReader(data)
		}
		req, err := http.NewRequestWithContext(ctx, method, reqURL, bodyReader)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		requestID := uuid.NewString()
		req.Header.Set("Accept", "application/json")
		req.Header.Set(requestIDHeader, requestID)
		if data != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.tokens != nil {
			if token := c.tokens.Token(); token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
		}

		c.logger.Debug("shop request", "method", method, "url", reqURL, "attempt", attempt, "requestID", requestID)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("shop request failed", "error", err, "requestID", requestID)
			return nil, fmt.Errorf("%w: %v", domain.ErrServerOffline, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to read response: %w", err)
		}

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return nil, &statusError{status: resp.StatusCode, err: domain.ErrAuthFailed}
		case resp.StatusCode == http.StatusNotFound:
			return nil, &statusError{status: resp.StatusCode, err: domain.ErrNotFound}
		case resp.StatusCode >= 500 && resp.StatusCode < 600:
			lastErr = &statusError{
				status: resp.StatusCode,
				err:    fmt.Errorf("server error: %d - %s", resp.StatusCode, string(body)),
			}
			c.logger.Warn("shop server error",
				"status", resp.StatusCode,
				"attempt", attempt,
				"method", method,
				"path", path,
				"requestID", requestID,
			)
			continue
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			c.logger.Error("shop request error", "status", resp.StatusCode, "body", string(body), "requestID", requestID)
			return nil, &statusError{
				status: resp.StatusCode,
				err:    fmt.Errorf("unexpected status code: %d", resp.StatusCode),
			}
		}

		return body, nil
	}

	c.logger.Error("shop request failed after retries", "error", lastErr, "url", reqURL)
	return nil, lastErr
}

// remoteErr wraps a doRequest failure for the caller
func remoteErr(op string, err error) error {
	re := &domain.RemoteError{Op: op, Err: err}
	var se *statusError
	if errors.As(err, &se) {
		re.Status = se.status
		re.Err = se.err
	}
	return re
}

// === Cart ===

// GetCart returns the user's cart
func (c *Client) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	path := fmt.Sprintf("/cart/user/%s", url.PathEscape(userID))
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, remoteErr("fetch cart", err)
	}

	cart, err := ParseCart(body)
	if err != nil {
		return nil, remoteErr("fetch cart", err)
	}
	return cart, nil
}

// AddItem adds a product to the user's cart.
// The backend binds productId/cantidad from the query; the JSON body mirrors them.
func (c *Client) AddItem(ctx context.Context, userID string, productID int64, quantity int) error {
	path := fmt.Sprintf("/cart/user/%s/items", url.PathEscape(userID))
	query := url.Values{}
	query.Set("productId", strconv.FormatInt(productID, 10))
	query.Set("cantidad", strconv.Itoa(quantity))

	_, err := c.doRequest(ctx, http.MethodPost, path, query, AddItemRequest{ProductID: productID, Cantidad: quantity})
	if err != nil {
		return remoteErr("add item", err)
	}
	return nil
}

// UpdateQuantity sets a cart line's quantity
func (c *Client) UpdateQuantity(ctx context.Context, itemID int64, quantity int) error {
	path := fmt.Sprintf("/cart/items/%d", itemID)
	query := url.Values{}
	query.Set("cantidad", strconv.Itoa(quantity))

	_, err := c.doRequest(ctx, http.MethodPut, path, query, UpdateQuantityRequest{Cantidad: quantity})
	if err != nil {
		return remoteErr("update quantity", err)
	}
	return nil
}

// RemoveItem deletes a cart line
func (c *Client) RemoveItem(ctx context.Context, itemID int64) error {
	path := fmt.Sprintf("/cart/items/%d", itemID)
	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return remoteErr("remove item", err)
	}
	return nil
}

// ClearCart deletes every line in the user's cart
func (c *Client) ClearCart(ctx context.Context, userID string) error {
	path := fmt.Sprintf("/cart/user/%s/clear", url.PathEscape(userID))
	if _, err := c.doRequest(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return remoteErr("clear cart", err)
	}
	return nil
}

// === Products ===

// GetProduct returns product detail including stock
func (c *Client) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	path := fmt.Sprintf("/products/%d", productID)
	body, err := c.doRequest(ctx, http.MethodGet, path, nil, nil)
	if err != nil {
		return nil, remoteErr("fetch product", err)
	}

	product, err := ParseProduct(body)
	if err != nil {
		return nil, remoteErr("fetch product", err)
	}
	return product, nil
}
