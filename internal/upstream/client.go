// Package upstream talks to the catalog/cart/order REST service that owns the
// authoritative cart and order state.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnauthorized is matched by a 401 or 403 StatusError.
var ErrUnauthorized = errors.New("upstream rejected credentials")

// ErrNotFound is matched by a 404 StatusError.
var ErrNotFound = errors.New("upstream resource not found")

// ErrUnavailable wraps transport failures: no reply was received.
var ErrUnavailable = errors.New("upstream unavailable")

// StatusError is a non-2xx reply, body included.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s %s returned %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

const maxErrorBody = 4 << 10

// Client calls the catalog service. The bearer token is passed per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates an upstream HTTP client
func NewClient(baseURL string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// GetProducts lists every product, deleted ones included.
func (c *Client) GetProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/products", "", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *Client) GetProduct(ctx context.Context, productID string) (*Product, error) {
	var product Product
	path := "/products/show/" + url.PathEscape(productID)
	if err := c.do(ctx, http.MethodGet, path, "", nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (c *Client) GetCart(ctx context.Context, token string) (*Cart, error) {
	var cart Cart
	if err := c.do(ctx, http.MethodGet, "/carts", token, nil, &cart); err != nil {
		return nil, err
	}
	return &cart, nil
}

func (c *Client) AddToCart(ctx context.Context, token, productID string, quantity int) error {
	return c.do(ctx, http.MethodPost, "/carts/add", token, itemQuery(productID, quantity), nil)
}

func (c *Client) UpdateCartItem(ctx context.Context, token, productID string, quantity int) error {
	return c.do(ctx, http.MethodPut, "/carts/update", token, itemQuery(productID, quantity), nil)
}

func (c *Client) RemoveFromCart(ctx context.Context, token, productID string) error {
	q := url.Values{}
	q.Set("productId", productID)
	return c.do(ctx, http.MethodDelete, "/carts/remove", token, q, nil)
}

func (c *Client) GetCartCount(ctx context.Context, token string) (int, error) {
	var out cartCount
	if err := c.do(ctx, http.MethodGet, "/carts/count", token, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) GetOrderHistory(ctx context.Context, token string) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders/history", token, nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// CompleteOrder turns the caller's cart into an order and empties it.
func (c *Client) CompleteOrder(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/complete-order", token, nil, nil)
}

func itemQuery(productID string, quantity int) url.Values {
	q := url.Values{}
	q.Set("productId", productID)
	q.Set("quantity", strconv.Itoa(quantity))
	return q
}

func (c *Client) do(ctx context.Context, method, path, token string, query url.Values, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("failed to build upstream url: %w", err)
	}
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed",
			zap.Error(err),
			zap.String("method", method),
			zap.String("path", path),
		)
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode upstream %s %s: %w", method, path, err)
	}
	return nil
}
