// Package payment opens hosted checkout sessions on the payment gateway.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"storefront/internal/checkout"
)

type Config struct {
	BaseURL    string
	APIKey     string
	Currency   string
	SuccessURL string
	CancelURL  string
	Timeout    time.Duration
}

type sessionLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type sessionRequest struct {
	Reference  string        `json:"client_reference_id"`
	Currency   string        `json:"currency"`
	LineItems  []sessionLine `json:"line_items"`
	SuccessURL string        `json:"success_url"`
	CancelURL  string        `json:"cancel_url"`
}

type sessionResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// ErrUnavailable wraps transport failures: the gateway never answered.
var ErrUnavailable = errors.New("payment gateway unavailable")

// GatewayError is a non-2xx reply from the gateway.
type GatewayError struct {
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("payment gateway returned %d: %s", e.StatusCode, e.Body)
}

// Client implements checkout.Gateway over the gateway's REST API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ checkout.Gateway = (*Client)(nil)

func NewClient(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger,
	}
}

// CreateSession opens a hosted checkout for the eligible items. reference is
// also sent as the idempotency key so a repeated call yields the same session.
func (c *Client) CreateSession(ctx context.Context, reference string, req checkout.SettlementRequest) (checkout.Session, error) {
	if c.cfg.BaseURL == "" {
		return checkout.Session{}, fmt.Errorf("payment client not configured: base URL required")
	}

	payload := sessionRequest{
		Reference:  reference,
		Currency:   strings.ToLower(c.cfg.Currency),
		LineItems:  make([]sessionLine, 0, len(req.EligibleItems)),
		SuccessURL: c.cfg.SuccessURL,
		CancelURL:  c.cfg.CancelURL,
	}
	for _, item := range req.EligibleItems {
		payload.LineItems = append(payload.LineItems, sessionLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return checkout.Session{}, fmt.Errorf("failed to marshal session request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/checkout/sessions", bytes.NewReader(body))
	if err != nil {
		return checkout.Session{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Idempotency-Key", reference)
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("Payment gateway request failed", zap.Error(err), zap.String("reference", reference))
		return checkout.Session{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return checkout.Session{}, &GatewayError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var out sessionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return checkout.Session{}, fmt.Errorf("failed to decode session response: %w", err)
	}
	if out.ID == "" || out.URL == "" {
		return checkout.Session{}, fmt.Errorf("payment gateway returned an incomplete session")
	}

	return checkout.Session{ID: out.ID, URL: out.URL}, nil
}
