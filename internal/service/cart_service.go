package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"storefront/internal/cart"
	"storefront/internal/money"
	"storefront/internal/util"
)

// CartView is the cart page: mirrored lines plus the derived summary.
type CartView struct {
	Items          []cart.LineItem `json:"items"`
	Summary        cart.Summary    `json:"summary"`
	TotalDisplay   string          `json:"total_display"`
	ItemCount      int             `json:"item_count"`
	HasUnavailable bool            `json:"has_unavailable"`
	HasStale       bool            `json:"has_stale"`
}

// CartService mirrors the remote cart and validates edits locally before
// forwarding them.
type CartService struct {
	upstream CartUpstream
	summary  cart.SummaryConfig
	currency currency.Unit
	logger   *zap.Logger
}

// NewCartService creates a new cart service
func NewCartService(upstream CartUpstream, summary cart.SummaryConfig, unit currency.Unit) *CartService {
	return &CartService{
		upstream: upstream,
		summary:  summary,
		currency: unit,
		logger:   util.GetLogger(),
	}
}

// GetCart fetches the remote cart and summarizes it
func (s *CartService) GetCart(ctx context.Context, p Principal) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.GetCart")
	defer span.End()

	agg, err := s.load(ctx, p)
	if err != nil {
		util.RecordError(span, err)
		return nil, err
	}
	return s.view(agg), nil
}

// AddItem adds quantity of productID to the cart
func (s *CartService) AddItem(ctx context.Context, p Principal, productID string, quantity int) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.AddItem")
	defer span.End()

	if err := cart.New().AddOrMergeItem(productID, decimal.Zero, quantity); err != nil {
		return nil, err
	}

	if err := s.upstream.AddToCart(ctx, p.Token, productID, quantity); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to add to cart: %w", err)
	}

	s.logger.Info("Cart item added",
		zap.String("owner_id", p.OwnerID),
		zap.String("product_id", productID),
		zap.Int("quantity", quantity))

	return s.GetCart(ctx, p)
}

// UpdateQuantity sets the quantity of a line already in the cart
func (s *CartService) UpdateQuantity(ctx context.Context, p Principal, productID string, quantity int) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.UpdateQuantity")
	defer span.End()

	agg, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := agg.SetQuantity(productID, quantity); err != nil {
		return nil, err
	}

	if err := s.upstream.UpdateCartItem(ctx, p.Token, productID, quantity); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to update cart item: %w", err)
	}

	return s.GetCart(ctx, p)
}

// RemoveItem drops a line from the cart
func (s *CartService) RemoveItem(ctx context.Context, p Principal, productID string) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "CartService.RemoveItem")
	defer span.End()

	agg, err := s.load(ctx, p)
	if err != nil {
		return nil, err
	}
	if err := agg.RemoveItem(productID); err != nil {
		return nil, err
	}

	if err := s.upstream.RemoveFromCart(ctx, p.Token, productID); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}

	return s.GetCart(ctx, p)
}

// Count returns the header badge count
func (s *CartService) Count(ctx context.Context, p Principal) (int, error) {
	ctx, span := util.StartSpan(ctx, "CartService.Count")
	defer span.End()

	count, err := s.upstream.GetCartCount(ctx, p.Token)
	if err != nil {
		return 0, fmt.Errorf("failed to get cart count: %w", err)
	}
	return count, nil
}

func (s *CartService) load(ctx context.Context, p Principal) (*cart.Aggregate, error) {
	start := time.Now()
	remote, err := s.upstream.GetCart(ctx, p.Token)
	util.UpstreamLatency.WithLabelValues("get_cart").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return mirrorCart(remote)
}

func (s *CartService) view(agg *cart.Aggregate) *CartView {
	items := agg.Items()

	summary := agg.Summarize(s.summary)
	view := &CartView{
		Items:        items,
		Summary:      summary,
		TotalDisplay: money.New(summary.Total, s.currency).String(),
		ItemCount:    agg.TotalQuantity(),
	}
	for _, item := range items {
		view.HasUnavailable = view.HasUnavailable || !item.IsAvailable
		view.HasStale = view.HasStale || item.IsStale
	}
	return view
}
