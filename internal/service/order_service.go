package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/upstream"
	"storefront/internal/util"
)

// OrderService reads placed orders from the upstream service
type OrderService struct {
	upstream CartUpstream
	logger   *zap.Logger
}

// NewOrderService creates a new order service
func NewOrderService(upstream CartUpstream) *OrderService {
	return &OrderService{
		upstream: upstream,
		logger:   util.GetLogger(),
	}
}

// History returns the caller's orders as the upstream reports them
func (s *OrderService) History(ctx context.Context, p Principal) ([]upstream.Order, error) {
	ctx, span := util.StartSpan(ctx, "OrderService.History")
	defer span.End()

	orders, err := s.upstream.GetOrderHistory(ctx, p.Token)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to get order history: %w", err)
	}

	s.logger.Debug("Order history fetched", zap.String("owner_id", p.OwnerID), zap.Int("orders", len(orders)))
	return orders, nil
}
