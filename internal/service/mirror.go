package service

import (
	"fmt"

	"storefront/internal/cart"
	"storefront/internal/upstream"
)

// mirrorCart rebuilds the local aggregate from the remote cart. Lines keep the
// price captured upstream; a deleted product makes its line unavailable and a
// moved catalog price makes it stale.
func mirrorCart(remote *upstream.Cart) (*cart.Aggregate, error) {
	agg := cart.New()
	if remote == nil {
		return agg, nil
	}

	for _, item := range remote.CartItems {
		line := cart.LineItem{
			ProductID:   string(item.Product.ID),
			ProductName: item.Product.Name,
			UnitPrice:   item.Price,
			Quantity:    item.Quantity,
			IsAvailable: !item.Product.Deleted,
			IsStale:     !item.Price.Equal(item.Product.Price),
		}
		if err := agg.AddOrMergeLine(line); err != nil {
			return nil, fmt.Errorf("failed to mirror cart line %s: %w", line.ProductID, err)
		}
	}
	return agg, nil
}
