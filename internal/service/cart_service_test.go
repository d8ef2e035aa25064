package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/upstream"
)

var shopper = Principal{Token: "tok", OwnerID: "owner-1"}

func mixedCart() *upstream.Cart {
	return &upstream.Cart{CartItems: []upstream.CartItem{
		remoteItem("1", "Mug", "10.00", "10.00", 2, false),
		remoteItem("2", "Fork", "3.33", "3.50", 1, false),
		remoteItem("3", "Lamp", "30.00", "30.00", 1, true),
	}}
}

func TestMirrorCart(t *testing.T) {
	agg, err := mirrorCart(&upstream.Cart{CartItems: []upstream.CartItem{
		remoteItem("1", "Mug", "10.00", "10.00", 2, false),
		remoteItem("2", "Fork", "3.33", "3.50", 1, false),
		remoteItem("3", "Lamp", "30.00", "30.00", 1, true),
		remoteItem("1", "Mug", "10.00", "10.00", 1, false),
	}})
	require.NoError(t, err)

	items := agg.Items()
	require.Len(t, items, 3)

	assert.Equal(t, 3, items[0].Quantity)
	assert.True(t, items[0].IsAvailable)
	assert.False(t, items[0].IsStale)

	assert.True(t, items[1].IsStale)
	assert.Equal(t, "3.33", items[1].UnitPrice.StringFixed(2))

	assert.False(t, items[2].IsAvailable)
	assert.Equal(t, "Lamp", items[2].ProductName)
}

func TestMirrorCart_RejectsBadQuantity(t *testing.T) {
	_, err := mirrorCart(&upstream.Cart{CartItems: []upstream.CartItem{
		remoteItem("1", "Mug", "10.00", "10.00", 0, false),
	}})
	require.ErrorIs(t, err, cart.ErrInvalidQuantity)
}

func TestCartService_GetCart(t *testing.T) {
	up := &fakeUpstream{cart: mixedCart()}
	svc := NewCartService(up, cart.DefaultSummaryConfig(), sgd)

	view, err := svc.GetCart(context.Background(), shopper)
	require.NoError(t, err)

	assert.Len(t, view.Items, 3)
	assert.Equal(t, 4, view.ItemCount)
	assert.True(t, view.HasUnavailable)
	assert.True(t, view.HasStale)
	assert.Equal(t, "53.33", view.Summary.Subtotal.StringFixed(2))
	assert.Equal(t, "5.25", view.Summary.Tax.StringFixed(2))
	assert.Equal(t, "63.58", view.Summary.Total.StringFixed(2))
	assert.Equal(t, "SGD 63.58", view.TotalDisplay)
	assert.Equal(t, "tok", up.calls[0].token)
}

func TestCartService_GetEmptyCart(t *testing.T) {
	svc := NewCartService(&fakeUpstream{}, cart.DefaultSummaryConfig(), sgd)

	view, err := svc.GetCart(context.Background(), shopper)
	require.NoError(t, err)

	assert.Empty(t, view.Items)
	assert.True(t, view.Summary.DeliveryFee.IsZero())
	assert.Equal(t, "SGD 0.00", view.TotalDisplay)
}

func TestCartService_AddItem(t *testing.T) {
	tests := []struct {
		name     string
		product  string
		quantity int
		wantErr  error
		wantOps  []string
	}{
		{name: "ok: forwards then reconciles", product: "1", quantity: 2, wantOps: []string{"add", "get_cart"}},
		{name: "error: zero quantity stays local", product: "1", quantity: 0, wantErr: cart.ErrInvalidQuantity},
		{name: "error: missing product stays local", product: "", quantity: 1, wantErr: cart.ErrMissingProductID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUpstream{cart: mixedCart()}
			svc := NewCartService(up, cart.DefaultSummaryConfig(), sgd)

			view, err := svc.AddItem(context.Background(), shopper, tt.product, tt.quantity)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, up.calls)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, view)
			assert.Equal(t, tt.wantOps, up.ops())
			assert.Equal(t, 2, up.calls[0].quantity)
		})
	}
}

func TestCartService_UpdateQuantity(t *testing.T) {
	tests := []struct {
		name     string
		product  string
		quantity int
		wantErr  error
		wantOps  []string
	}{
		{name: "ok", product: "2", quantity: 4, wantOps: []string{"get_cart", "update", "get_cart"}},
		{name: "error: unknown product", product: "9", quantity: 4, wantErr: cart.ErrItemNotFound, wantOps: []string{"get_cart"}},
		{name: "error: zero quantity", product: "2", quantity: 0, wantErr: cart.ErrInvalidQuantity, wantOps: []string{"get_cart"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			up := &fakeUpstream{cart: mixedCart()}
			svc := NewCartService(up, cart.DefaultSummaryConfig(), sgd)

			_, err := svc.UpdateQuantity(context.Background(), shopper, tt.product, tt.quantity)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantOps, up.ops())
		})
	}
}

func TestCartService_RemoveItem(t *testing.T) {
	up := &fakeUpstream{cart: mixedCart()}
	svc := NewCartService(up, cart.DefaultSummaryConfig(), sgd)

	_, err := svc.RemoveItem(context.Background(), shopper, "3")
	require.NoError(t, err)
	assert.Equal(t, []string{"get_cart", "remove", "get_cart"}, up.ops())

	up.calls = nil
	_, err = svc.RemoveItem(context.Background(), shopper, "9")
	require.ErrorIs(t, err, cart.ErrItemNotFound)
	assert.Equal(t, []string{"get_cart"}, up.ops())
}

func TestCartService_UpstreamErrorsSurface(t *testing.T) {
	statusErr := &upstream.StatusError{StatusCode: 500, Body: "boom"}
	up := &fakeUpstream{cart: mixedCart(), mutateErr: statusErr}
	svc := NewCartService(up, cart.DefaultSummaryConfig(), sgd)

	_, err := svc.AddItem(context.Background(), shopper, "1", 1)

	var got *upstream.StatusError
	require.True(t, errors.As(err, &got))
	assert.Same(t, statusErr, got)
}

func TestCartService_Count(t *testing.T) {
	up := &fakeUpstream{count: 7}
	svc := NewCartService(up, cart.DefaultSummaryConfig(), sgd)

	count, err := svc.Count(context.Background(), shopper)
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
