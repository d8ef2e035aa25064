// Package checkout turns a cart into a settlement request for the payment
// gateway. It never mutates the cart.
package checkout

import (
	"fmt"
	"strings"

	"storefront/internal/cart"
)

// Availability maps product IDs to whether they can still be bought. Missing
// entries count as unavailable.
type Availability map[string]bool

// SettlementItem is one eligible line handed to the gateway.
type SettlementItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// SettlementRequest is built from a cart snapshot and never persisted as-is.
type SettlementRequest struct {
	EligibleItems        []SettlementItem `json:"eligible_items"`
	ExcludedProductNames []string         `json:"excluded_product_names,omitempty"`
}

// TotalQuantity sums the eligible quantities.
func (r SettlementRequest) TotalQuantity() int {
	var n int
	for _, item := range r.EligibleItems {
		n += item.Quantity
	}
	return n
}

// ExcludedWarning is a non-blocking notice: settlement proceeds without these
// products.
type ExcludedWarning struct {
	ProductNames []string `json:"product_names"`
}

func (w *ExcludedWarning) Message() string {
	return fmt.Sprintf("The following products are no longer available and were removed from checkout: %s",
		strings.Join(w.ProductNames, ", "))
}

// PrepareSettlement partitions the cart into eligible and excluded lines.
//
// With no eligible lines it fails with *NoEligibleItemsError. With both
// eligible and excluded lines it succeeds and also returns a warning naming the
// excluded products. Each excluded name appears once, in cart order.
func PrepareSettlement(c *cart.Aggregate, availability Availability) (SettlementRequest, *ExcludedWarning, error) {
	var (
		eligible []SettlementItem
		excluded []string
		seen     = make(map[string]struct{})
	)

	for _, item := range c.Items() {
		if availability[item.ProductID] {
			eligible = append(eligible, SettlementItem{ProductID: item.ProductID, Quantity: item.Quantity})
			continue
		}

		name := displayName(item)
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		excluded = append(excluded, name)
	}

	if len(eligible) == 0 {
		return SettlementRequest{}, nil, &NoEligibleItemsError{ExcludedNames: excluded}
	}

	req := SettlementRequest{
		EligibleItems:        eligible,
		ExcludedProductNames: excluded,
	}

	if len(excluded) == 0 {
		return req, nil, nil
	}

	warning := &ExcludedWarning{ProductNames: append([]string(nil), excluded...)}
	return req, warning, nil
}

// AvailabilityFromCart reads the availability flags already mirrored on the
// cart lines.
func AvailabilityFromCart(c *cart.Aggregate) Availability {
	availability := make(Availability, c.Len())
	for _, item := range c.Items() {
		availability[item.ProductID] = item.IsAvailable
	}
	return availability
}

// EligibleLines returns the cart lines that made it into req, in cart order.
func EligibleLines(c *cart.Aggregate, req SettlementRequest) []cart.LineItem {
	keep := make(map[string]struct{}, len(req.EligibleItems))
	for _, item := range req.EligibleItems {
		keep[item.ProductID] = struct{}{}
	}

	var lines []cart.LineItem
	for _, item := range c.Items() {
		if _, ok := keep[item.ProductID]; ok {
			lines = append(lines, item)
		}
	}
	return lines
}

func displayName(item cart.LineItem) string {
	if item.ProductName != "" {
		return item.ProductName
	}
	return item.ProductID
}
