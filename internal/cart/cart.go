// Package cart holds the in-memory mirror of a shopper's cart and derives
// order summaries from it.
//
// An Aggregate is owned by a single request or session and is not safe for
// concurrent use.
package cart

import (
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/money"
)

// LineItem is one product entry in a cart with a point-in-time price.
type LineItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Quantity    int             `json:"quantity"`
	// IsAvailable is false once the product was removed upstream.
	IsAvailable bool `json:"is_available"`
	// IsStale marks a line whose price no longer matches the catalog.
	IsStale bool `json:"is_stale"`
}

// Total is the exact, unrounded line amount.
func (li LineItem) Total() decimal.Decimal {
	return money.LineTotal(li.UnitPrice, li.Quantity)
}

// Aggregate is an ordered set of line items keyed by product ID.
type Aggregate struct {
	items []LineItem
	dirty bool
}

// New returns an empty cart.
func New() *Aggregate {
	return &Aggregate{}
}

// FromLines builds a cart from lines in order, merging repeated product IDs.
func FromLines(lines []LineItem) (*Aggregate, error) {
	a := New()
	for _, line := range lines {
		if err := a.AddOrMergeLine(line); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// AddOrMergeItem increments the quantity of an existing line or appends a new
// available line.
func (a *Aggregate) AddOrMergeItem(productID string, unitPrice decimal.Decimal, quantity int) error {
	return a.AddOrMergeLine(LineItem{
		ProductID:   productID,
		UnitPrice:   unitPrice,
		Quantity:    quantity,
		IsAvailable: true,
	})
}

// AddOrMergeLine is AddOrMergeItem for a fully described line. When the
// product is already present the quantities are added and the line keeps its
// original price; availability only ever degrades.
func (a *Aggregate) AddOrMergeLine(line LineItem) error {
	const op = "add"

	if line.ProductID == "" {
		return itemError(op, line.ProductID, line.Quantity, ErrMissingProductID)
	}
	if line.Quantity < 1 {
		return itemError(op, line.ProductID, line.Quantity, ErrInvalidQuantity)
	}
	if line.UnitPrice.IsNegative() {
		return itemError(op, line.ProductID, line.Quantity, ErrInvalidPrice)
	}

	if i := a.index(line.ProductID); i >= 0 {
		existing := &a.items[i]
		existing.Quantity += line.Quantity
		existing.IsAvailable = existing.IsAvailable && line.IsAvailable
		existing.IsStale = existing.IsStale || line.IsStale
		if existing.ProductName == "" {
			existing.ProductName = line.ProductName
		}
	} else {
		a.items = append(a.items, line)
	}

	a.dirty = true
	return nil
}

// SetQuantity replaces the quantity of an existing line.
func (a *Aggregate) SetQuantity(productID string, newQuantity int) error {
	const op = "set quantity"

	i := a.index(productID)
	if i < 0 {
		return itemError(op, productID, newQuantity, ErrItemNotFound)
	}
	if newQuantity < 1 {
		return itemError(op, productID, newQuantity, ErrInvalidQuantity)
	}

	a.items[i].Quantity = newQuantity
	a.dirty = true
	return nil
}

// RemoveItem deletes a line. Callers that treat removal as idempotent can
// ignore ErrItemNotFound.
func (a *Aggregate) RemoveItem(productID string) error {
	i := a.index(productID)
	if i < 0 {
		return itemError("remove", productID, 0, ErrItemNotFound)
	}

	a.items = append(a.items[:i], a.items[i+1:]...)
	a.dirty = true
	return nil
}

// Find returns the line for productID.
func (a *Aggregate) Find(productID string) (LineItem, bool) {
	if i := a.index(productID); i >= 0 {
		return a.items[i], true
	}
	return LineItem{}, false
}

// Items returns a copy of the lines in cart order.
func (a *Aggregate) Items() []LineItem {
	out := make([]LineItem, len(a.items))
	copy(out, a.items)
	return out
}

func (a *Aggregate) Len() int {
	return len(a.items)
}

func (a *Aggregate) IsEmpty() bool {
	return len(a.items) == 0
}

// TotalQuantity is the sum of all line quantities (the header cart badge).
func (a *Aggregate) TotalQuantity() int {
	var n int
	for _, item := range a.items {
		n += item.Quantity
	}
	return n
}

// Dirty reports whether the cart changed since the last Summarize.
func (a *Aggregate) Dirty() bool {
	return a.dirty
}

// Validate checks the aggregate invariants.
func (a *Aggregate) Validate() error {
	seen := make(map[string]struct{}, len(a.items))
	for _, item := range a.items {
		if _, ok := seen[item.ProductID]; ok {
			return fmt.Errorf("duplicate product %s", item.ProductID)
		}
		seen[item.ProductID] = struct{}{}

		if item.Quantity < 1 {
			return itemError("validate", item.ProductID, item.Quantity, ErrInvalidQuantity)
		}
	}
	return nil
}

func (a *Aggregate) index(productID string) int {
	for i := range a.items {
		if a.items[i].ProductID == productID {
			return i
		}
	}
	return -1
}
