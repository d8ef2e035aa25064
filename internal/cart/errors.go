package cart

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidQuantity  = errors.New("quantity must be at least 1")
	ErrInvalidPrice     = errors.New("unit price cannot be negative")
	ErrItemNotFound     = errors.New("item not in cart")
	ErrMissingProductID = errors.New("product id is empty")
)

// ItemError describes a rejected cart operation on a single line.
type ItemError struct {
	Op        string
	ProductID string
	Quantity  int
	Err       error
}

func (e *ItemError) Error() string {
	if errors.Is(e.Err, ErrInvalidQuantity) {
		return fmt.Sprintf("%s %s: %v (got %d)", e.Op, e.ProductID, e.Err, e.Quantity)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ProductID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

func itemError(op, productID string, quantity int, err error) error {
	return &ItemError{Op: op, ProductID: productID, Quantity: quantity, Err: err}
}
