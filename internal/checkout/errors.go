package checkout

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoEligibleItems blocks settlement: nothing in the cart can be bought.
var ErrNoEligibleItems = errors.New("no eligible items to settle")

// NoEligibleItemsError lists every product that was dropped so the shopper can
// be told why checkout is blocked.
type NoEligibleItemsError struct {
	ExcludedNames []string
}

func (e *NoEligibleItemsError) Error() string {
	if len(e.ExcludedNames) == 0 {
		return ErrNoEligibleItems.Error() + ": cart is empty"
	}
	return fmt.Sprintf("%s: unavailable products: %s", ErrNoEligibleItems, strings.Join(e.ExcludedNames, ", "))
}

func (e *NoEligibleItemsError) Is(target error) bool {
	return target == ErrNoEligibleItems
}
