package service

import "errors"

var (
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrSettlementFailed   = errors.New("settlement payment failed")
	ErrProductNotFound    = errors.New("product not found")
)
