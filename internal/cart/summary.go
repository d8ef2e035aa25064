package cart

import (
	"github.com/shopspring/decimal"

	"storefront/internal/money"
)

// SummaryConfig selects between the taxed storefront (delivery fee plus GST on
// subtotal and delivery) and the plain one (subtotal only).
type SummaryConfig struct {
	TaxMode     bool
	DeliveryFee decimal.Decimal
	TaxRate     decimal.Decimal
}

// DefaultSummaryConfig is a flat S$5.00 delivery fee with 9% GST.
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		TaxMode:     true,
		DeliveryFee: decimal.NewFromInt(5),
		TaxRate:     decimal.New(9, -2),
	}
}

// Summary is derived from a cart snapshot and never stored.
type Summary struct {
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"delivery_fee"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	Tax         decimal.Decimal `json:"tax"`
	Total       decimal.Decimal `json:"total"`
}

// Summarize computes the order summary over every line, available or not.
// All arithmetic is exact; each amount is rounded half-up only at the end.
// An empty cart has nothing to deliver, so it carries no fee or tax.
func (a *Aggregate) Summarize(cfg SummaryConfig) Summary {
	lines := make([]decimal.Decimal, 0, len(a.items))
	for _, item := range a.items {
		lines = append(lines, item.Total())
	}
	subtotal := money.Sum(lines...)

	deliveryFee, taxRate, tax := decimal.Zero, decimal.Zero, decimal.Zero
	if cfg.TaxMode && !a.IsEmpty() {
		deliveryFee = cfg.DeliveryFee
		taxRate = cfg.TaxRate
		tax = subtotal.Add(deliveryFee).Mul(taxRate)
	}
	total := money.Sum(subtotal, deliveryFee, tax)

	a.dirty = false

	return Summary{
		Subtotal:    money.RoundHalfUp(subtotal),
		DeliveryFee: money.RoundHalfUp(deliveryFee),
		TaxRate:     taxRate,
		Tax:         money.RoundHalfUp(tax),
		Total:       money.RoundHalfUp(total),
	}
}
