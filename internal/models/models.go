package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Settlement is one checkout attempt handed to the payment gateway
type Settlement struct {
	ID               string          `db:"id" json:"id"`
	OwnerID          string          `db:"owner_id" json:"owner_id"`
	SessionID        string          `db:"session_id" json:"session_id"`
	CheckoutURL      string          `db:"checkout_url" json:"checkout_url"`
	Status           string          `db:"status" json:"status"`
	Currency         string          `db:"currency" json:"currency"`
	Subtotal         decimal.Decimal `db:"subtotal" json:"subtotal"`
	Total            decimal.Decimal `db:"total" json:"total"`
	ExcludedProducts pq.StringArray  `db:"excluded_products" json:"excluded_products,omitempty"`
	FailureReason    string          `db:"failure_reason" json:"failure_reason,omitempty"`
	CreatedAt        time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at" json:"updated_at"`
}

// SettlementItem is an eligible line sent to the gateway
type SettlementItem struct {
	ID           int64           `db:"id" json:"id"`
	SettlementID string          `db:"settlement_id" json:"settlement_id"`
	ProductID    string          `db:"product_id" json:"product_id"`
	ProductName  string          `db:"product_name" json:"product_name"`
	Quantity     int             `db:"quantity" json:"quantity"`
	UnitPrice    decimal.Decimal `db:"unit_price" json:"unit_price"`
}

// Settlement statuses
const (
	SettlementStatusPending   = "PENDING"
	SettlementStatusPaid      = "PAID"
	SettlementStatusCompleted = "COMPLETED"
	SettlementStatusFailed    = "FAILED"
)

// ProcessedEvent for idempotency
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}
