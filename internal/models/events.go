package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types
const (
	EventTypeSettlementPrepared  = "SETTLEMENT_PREPARED"
	EventTypeSettlementCompleted = "SETTLEMENT_COMPLETED"
	EventTypeSettlementFailed    = "SETTLEMENT_FAILED"
	EventTypePaymentSuccess      = "PAYMENT_SUCCESS"
	EventTypePaymentFailed       = "PAYMENT_FAILED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// NewBaseEvent stamps a fresh event ID and time.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: time.Now().UTC(),
	}
}

// SettlementPreparedEvent published once the gateway session is open
type SettlementPreparedEvent struct {
	BaseEvent
	SettlementID     string               `json:"settlement_id"`
	OwnerID          string               `json:"owner_id"`
	SessionID        string               `json:"session_id"`
	Total            decimal.Decimal      `json:"total"`
	Items            []SettlementItemData `json:"items"`
	ExcludedProducts []string             `json:"excluded_products,omitempty"`
}

// SettlementCompletedEvent published when the order is placed upstream
type SettlementCompletedEvent struct {
	BaseEvent
	SettlementID string `json:"settlement_id"`
	OwnerID      string `json:"owner_id"`
	SessionID    string `json:"session_id"`
}

// SettlementFailedEvent published when the gateway reports a failed payment
type SettlementFailedEvent struct {
	BaseEvent
	SettlementID string `json:"settlement_id"`
	OwnerID      string `json:"owner_id"`
	Reason       string `json:"reason"`
}

// PaymentSuccessEvent published by the payment gateway
type PaymentSuccessEvent struct {
	BaseEvent
	SettlementID string          `json:"settlement_id"`
	SessionID    string          `json:"session_id"`
	Amount       decimal.Decimal `json:"amount"`
	TxID         string          `json:"tx_id"`
}

// PaymentFailedEvent published by the payment gateway
type PaymentFailedEvent struct {
	BaseEvent
	SettlementID string `json:"settlement_id"`
	SessionID    string `json:"session_id"`
	Reason       string `json:"reason"`
}

// SettlementItemData represents item data in events
type SettlementItemData struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}
