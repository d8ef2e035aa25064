package service

import (
	"context"
	"time"

	"storefront/internal/catalog"
	"storefront/internal/models"
	"storefront/internal/upstream"
)

// CartUpstream is the slice of the catalog service that owns carts and orders.
type CartUpstream interface {
	GetCart(ctx context.Context, token string) (*upstream.Cart, error)
	AddToCart(ctx context.Context, token, productID string, quantity int) error
	UpdateCartItem(ctx context.Context, token, productID string, quantity int) error
	RemoveFromCart(ctx context.Context, token, productID string) error
	GetCartCount(ctx context.Context, token string) (int, error)
	GetOrderHistory(ctx context.Context, token string) ([]upstream.Order, error)
	CompleteOrder(ctx context.Context, token string) error
}

type ProductSource interface {
	GetProducts(ctx context.Context) ([]upstream.Product, error)
	GetProduct(ctx context.Context, productID string) (*upstream.Product, error)
}

type CatalogCache interface {
	GetCatalog(ctx context.Context) ([]catalog.Product, error)
	SetCatalog(ctx context.Context, products []catalog.Product, ttl time.Duration) error
	InvalidateCatalog(ctx context.Context) error
}

type Locker interface {
	AcquireLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// IdempotencyStore remembers the outcome of an operation under a key.
type IdempotencyStore interface {
	SetIdempotencyKey(ctx context.Context, key string, value interface{}, ttl time.Duration) (bool, error)
	GetIdempotencyKey(ctx context.Context, key string, out interface{}) error
}

type SettlementStore interface {
	CreateSettlement(ctx context.Context, settlement *models.Settlement, items []models.SettlementItem) error
	GetSettlement(ctx context.Context, id string) (*models.Settlement, error)
	GetSettlementBySessionID(ctx context.Context, sessionID string) (*models.Settlement, error)
	GetSettlementItems(ctx context.Context, settlementID string) ([]models.SettlementItem, error)
	ListSettlementsByOwner(ctx context.Context, ownerID string) ([]models.Settlement, error)
	TransitionSettlement(ctx context.Context, id, from, to, reason string) (bool, error)
	IsEventProcessed(ctx context.Context, eventID string) (bool, error)
	MarkEventProcessed(ctx context.Context, eventID, eventType string) error
}

type EventPublisher interface {
	PublishSettlementPrepared(ctx context.Context, event *models.SettlementPreparedEvent) error
	PublishSettlementCompleted(ctx context.Context, event *models.SettlementCompletedEvent) error
	PublishSettlementFailed(ctx context.Context, event *models.SettlementFailedEvent) error
}
