package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"storefront/internal/models"
)

// ErrSettlementNotFound is returned when no settlement matches.
var ErrSettlementNotFound = errors.New("settlement not found")

// CreateSettlement inserts the settlement and its items in one transaction
func (s *Store) CreateSettlement(ctx context.Context, settlement *models.Settlement, items []models.SettlementItem) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO settlements (id, owner_id, session_id, checkout_url, status, currency, subtotal, total, excluded_products, failure_reason)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err = tx.QueryRowxContext(ctx, query,
		settlement.ID, settlement.OwnerID, settlement.SessionID, settlement.CheckoutURL, settlement.Status,
		settlement.Currency, settlement.Subtotal, settlement.Total, settlement.ExcludedProducts, settlement.FailureReason,
	).Scan(&settlement.CreatedAt, &settlement.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	for i := range items {
		items[i].SettlementID = settlement.ID
		err = tx.GetContext(ctx, &items[i].ID, `
			INSERT INTO settlement_items (settlement_id, product_id, product_name, quantity, unit_price)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id`,
			items[i].SettlementID, items[i].ProductID, items[i].ProductName, items[i].Quantity, items[i].UnitPrice)
		if err != nil {
			return fmt.Errorf("failed to insert settlement item %s: %w", items[i].ProductID, err)
		}
	}

	return tx.Commit()
}

// GetSettlement retrieves a settlement by ID
func (s *Store) GetSettlement(ctx context.Context, id string) (*models.Settlement, error) {
	var settlement models.Settlement
	err := s.db.GetContext(ctx, &settlement, "SELECT * FROM settlements WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// GetSettlementBySessionID retrieves a settlement by gateway session ID
func (s *Store) GetSettlementBySessionID(ctx context.Context, sessionID string) (*models.Settlement, error) {
	var settlement models.Settlement
	err := s.db.GetContext(ctx, &settlement, "SELECT * FROM settlements WHERE session_id = $1", sessionID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, err
	}
	return &settlement, nil
}

// GetSettlementItems retrieves all items of a settlement
func (s *Store) GetSettlementItems(ctx context.Context, settlementID string) ([]models.SettlementItem, error) {
	var items []models.SettlementItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM settlement_items WHERE settlement_id = $1 ORDER BY id", settlementID)
	return items, err
}

// ListSettlementsByOwner retrieves an owner's settlements, newest first
func (s *Store) ListSettlementsByOwner(ctx context.Context, ownerID string) ([]models.Settlement, error) {
	var settlements []models.Settlement
	err := s.db.SelectContext(ctx, &settlements,
		"SELECT * FROM settlements WHERE owner_id = $1 ORDER BY created_at DESC", ownerID)
	return settlements, err
}

// TransitionSettlement moves a settlement from one status to another. It
// reports false when the settlement was not in the expected status.
func (s *Store) TransitionSettlement(ctx context.Context, id, from, to, reason string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE settlements SET status = $1, failure_reason = $2, updated_at = NOW() WHERE id = $3 AND status = $4",
		to, reason, id, from)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// IsEventProcessed checks if an event has been processed
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an event as processed
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
