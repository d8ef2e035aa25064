package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/currency"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/models"
	"storefront/internal/money"
	"storefront/internal/redisclient"
	"storefront/internal/store"
	"storefront/internal/util"
)

type CheckoutConfig struct {
	Summary       cart.SummaryConfig
	Currency      currency.Unit
	LockTTL       time.Duration
	CompletionTTL time.Duration
}

// CheckoutResult is returned to the cart page after a successful checkout.
type CheckoutResult struct {
	SettlementID     string       `json:"settlement_id"`
	SessionID        string       `json:"session_id"`
	CheckoutURL      string       `json:"checkout_url"`
	ExcludedProducts []string     `json:"excluded_products,omitempty"`
	Warning          string       `json:"warning,omitempty"`
	Summary          cart.Summary `json:"summary"`
	TotalDisplay     string       `json:"total_display"`
}

// SettlementDetail is one settlement with the lines it charged for.
type SettlementDetail struct {
	Settlement   models.Settlement       `json:"settlement"`
	Items        []models.SettlementItem `json:"items"`
	TotalDisplay string                  `json:"total_display"`
}

// CheckoutService turns the shopper's cart into a gateway session and follows
// the settlement until the order is placed upstream.
type CheckoutService struct {
	upstream    CartUpstream
	settler     *checkout.Settler
	locker      Locker
	completions IdempotencyStore
	settlements SettlementStore
	publisher   EventPublisher
	cfg         CheckoutConfig
	logger      *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	upstream CartUpstream,
	gateway checkout.Gateway,
	locker Locker,
	completions IdempotencyStore,
	settlements SettlementStore,
	publisher EventPublisher,
	cfg CheckoutConfig,
) *CheckoutService {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.CompletionTTL <= 0 {
		cfg.CompletionTTL = 24 * time.Hour
	}
	return &CheckoutService{
		upstream:    upstream,
		settler:     checkout.NewSettler(gateway),
		locker:      locker,
		completions: completions,
		settlements: settlements,
		publisher:   publisher,
		cfg:         cfg,
		logger:      util.GetLogger(),
	}
}

// Checkout settles the available part of the cart. The cart is re-read right
// before settling so availability reflects the catalog at that moment; a
// product removed after this point is caught by the gateway, not here.
func (s *CheckoutService) Checkout(ctx context.Context, p Principal) (*CheckoutResult, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Checkout")
	defer span.End()

	release, err := s.lock(ctx, "checkout:"+p.OwnerID)
	if err != nil {
		return nil, err
	}
	defer release()

	remote, err := s.upstream.GetCart(ctx, p.Token)
	if err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	agg, err := mirrorCart(remote)
	if err != nil {
		return nil, err
	}

	settlementID := uuid.NewString()

	start := time.Now()
	result, err := s.settler.Settle(ctx, settlementID, agg, checkout.AvailabilityFromCart(agg))
	if errors.Is(err, checkout.ErrNoEligibleItems) {
		util.SettlementsBlockedTotal.Inc()
		s.logger.Info("Checkout blocked", zap.String("owner_id", p.OwnerID), zap.Error(err))
		return nil, err
	}
	util.GatewayLatency.Observe(time.Since(start).Seconds())
	if err != nil {
		util.SettlementsFailedTotal.WithLabelValues("gateway_error").Inc()
		util.RecordError(span, err)
		return nil, err
	}

	eligible, err := cart.FromLines(checkout.EligibleLines(agg, result.Request))
	if err != nil {
		return nil, err
	}
	summary := eligible.Summarize(s.cfg.Summary)

	settlement, items := s.newSettlement(settlementID, p.OwnerID, result, eligible, summary)
	if err := s.settlements.CreateSettlement(ctx, settlement, items); err != nil {
		s.logger.Error("Gateway session opened but settlement not recorded",
			zap.String("settlement_id", settlementID),
			zap.String("session_id", result.Session.ID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to record settlement: %w", err)
	}

	util.SettlementsPreparedTotal.Inc()
	util.ExcludedItemsTotal.Add(float64(len(result.Request.ExcludedProductNames)))

	s.publishPrepared(ctx, settlement, items)

	total := money.New(summary.Total, s.cfg.Currency)
	s.logger.Info("Settlement prepared",
		zap.String("settlement_id", settlementID),
		zap.String("owner_id", p.OwnerID),
		zap.Int("items", len(items)),
		zap.Int("quantity", result.Request.TotalQuantity()),
		zap.Stringer("total", total),
		zap.Strings("excluded", result.Request.ExcludedProductNames))

	out := &CheckoutResult{
		SettlementID:     settlementID,
		SessionID:        result.Session.ID,
		CheckoutURL:      result.Session.URL,
		ExcludedProducts: result.Request.ExcludedProductNames,
		Summary:          summary,
		TotalDisplay:     total.String(),
	}
	if result.Warning != nil {
		out.Warning = result.Warning.Message()
	}
	return out, nil
}

// Complete places the order upstream once the shopper returns from a paid
// session. Repeating it for a completed settlement is a no-op: the first
// outcome is kept in the idempotency store under the session.
func (s *CheckoutService) Complete(ctx context.Context, p Principal, sessionID string) (*models.Settlement, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Complete")
	defer span.End()

	key := "complete:" + sessionID
	release, err := s.lock(ctx, key)
	if err != nil {
		return nil, err
	}
	defer release()

	var done models.Settlement
	err = s.completions.GetIdempotencyKey(ctx, key, &done)
	switch {
	case err == nil:
		if done.OwnerID != p.OwnerID {
			return nil, ErrSettlementNotFound
		}
		s.logger.Info("Settlement already completed", zap.String("settlement_id", done.ID))
		return &done, nil
	case !errors.Is(err, redisclient.ErrCacheMiss):
		s.logger.Warn("Completion lookup failed", zap.String("session_id", sessionID), zap.Error(err))
	}

	settlement, err := s.settlements.GetSettlementBySessionID(ctx, sessionID)
	if errors.Is(err, store.ErrSettlementNotFound) {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	if settlement.OwnerID != p.OwnerID {
		return nil, ErrSettlementNotFound
	}

	switch settlement.Status {
	case models.SettlementStatusCompleted:
		s.logger.Info("Settlement already completed", zap.String("settlement_id", settlement.ID))
		s.remember(ctx, key, settlement)
		return settlement, nil
	case models.SettlementStatusFailed:
		return nil, fmt.Errorf("%w: %s", ErrSettlementFailed, settlement.FailureReason)
	}

	if err := s.upstream.CompleteOrder(ctx, p.Token); err != nil {
		util.RecordError(span, err)
		return nil, fmt.Errorf("failed to complete order: %w", err)
	}

	changed, err := s.settlements.TransitionSettlement(ctx, settlement.ID,
		settlement.Status, models.SettlementStatusCompleted, "")
	if err != nil {
		return nil, fmt.Errorf("failed to update settlement status: %w", err)
	}
	if !changed {
		return s.settlements.GetSettlement(ctx, settlement.ID)
	}
	settlement.Status = models.SettlementStatusCompleted
	s.remember(ctx, key, settlement)

	util.SettlementsCompletedTotal.Inc()

	event := &models.SettlementCompletedEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypeSettlementCompleted),
		SettlementID: settlement.ID,
		OwnerID:      settlement.OwnerID,
		SessionID:    settlement.SessionID,
	}
	if err := s.publisher.PublishSettlementCompleted(ctx, event); err != nil {
		s.logger.Error("Failed to publish SettlementCompleted event", zap.Error(err))
	}

	s.logger.Info("Settlement completed", zap.String("settlement_id", settlement.ID))
	return settlement, nil
}

// Settlements lists the caller's settlements, newest first
func (s *CheckoutService) Settlements(ctx context.Context, p Principal) ([]models.Settlement, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Settlements")
	defer span.End()

	settlements, err := s.settlements.ListSettlementsByOwner(ctx, p.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	return settlements, nil
}

// Settlement returns one of the caller's settlements with its lines
func (s *CheckoutService) Settlement(ctx context.Context, p Principal, settlementID string) (*SettlementDetail, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.Settlement")
	defer span.End()

	settlement, err := s.settlements.GetSettlement(ctx, settlementID)
	if errors.Is(err, store.ErrSettlementNotFound) {
		return nil, ErrSettlementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	if settlement.OwnerID != p.OwnerID {
		return nil, ErrSettlementNotFound
	}

	items, err := s.settlements.GetSettlementItems(ctx, settlement.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement items: %w", err)
	}

	unit := s.cfg.Currency
	if recorded, err := money.ParseCurrency(settlement.Currency); err == nil {
		unit = recorded
	}

	return &SettlementDetail{
		Settlement:   *settlement,
		Items:        items,
		TotalDisplay: money.New(settlement.Total, unit).String(),
	}, nil
}

func (s *CheckoutService) remember(ctx context.Context, key string, settlement *models.Settlement) {
	if _, err := s.completions.SetIdempotencyKey(ctx, key, settlement, s.cfg.CompletionTTL); err != nil {
		s.logger.Warn("Failed to record completion", zap.String("key", key), zap.Error(err))
	}
}

func (s *CheckoutService) lock(ctx context.Context, key string) (func(), error) {
	token, err := s.locker.AcquireLock(ctx, key, s.cfg.LockTTL)
	if errors.Is(err, redisclient.ErrLockHeld) {
		return nil, ErrCheckoutInProgress
	}
	if err != nil {
		return nil, err
	}

	return func() {
		if err := s.locker.ReleaseLock(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.Warn("Failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, nil
}

func (s *CheckoutService) newSettlement(id, ownerID string, result *checkout.Result, eligible *cart.Aggregate, summary cart.Summary) (*models.Settlement, []models.SettlementItem) {
	settlement := &models.Settlement{
		ID:          id,
		OwnerID:     ownerID,
		SessionID:   result.Session.ID,
		CheckoutURL: result.Session.URL,
		Status:      models.SettlementStatusPending,
		Currency:    s.cfg.Currency.String(),
		Subtotal:    summary.Subtotal,
		Total:       summary.Total,
	}
	if len(result.Request.ExcludedProductNames) > 0 {
		settlement.ExcludedProducts = pq.StringArray(result.Request.ExcludedProductNames)
	}

	lines := eligible.Items()
	items := make([]models.SettlementItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, models.SettlementItem{
			SettlementID: id,
			ProductID:    line.ProductID,
			ProductName:  line.ProductName,
			Quantity:     line.Quantity,
			UnitPrice:    line.UnitPrice,
		})
	}
	return settlement, items
}

func (s *CheckoutService) publishPrepared(ctx context.Context, settlement *models.Settlement, items []models.SettlementItem) {
	data := make([]models.SettlementItemData, 0, len(items))
	for _, item := range items {
		data = append(data, models.SettlementItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := &models.SettlementPreparedEvent{
		BaseEvent:        models.NewBaseEvent(models.EventTypeSettlementPrepared),
		SettlementID:     settlement.ID,
		OwnerID:          settlement.OwnerID,
		SessionID:        settlement.SessionID,
		Total:            settlement.Total,
		Items:            data,
		ExcludedProducts: settlement.ExcludedProducts,
	}
	if err := s.publisher.PublishSettlementPrepared(ctx, event); err != nil {
		s.logger.Error("Failed to publish SettlementPrepared event", zap.Error(err))
	}
}

// amountMatches reports whether a gateway amount equals the recorded total.
// A zero amount means the gateway did not send one.
func amountMatches(recorded, reported decimal.Decimal) bool {
	return reported.IsZero() || recorded.Equal(reported)
}
