package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/money"
	"storefront/internal/store"
	"storefront/internal/util"
)

// HandlePaymentSuccess records the gateway's confirmation. The order itself
// is placed by Complete, which carries the shopper's credentials.
func (s *CheckoutService) HandlePaymentSuccess(ctx context.Context, event *models.PaymentSuccessEvent) error {
	ctx, span := util.StartSpan(ctx, "CheckoutService.HandlePaymentSuccess")
	defer span.End()

	processed, err := s.settlements.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	settlement, err := s.settlements.GetSettlement(ctx, event.SettlementID)
	if errors.Is(err, store.ErrSettlementNotFound) {
		s.logger.Warn("Payment success for unknown settlement", zap.String("settlement_id", event.SettlementID))
		return s.markProcessed(ctx, event.BaseEvent)
	}
	if err != nil {
		return fmt.Errorf("failed to get settlement: %w", err)
	}

	if !amountMatches(settlement.Total, event.Amount) {
		s.logger.Warn("Payment amount differs from settlement total",
			zap.String("settlement_id", settlement.ID),
			zap.Stringer("recorded", money.New(settlement.Total, s.cfg.Currency)),
			zap.Stringer("reported", money.New(event.Amount, s.cfg.Currency).Rounded()))
	}

	changed, err := s.settlements.TransitionSettlement(ctx, settlement.ID,
		models.SettlementStatusPending, models.SettlementStatusPaid, "")
	if err != nil {
		return fmt.Errorf("failed to update settlement status: %w", err)
	}

	s.logger.Info("Payment confirmed",
		zap.String("settlement_id", settlement.ID),
		zap.String("tx_id", event.TxID),
		zap.Bool("status_changed", changed))

	return s.markProcessed(ctx, event.BaseEvent)
}

// HandlePaymentFailed marks the settlement failed. The cart is left as is so
// the shopper can retry.
func (s *CheckoutService) HandlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error {
	ctx, span := util.StartSpan(ctx, "CheckoutService.HandlePaymentFailed")
	defer span.End()

	processed, err := s.settlements.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return fmt.Errorf("failed to check event processed: %w", err)
	}
	if processed {
		s.logger.Info("Event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	settlement, err := s.settlements.GetSettlement(ctx, event.SettlementID)
	if errors.Is(err, store.ErrSettlementNotFound) {
		s.logger.Warn("Payment failure for unknown settlement", zap.String("settlement_id", event.SettlementID))
		return s.markProcessed(ctx, event.BaseEvent)
	}
	if err != nil {
		return fmt.Errorf("failed to get settlement: %w", err)
	}

	s.logger.Warn("Handling payment failure",
		zap.String("settlement_id", settlement.ID),
		zap.String("reason", event.Reason))

	changed, err := s.settlements.TransitionSettlement(ctx, settlement.ID,
		models.SettlementStatusPending, models.SettlementStatusFailed, event.Reason)
	if err != nil {
		return fmt.Errorf("failed to update settlement status: %w", err)
	}

	if changed {
		util.SettlementsFailedTotal.WithLabelValues("payment_failed").Inc()

		failed := &models.SettlementFailedEvent{
			BaseEvent:    models.NewBaseEvent(models.EventTypeSettlementFailed),
			SettlementID: settlement.ID,
			OwnerID:      settlement.OwnerID,
			Reason:       event.Reason,
		}
		if err := s.publisher.PublishSettlementFailed(ctx, failed); err != nil {
			s.logger.Error("Failed to publish SettlementFailed event", zap.Error(err))
		}
	}

	return s.markProcessed(ctx, event.BaseEvent)
}

func (s *CheckoutService) markProcessed(ctx context.Context, event models.BaseEvent) error {
	if err := s.settlements.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		s.logger.Error("Failed to mark event processed", zap.Error(err))
	}
	return nil
}
