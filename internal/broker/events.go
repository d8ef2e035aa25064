package broker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"storefront/internal/models"
	"storefront/internal/util"
)

type eventProducer interface {
	PublishEvent(ctx context.Context, key string, event interface{}) error
}

// EventPublisher handles publishing settlement events
type EventPublisher struct {
	producer eventProducer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer eventProducer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

func settlementKey(settlementID string) string {
	return "settlement-" + settlementID
}

// PublishSettlementPrepared publishes SettlementPrepared event
func (ep *EventPublisher) PublishSettlementPrepared(ctx context.Context, event *models.SettlementPreparedEvent) error {
	return ep.producer.PublishEvent(ctx, settlementKey(event.SettlementID), event)
}

// PublishSettlementCompleted publishes SettlementCompleted event
func (ep *EventPublisher) PublishSettlementCompleted(ctx context.Context, event *models.SettlementCompletedEvent) error {
	return ep.producer.PublishEvent(ctx, settlementKey(event.SettlementID), event)
}

// PublishSettlementFailed publishes SettlementFailed event
func (ep *EventPublisher) PublishSettlementFailed(ctx context.Context, event *models.SettlementFailedEvent) error {
	return ep.producer.PublishEvent(ctx, settlementKey(event.SettlementID), event)
}

// EventHandler routes gateway events to registered callbacks
type EventHandler struct {
	onPaymentSuccess func(context.Context, *models.PaymentSuccessEvent) error
	onPaymentFailed  func(context.Context, *models.PaymentFailedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnPaymentSuccess registers a handler for PaymentSuccess events
func (eh *EventHandler) OnPaymentSuccess(handler func(context.Context, *models.PaymentSuccessEvent) error) {
	eh.onPaymentSuccess = handler
}

// OnPaymentFailed registers a handler for PaymentFailed events
func (eh *EventHandler) OnPaymentFailed(handler func(context.Context, *models.PaymentFailedEvent) error) {
	eh.onPaymentFailed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	logger := util.GetLogger()

	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	logger.Debug("Handling event",
		zap.String("event_type", baseEvent.EventType),
		zap.String("event_id", baseEvent.EventID),
	)

	switch baseEvent.EventType {
	case models.EventTypePaymentSuccess:
		if eh.onPaymentSuccess != nil {
			var event models.PaymentSuccessEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentSuccess event: %w", err)
			}
			return eh.onPaymentSuccess(ctx, &event)
		}

	case models.EventTypePaymentFailed:
		if eh.onPaymentFailed != nil {
			var event models.PaymentFailedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal PaymentFailed event: %w", err)
			}
			return eh.onPaymentFailed(ctx, &event)
		}

	default:
		logger.Debug("Unhandled event type", zap.String("event_type", baseEvent.EventType))
	}

	return nil
}
