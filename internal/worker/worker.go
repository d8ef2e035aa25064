package worker

import (
	"context"

	"go.uber.org/zap"

	"storefront/internal/broker"
	"storefront/internal/models"
	"storefront/internal/util"
)

// Consumer is the message source a worker drains
type Consumer interface {
	StartConsuming(ctx context.Context, handler broker.MessageHandler) error
	Close() error
}

// PaymentHandler reacts to gateway payment outcomes
type PaymentHandler interface {
	HandlePaymentSuccess(ctx context.Context, event *models.PaymentSuccessEvent) error
	HandlePaymentFailed(ctx context.Context, event *models.PaymentFailedEvent) error
}

// PaymentWorker applies gateway payment events to settlements
type PaymentWorker struct {
	consumer     Consumer
	eventHandler *broker.EventHandler
	logger       *zap.Logger
}

// NewPaymentWorker creates a new payment worker
func NewPaymentWorker(consumer Consumer, handler PaymentHandler) *PaymentWorker {
	eventHandler := broker.NewEventHandler()

	eventHandler.OnPaymentSuccess(handler.HandlePaymentSuccess)
	eventHandler.OnPaymentFailed(handler.HandlePaymentFailed)

	return &PaymentWorker{
		consumer:     consumer,
		eventHandler: eventHandler,
		logger:       util.GetLogger(),
	}
}

// Start blocks until ctx is cancelled or the consumer fails
func (w *PaymentWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting payment worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *PaymentWorker) Stop() error {
	w.logger.Info("Stopping payment worker")
	return w.consumer.Close()
}
