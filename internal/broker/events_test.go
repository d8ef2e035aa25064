package broker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
)

type published struct {
	key   string
	event interface{}
}

type fakeProducer struct {
	sent []published
	err  error
}

func (f *fakeProducer) PublishEvent(_ context.Context, key string, event interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, published{key: key, event: event})
	return nil
}

func message(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: raw}
}

func TestEventPublisher_KeysBySettlement(t *testing.T) {
	producer := &fakeProducer{}
	publisher := NewEventPublisher(producer)
	ctx := context.Background()

	require.NoError(t, publisher.PublishSettlementPrepared(ctx, &models.SettlementPreparedEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypeSettlementPrepared),
		SettlementID: "s-1",
	}))
	require.NoError(t, publisher.PublishSettlementCompleted(ctx, &models.SettlementCompletedEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypeSettlementCompleted),
		SettlementID: "s-1",
	}))
	require.NoError(t, publisher.PublishSettlementFailed(ctx, &models.SettlementFailedEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypeSettlementFailed),
		SettlementID: "s-2",
	}))

	require.Len(t, producer.sent, 3)
	assert.Equal(t, "settlement-s-1", producer.sent[0].key)
	assert.Equal(t, "settlement-s-1", producer.sent[1].key)
	assert.Equal(t, "settlement-s-2", producer.sent[2].key)
}

func TestEventPublisher_PropagatesError(t *testing.T) {
	producer := &fakeProducer{err: errors.New("broker down")}

	err := NewEventPublisher(producer).PublishSettlementCompleted(context.Background(), &models.SettlementCompletedEvent{SettlementID: "s"})
	require.EqualError(t, err, "broker down")
}

func TestEventHandler_Routes(t *testing.T) {
	var (
		success *models.PaymentSuccessEvent
		failed  *models.PaymentFailedEvent
	)

	handler := NewEventHandler()
	handler.OnPaymentSuccess(func(_ context.Context, e *models.PaymentSuccessEvent) error {
		success = e
		return nil
	})
	handler.OnPaymentFailed(func(_ context.Context, e *models.PaymentFailedEvent) error {
		failed = e
		return nil
	})

	ctx := context.Background()

	require.NoError(t, handler.HandleMessage(ctx, message(t, models.PaymentSuccessEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypePaymentSuccess),
		SettlementID: "s-1",
		SessionID:    "cs_1",
		Amount:       decimal.RequireFromString("30.88"),
	})))
	require.NotNil(t, success)
	assert.Equal(t, "s-1", success.SettlementID)
	assert.Equal(t, "30.88", success.Amount.String())

	require.NoError(t, handler.HandleMessage(ctx, message(t, models.PaymentFailedEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypePaymentFailed),
		SettlementID: "s-2",
		Reason:       "card declined",
	})))
	require.NotNil(t, failed)
	assert.Equal(t, "card declined", failed.Reason)
}

func TestEventHandler_IgnoresUnknownAndRejectsGarbage(t *testing.T) {
	handler := NewEventHandler()

	require.NoError(t, handler.HandleMessage(context.Background(), message(t, models.NewBaseEvent("SOMETHING_ELSE"))))

	err := handler.HandleMessage(context.Background(), kafka.Message{Value: []byte("{")})
	require.Error(t, err)
}

func TestEventHandler_ReturnsCallbackError(t *testing.T) {
	handler := NewEventHandler()
	handler.OnPaymentFailed(func(context.Context, *models.PaymentFailedEvent) error {
		return errors.New("store down")
	})

	err := handler.HandleMessage(context.Background(), message(t, models.PaymentFailedEvent{
		BaseEvent: models.NewBaseEvent(models.EventTypePaymentFailed),
	}))
	require.EqualError(t, err, "store down")
}
