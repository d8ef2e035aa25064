package worker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"storefront/internal/broker"
	"storefront/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type chanConsumer struct {
	messages chan kafka.Message
	mu       sync.Mutex
	errs     []error
	closed   bool
}

func (c *chanConsumer) StartConsuming(ctx context.Context, handler broker.MessageHandler) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-c.messages:
			err := handler(ctx, msg)
			c.mu.Lock()
			c.errs = append(c.errs, err)
			c.mu.Unlock()
		}
	}
}

func (c *chanConsumer) Close() error {
	c.closed = true
	return nil
}

type recordingHandler struct {
	mu      sync.Mutex
	success []string
	failed  []string
	done    chan struct{}
}

func (h *recordingHandler) HandlePaymentSuccess(_ context.Context, e *models.PaymentSuccessEvent) error {
	h.mu.Lock()
	h.success = append(h.success, e.SettlementID)
	h.mu.Unlock()
	h.done <- struct{}{}
	return nil
}

func (h *recordingHandler) HandlePaymentFailed(_ context.Context, e *models.PaymentFailedEvent) error {
	h.mu.Lock()
	h.failed = append(h.failed, e.SettlementID)
	h.mu.Unlock()
	h.done <- struct{}{}
	return errors.New("store down")
}

func encode(t *testing.T, event interface{}) kafka.Message {
	t.Helper()
	raw, err := json.Marshal(event)
	require.NoError(t, err)
	return kafka.Message{Value: raw}
}

func TestPaymentWorker_RoutesEvents(t *testing.T) {
	consumer := &chanConsumer{messages: make(chan kafka.Message, 2)}
	handler := &recordingHandler{done: make(chan struct{}, 2)}
	w := NewPaymentWorker(consumer, handler)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- w.Start(ctx) }()

	consumer.messages <- encode(t, models.PaymentSuccessEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypePaymentSuccess),
		SettlementID: "s-1",
	})
	consumer.messages <- encode(t, models.PaymentFailedEvent{
		BaseEvent:    models.NewBaseEvent(models.EventTypePaymentFailed),
		SettlementID: "s-2",
	})

	for i := 0; i < 2; i++ {
		select {
		case <-handler.done:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for events")
		}
	}

	cancel()
	require.ErrorIs(t, <-errCh, context.Canceled)
	require.NoError(t, w.Stop())

	assert.Equal(t, []string{"s-1"}, handler.success)
	assert.Equal(t, []string{"s-2"}, handler.failed)
	assert.True(t, consumer.closed)

	consumer.mu.Lock()
	defer consumer.mu.Unlock()
	require.Len(t, consumer.errs, 2)
	assert.NoError(t, consumer.errs[0])
	assert.EqualError(t, consumer.errs[1], "store down")
}
