package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"campusmerch/internal/postgres"
	"campusmerch/internal/rabbitmq"
	"campusmerch/models"
	"campusmerch/pkg/logger"
)

// QueueConsumer delivers raw message bodies from a queue.
type QueueConsumer interface {
	ConsumeQueue(ctx context.Context, queueName string, handler func([]byte) error) error
}

// OrderSource loads committed orders.
type OrderSource interface {
	FindOrder(ctx context.Context, orderID int64) (*models.Order, error)
}

// FactSink stores analytics rows.
type FactSink interface {
	InsertOrderFact(ctx context.Context, f models.OrderFact) error
}

// OrderWorker copies submitted orders into the analytics store.
type OrderWorker struct {
	consumer   QueueConsumer
	orders     OrderSource
	facts      FactSink
	queueName  string
	maxRetries int
	retryDelay time.Duration
}

func NewOrderWorker(consumer QueueConsumer, orders OrderSource, facts FactSink, queueName string) *OrderWorker {
	return &OrderWorker{
		consumer:   consumer,
		orders:     orders,
		facts:      facts,
		queueName:  queueName,
		maxRetries: 3,
		retryDelay: 100 * time.Millisecond,
	}
}

func (w *OrderWorker) Start(ctx context.Context) error {
	logger.Log.Info("Starting order worker", zap.String("queue", w.queueName))
	return w.consumer.ConsumeQueue(ctx, w.queueName, w.handleMessage)
}

func (w *OrderWorker) handleMessage(body []byte) error {
	var evt models.OrderEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return rabbitmq.Permanent(fmt.Errorf("failed to unmarshal order event: %w", err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch evt.Event {
	case models.OrderEventCreated:
		return w.syncOrderCreated(ctx, evt)
	default:
		return rabbitmq.Permanent(fmt.Errorf("unknown event type: %s", evt.Event))
	}
}

func (w *OrderWorker) syncOrderCreated(ctx context.Context, evt models.OrderEvent) error {
	order, err := w.loadOrder(ctx, evt.OrderID)
	if err != nil {
		return err
	}

	fact := models.OrderFact{
		OrderID:       order.ID,
		DateKey:       order.CreatedAt.Format("02012006"), // ddMMYYYY
		ShopID:        order.ShopID,
		MerchID:       order.MerchID,
		VariantID:     order.VariantID,
		UserID:        order.UserID.String(),
		Quantity:      order.Quantity,
		Revenue:       order.Price.InexactFloat64(),
		PaymentMethod: order.PaymentMethod(),
		Paid:          order.Status != nil && order.Status.Paid,
	}

	if err := w.facts.InsertOrderFact(ctx, fact); err != nil {
		return fmt.Errorf("failed to insert order fact: %w", err)
	}

	logger.Log.Info("Order fact stored",
		zap.Int64("order_id", fact.OrderID),
		zap.Int64("shop_id", fact.ShopID),
		zap.Float64("revenue", fact.Revenue))
	return nil
}

// loadOrder retries with backoff; the event can arrive before a replica sees
// the commit.
func (w *OrderWorker) loadOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	delay := w.retryDelay
	var lastErr error

	for i := 0; i < w.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		order, err := w.orders.FindOrder(ctx, orderID)
		if err == nil {
			return order, nil
		}
		lastErr = err
		logger.Log.Warn("Order not readable yet, retrying",
			zap.Int64("order_id", orderID),
			zap.Int("attempt", i+1),
			zap.Error(err))
	}

	err := fmt.Errorf("failed to query order %d after %d retries: %w", orderID, w.maxRetries, lastErr)
	if errors.Is(lastErr, postgres.ErrOrderNotFound) {
		// Events are published after commit; a missing order will not appear later.
		return nil, rabbitmq.Permanent(err)
	}
	return nil, err
}
