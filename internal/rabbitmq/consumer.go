package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"campusmerch/config"
	"campusmerch/pkg/logger"
)

type Consumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	config  config.RabbitMQConfig
}

func NewConsumer(cfg config.RabbitMQConfig) (*Consumer, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	// Set prefetch count
	if err := channel.Qos(cfg.PrefetchCount, 0, false); err != nil {
		channel.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return &Consumer{
		conn:    conn,
		channel: channel,
		config:  cfg,
	}, nil
}

func (c *Consumer) Close() {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}

// ErrPermanent marks a handler failure that redelivery cannot fix.
var ErrPermanent = errors.New("permanent message failure")

// Permanent wraps err so the consumer drops the message instead of requeueing it.
func Permanent(err error) error {
	return fmt.Errorf("%w: %w", ErrPermanent, err)
}

// ConsumeQueue delivers messages to handler until ctx is done or the channel
// closes.
func (c *Consumer) ConsumeQueue(ctx context.Context, queueName string, handler func([]byte) error) error {
	if err := declareQueue(c.channel, queueName); err != nil {
		return err
	}

	msgs, err := c.channel.ConsumeWithContext(
		ctx,
		queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	logger.Log.Info("Started consuming", zap.String("queue", queueName))

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			handleDelivery(queueName, msg, handler)
		}
	}
}

// handleDelivery runs handler and settles msg. Failures wrapping ErrPermanent
// are dropped; anything else is requeued.
func handleDelivery(queueName string, msg amqp.Delivery, handler func([]byte) error) {
	fields := []zap.Field{zap.String("queue", queueName), zap.Uint64("delivery_tag", msg.DeliveryTag)}

	var settleErr error
	err := handler(msg.Body)
	switch {
	case err == nil:
		settleErr = msg.Ack(false)
	case errors.Is(err, ErrPermanent):
		logger.Log.Error("Dropping unprocessable message", append(fields, zap.Error(err))...)
		settleErr = msg.Nack(false, false)
	default:
		logger.Log.Error("Error processing message, requeueing", append(fields, zap.Error(err))...)
		settleErr = msg.Nack(false, true)
	}
	if settleErr != nil {
		logger.Log.Error("Failed to settle message", append(fields, zap.Error(settleErr))...)
	}
}

// declareQueue is idempotent.
func declareQueue(ch *amqp.Channel, queueName string) error {
	_, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue: %w", err)
	}
	return nil
}

func ParseJSON(data []byte, v interface{}) error {
	return json.Unmarshal(data, v)
}
