package rabbitmq

import (
	"errors"
	"fmt"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"campusmerch/models"
	"campusmerch/pkg/logger"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	body, err := Encode(models.OrderEvent{Event: models.OrderEventCreated, OrderID: 7, ShopID: 3})
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"created","order_id":7,"shop_id":3}`, string(body))

	var evt models.OrderEvent
	require.NoError(t, ParseJSON(body, &evt))
	assert.Equal(t, int64(7), evt.OrderID)
}

func TestEncode_Unsupported(t *testing.T) {
	_, err := Encode(make(chan int))
	assert.Error(t, err)
}

type settlement struct {
	acked   bool
	nacked  bool
	requeue bool
}

type fakeAcknowledger struct {
	got settlement
	err error
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error {
	f.got.acked = true
	return f.err
}

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.got.nacked = true
	f.got.requeue = requeue
	return f.err
}

func (f *fakeAcknowledger) Reject(_ uint64, requeue bool) error {
	return f.Nack(0, false, requeue)
}

func TestHandleDelivery_Settlement(t *testing.T) {
	tests := []struct {
		name       string
		handlerErr error
		want       settlement
	}{
		{"success acks", nil, settlement{acked: true}},
		{"transient failure requeues", errors.New("clickhouse down"), settlement{nacked: true, requeue: true}},
		{"permanent failure drops", Permanent(errors.New("bad json")), settlement{nacked: true}},
		{"wrapped permanent failure drops", fmt.Errorf("order 9: %w", Permanent(errors.New("gone"))), settlement{nacked: true}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack := &fakeAcknowledger{}
			msg := amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: []byte(`{}`)}

			var seen []byte
			handleDelivery("merch.orders", msg, func(body []byte) error {
				seen = body
				return tt.handlerErr
			})

			assert.Equal(t, []byte(`{}`), seen)
			assert.Equal(t, tt.want, ack.got)
		})
	}
}

func TestHandleDelivery_SettleErrorIsLogged(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	prev := logger.Log
	logger.Log = zap.New(core)
	t.Cleanup(func() { logger.Log = prev })

	ack := &fakeAcknowledger{err: amqp.ErrClosed}
	handleDelivery("merch.orders", amqp.Delivery{Acknowledger: ack}, func([]byte) error { return nil })

	assert.True(t, ack.got.acked)
	assert.Equal(t, 1, logs.FilterMessage("Failed to settle message").Len())
}

func TestPermanent(t *testing.T) {
	cause := errors.New("unknown event type: deleted")
	err := Permanent(cause)
	assert.ErrorIs(t, err, ErrPermanent)
	assert.ErrorIs(t, err, cause)
}
