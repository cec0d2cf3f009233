package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/dataflow/internal/domain"
)

func TestNewMessage_RoundTrip(t *testing.T) {
	msg, err := NewMessage(MessageTypeRunRequested, RunRequestedPayload{
		RunID: "r1",
		Nodes: []domain.Node{{ID: "n1", Kind: "read_data"}},
		Edges: []domain.Edge{},
	})
	require.NoError(t, err)
	assert.Len(t, msg.ID, 36)

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded Message
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, MessageTypeRunRequested, decoded.Type)

	payload, err := ParsePayload[RunRequestedPayload](&decoded)
	require.NoError(t, err)
	assert.Equal(t, "r1", payload.RunID)
	require.Len(t, payload.Nodes, 1)
	assert.Equal(t, "read_data", payload.Nodes[0].Kind)
}

func TestParsePayload_Malformed(t *testing.T) {
	_, err := ParsePayload[RunRequestedPayload](&Message{})
	assert.ErrorIs(t, err, ErrMalformedMessage)

	_, err = ParsePayload[RunRequestedPayload](&Message{Payload: json.RawMessage(`{"nodes": 5}`)})
	assert.ErrorIs(t, err, ErrMalformedMessage)
}

func TestDecision(t *testing.T) {
	tests := []struct {
		name         string
		err          error
		ack, requeue bool
	}{
		{"ok", nil, true, false},
		{"malformed", fmt.Errorf("run: %w", ErrMalformedMessage), false, false},
		{"transient", errors.New("publish failed"), false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack, requeue := Decision(tt.err)
			assert.Equal(t, tt.ack, ack)
			assert.Equal(t, tt.requeue, requeue)
		})
	}
}

func TestConsumer_HandleBadEnvelope(t *testing.T) {
	called := false
	c := NewConsumer(nil, slog.New(slog.NewTextHandler(io.Discard, nil)), ConsumerConfig{
		Queue: string(QueueRunsRequested),
		Handler: func(context.Context, *Delivery) error {
			called = true
			return nil
		},
	})

	err := c.handle(context.Background(), amqp.Delivery{Body: []byte("not json")})
	assert.ErrorIs(t, err, ErrMalformedMessage)
	assert.False(t, called)

	err = c.handle(context.Background(), amqp.Delivery{Body: []byte(`{"id":"m1","type":"run.requested","payload":{}}`)})
	assert.NoError(t, err)
	assert.True(t, called)
}

func TestDefaultTopology(t *testing.T) {
	topo := DefaultTopology()

	assert.Equal(t, []Queue{QueueRunsRequested, QueueRunsCompleted, QueueDLQRuns}, topo.Queues())

	ex, ok := topo.DeadLetter(QueueRunsRequested)
	assert.True(t, ok)
	assert.Equal(t, ExchangeDLQ, ex)

	_, ok = topo.DeadLetter(QueueRunsCompleted)
	assert.False(t, ok)

	for _, b := range topo.bindings {
		assert.Contains(t, []Exchange{ExchangeRuns, ExchangeDLQ}, b.exchange)
	}
}
