package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeRuns Exchange = "dataflow.runs"
	ExchangeDLQ  Exchange = "dataflow.dlq"
)

// Queues — имена очередей.
const (
	QueueRunsRequested Queue = "runs.requested"
	QueueRunsCompleted Queue = "runs.completed"
	QueueDLQRuns       Queue = "dlq.runs"
)

// Routing keys.
const (
	RoutingKeyRequested RoutingKey = "requested"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyDLQRuns   RoutingKey = "runs"
)

type exchangeDecl struct {
	name Exchange
	kind string
}

type queueDecl struct {
	name Queue
	args amqp.Table
}

type bindingDecl struct {
	queue      Queue
	routingKey RoutingKey
	exchange   Exchange
}

// Topology — объекты RabbitMQ, которые объявляет SetupTopology.
type Topology struct {
	exchanges []exchangeDecl
	queues    []queueDecl
	bindings  []bindingDecl
}

// DefaultTopology возвращает топологию dataflow.
func DefaultTopology() Topology {
	// Некорректные запросы run уходят в DLQ после nack без requeue
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQRuns),
	}

	return Topology{
		exchanges: []exchangeDecl{
			{ExchangeRuns, "direct"},
			{ExchangeDLQ, "direct"},
		},
		queues: []queueDecl{
			{QueueRunsRequested, dlqArgs},
			{QueueRunsCompleted, nil},
			{QueueDLQRuns, nil},
		},
		bindings: []bindingDecl{
			{QueueRunsRequested, RoutingKeyRequested, ExchangeRuns},
			{QueueRunsCompleted, RoutingKeyCompleted, ExchangeRuns},
			{QueueDLQRuns, RoutingKeyDLQRuns, ExchangeDLQ},
		},
	}
}

// Queues возвращает имена очередей топологии.
func (t Topology) Queues() []Queue {
	out := make([]Queue, len(t.queues))
	for i, q := range t.queues {
		out[i] = q.name
	}
	return out
}

// DeadLetter возвращает обменник DLQ очереди q, если он задан.
func (t Topology) DeadLetter(q Queue) (Exchange, bool) {
	for _, decl := range t.queues {
		if decl.name != q || decl.args == nil {
			continue
		}
		ex, ok := decl.args["x-dead-letter-exchange"].(string)
		return Exchange(ex), ok
	}
	return "", false
}

// SetupTopology объявляет обменники, очереди и привязки.
func SetupTopology(ctx context.Context, conn *Connection) error {
	topo := DefaultTopology()
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch, topo.exchanges); err != nil {
			return err
		}
		if err := declareQueues(ch, topo.queues); err != nil {
			return err
		}
		return bindQueues(ch, topo.bindings)
	})
}

func declareExchanges(ch *amqp.Channel, exchanges []exchangeDecl) error {
	for _, ex := range exchanges {
		err := ch.ExchangeDeclare(
			string(ex.name), // name
			ex.kind,         // type
			true,            // durable
			false,           // auto-deleted
			false,           // internal
			false,           // no-wait
			nil,             // arguments
		)
		if err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.name, err)
		}
	}
	return nil
}

func declareQueues(ch *amqp.Channel, queues []queueDecl) error {
	for _, q := range queues {
		_, err := ch.QueueDeclare(
			string(q.name), // name
			true,           // durable
			false,          // delete when unused
			false,          // exclusive
			false,          // no-wait
			q.args,         // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", q.name, err)
		}
	}
	return nil
}

func bindQueues(ch *amqp.Channel, bindings []bindingDecl) error {
	for _, b := range bindings {
		err := ch.QueueBind(
			string(b.queue),      // queue name
			string(b.routingKey), // routing key
			string(b.exchange),   // exchange
			false,                // no-wait
			nil,                  // arguments
		)
		if err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.queue, b.exchange, err)
		}
	}
	return nil
}
