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
	// ExchangeJobs — назначение jobs агентам и их результаты.
	ExchangeJobs Exchange = "conveyor.jobs"

	// ExchangeEvents — события жизненного цикла runs (fanout).
	ExchangeEvents Exchange = "conveyor.events"

	// ExchangeDLQ — dead letter exchange для необработанных jobs.
	ExchangeDLQ Exchange = "conveyor.dlq"
)

// Queues — имена очередей.
const (
	// QueueJobsReady — jobs, ожидающие выполнения агентами.
	// Общая для всех агентов: агент с неподходящими тегами
	// возвращает сообщение в очередь (nack + requeue).
	QueueJobsReady Queue = "jobs.ready"

	// QueueJobsCompleted — терминальные результаты jobs от агентов.
	QueueJobsCompleted Queue = "jobs.completed"

	// QueueDLQJobs — DLQ для jobs, отвергнутых без requeue.
	QueueDLQJobs Queue = "dlq.jobs"
)

// Routing keys.
const (
	RoutingKeyReady     RoutingKey = "ready"
	RoutingKeyCompleted RoutingKey = "completed"
	RoutingKeyDLQJobs   RoutingKey = "jobs"
)

// SetupTopology объявляет exchanges, queues и bindings Conveyor.
// Идемпотентна: повторный вызов на готовой топологии безвреден.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		if err := declareExchanges(ch); err != nil {
			return err
		}
		if err := declareQueues(ch); err != nil {
			return err
		}
		return bindQueues(ch)
	})
}

// declareExchanges создаёт обменники.
func declareExchanges(ch *amqp.Channel) error {
	exchanges := []struct {
		name Exchange
		kind string
	}{
		{ExchangeJobs, "direct"},
		{ExchangeEvents, "fanout"},
		{ExchangeDLQ, "direct"},
	}

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

// declareQueues создаёт очереди.
func declareQueues(ch *amqp.Channel) error {
	dlqArgs := amqp.Table{
		"x-dead-letter-exchange":    string(ExchangeDLQ),
		"x-dead-letter-routing-key": string(RoutingKeyDLQJobs),
	}

	queues := []struct {
		name Queue
		args amqp.Table
	}{
		// jobs.ready — с DLQ (некорректные сообщения уходят туда)
		{QueueJobsReady, dlqArgs},

		// jobs.completed — без DLQ (события завершения)
		{QueueJobsCompleted, nil},

		// dlq.jobs — сама DLQ очередь
		{QueueDLQJobs, nil},
	}

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

// bindQueues привязывает очереди к обменникам.
// Очереди событий не объявляются здесь: подписчики fanout-обменника
// conveyor.events создают собственные эксклюзивные очереди.
func bindQueues(ch *amqp.Channel) error {
	bindings := []struct {
		queue      Queue
		routingKey RoutingKey
		exchange   Exchange
	}{
		{QueueJobsReady, RoutingKeyReady, ExchangeJobs},
		{QueueJobsCompleted, RoutingKeyCompleted, ExchangeJobs},
		{QueueDLQJobs, RoutingKeyDLQJobs, ExchangeDLQ},
	}

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
