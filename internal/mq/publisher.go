package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/Conveyor/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeJobReady     MessageType = "job.ready"
	MessageTypeJobCompleted MessageType = "job.completed"
	MessageTypeRunStarted   MessageType = "run.started"
	MessageTypeRunFinished  MessageType = "run.finished"
	MessageTypeJobFinished  MessageType = "job.finished"
)

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// JobAssignment — payload назначения job агенту.
//
// Несёт всё необходимое для автономного выполнения: определение job
// и переменные pipeline. Агент с runner'ом, не покрывающим Job.Tags,
// обязан вернуть сообщение в очередь (nack + requeue).
type JobAssignment struct {
	// ExecutionID — идентификатор назначения, по нему
	// диспетчер сопоставляет результат.
	ExecutionID uuid.UUID `json:"execution_id"`

	// RunID — идентификатор run, в рамках которого выполняется job.
	RunID uuid.UUID `json:"run_id"`

	// PipelineName — имя pipeline.
	PipelineName string `json:"pipeline_name"`

	// Variables — переменные уровня pipeline.
	Variables map[string]string `json:"variables,omitempty"`

	// Job — определение job.
	Job domain.Job `json:"job"`
}

// JobCompletion — payload терминального результата job от агента.
type JobCompletion struct {
	// ExecutionID — идентификатор назначения из JobAssignment.
	ExecutionID uuid.UUID `json:"execution_id"`

	// AgentName — имя агента, выполнившего job.
	AgentName string `json:"agent_name"`

	// Result — терминальный результат job.
	Result *domain.RunResult `json:"result"`
}

// Publisher публикует сообщения в RabbitMQ.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishJobReady публикует назначение job.
// Потребитель: агенты.
func (p *Publisher) PublishJobReady(ctx context.Context, assignment JobAssignment) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeJobReady,
		Payload:   assignment,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeJobs, RoutingKeyReady, msg)
}

// PublishJobCompleted публикует терминальный результат job.
// Потребитель: оркестратор (RemoteDispatcher).
func (p *Publisher) PublishJobCompleted(ctx context.Context, completion JobCompletion) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeJobCompleted,
		Payload:   completion,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeJobs, RoutingKeyCompleted, msg)
}

// PublishEvent публикует событие жизненного цикла в fanout-обменник.
func (p *Publisher) PublishEvent(ctx context.Context, msgType MessageType, payload any) error {
	msg := &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, "", msg)
}
