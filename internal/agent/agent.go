package agent

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/executor"
	"github.com/shaiso/Conveyor/internal/mq"
)

const defaultPrefetch = 1

// Agent выполняет jobs на одном runner'е.
//
// Agent — stateless компонент системы, который:
//   - Потребляет назначения из общей очереди jobs.ready
//   - Проверяет, покрывает ли его runner требуемые теги;
//     неподходящие назначения возвращает в очередь
//   - Выполняет job через Executor (before → script → after)
//   - Публикует терминальный результат в jobs.completed
//
// Агенты масштабируются горизонтально: несколько агентов с разными
// наборами тегов потребляют из одной очереди.
type Agent struct {
	runner   domain.Runner
	executor *executor.Executor

	conn      *mq.Connection
	publisher *mq.Publisher
	consumer  *mq.Consumer

	logger     *slog.Logger
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// Config — конфигурация Agent.
type Config struct {
	// Runner — runner агента: имя и набор тегов.
	Runner domain.Runner

	// Executor — исполнитель jobs. Обязателен.
	Executor *executor.Executor

	// Conn — соединение с RabbitMQ. Обязательно.
	Conn *mq.Connection

	// Logger — логгер. По умолчанию slog.Default().
	Logger *slog.Logger
}

// New создаёт новый Agent.
func New(cfg Config) *Agent {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Agent{
		runner:    cfg.Runner,
		executor:  cfg.Executor,
		conn:      cfg.Conn,
		publisher: mq.NewPublisher(cfg.Conn, logger),
		logger:    logger.With("runner", cfg.Runner.Name),
	}
}

// Start запускает потребление назначений.
func (a *Agent) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	a.cancelFunc = cancel

	a.logger.Info("starting agent", "tags", a.runner.Tags)

	a.consumer = mq.NewConsumer(a.conn, a.logger, mq.ConsumerConfig{
		Queue:    string(mq.QueueJobsReady),
		Handler:  a.handleAssignment,
		Prefetch: defaultPrefetch,
	})

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("assignment consumer error", "error", err)
		}
	}()

	a.logger.Info("agent started")
	return nil
}

// Stop останавливает Agent и дожидается текущего job.
func (a *Agent) Stop() {
	a.logger.Info("stopping agent...")

	if a.cancelFunc != nil {
		a.cancelFunc()
	}
	if a.consumer != nil {
		a.consumer.Stop()
	}

	a.wg.Wait()

	a.logger.Info("agent stopped")
}

// handleAssignment обрабатывает одно назначение из jobs.ready.
func (a *Agent) handleAssignment(ctx context.Context, delivery *mq.Delivery) error {
	assignment, err := mq.ParsePayload[mq.JobAssignment](&delivery.Message)
	if err != nil {
		a.logger.Error("malformed assignment", "error", err)
		return delivery.Nack(false)
	}

	// Назначение для агента с другими тегами — возвращаем в очередь.
	if !a.runner.Satisfies(assignment.Job.Tags) {
		a.logger.Debug("assignment requires other tags",
			"job", assignment.Job.Name,
			"required", assignment.Job.Tags,
		)
		return delivery.Nack(true)
	}

	a.logger.Info("job accepted",
		"job", assignment.Job.Name,
		"execution_id", assignment.ExecutionID,
	)

	pipeline := &domain.Pipeline{
		Name:      assignment.PipelineName,
		Variables: assignment.Variables,
	}
	result := a.executor.Execute(ctx, pipeline, &assignment.Job, &a.runner)

	completion := mq.JobCompletion{
		ExecutionID: assignment.ExecutionID,
		AgentName:   a.runner.Name,
		Result:      result,
	}
	if err := a.publisher.PublishJobCompleted(ctx, completion); err != nil {
		a.logger.Error("failed to publish completion",
			"job", assignment.Job.Name,
			"error", err,
		)
		// Результат потерян — возвращаем назначение на повтор.
		return delivery.Nack(true)
	}

	a.logger.Info("job completed",
		"job", assignment.Job.Name,
		"status", result.Status,
		"exit_code", result.ExitCode,
	)

	return delivery.Ack()
}
