package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
)

// defaultDispatchTimeout ограничивает ожидание результата от агента.
const defaultDispatchTimeout = time.Hour

// RemoteDispatcher выполняет jobs на удалённых агентах через RabbitMQ.
//
// Протокол:
//  1. Dispatch публикует JobAssignment с уникальным ExecutionID
//     в jobs.ready
//  2. Агент с подходящими тегами выполняет job и публикует
//     JobCompletion в jobs.completed; агент с неподходящими
//     тегами возвращает сообщение в очередь
//  3. Dispatcher сопоставляет результат по ExecutionID и будит
//     ожидающий Dispatch
//
// Удовлетворяет интерфейсу Dispatcher оркестратора.
type RemoteDispatcher struct {
	publisher *Publisher
	conn      *Connection
	logger    *slog.Logger
	timeout   time.Duration

	consumer *Consumer

	mu      sync.Mutex
	pending map[uuid.UUID]chan *domain.RunResult
}

// RemoteDispatcherConfig — конфигурация RemoteDispatcher.
type RemoteDispatcherConfig struct {
	// Conn — соединение с RabbitMQ. Обязательно.
	Conn *Connection

	// Timeout — максимальное ожидание результата одного job.
	// По умолчанию один час.
	Timeout time.Duration

	// Logger — логгер. По умолчанию slog.Default().
	Logger *slog.Logger
}

// NewRemoteDispatcher создаёт RemoteDispatcher.
func NewRemoteDispatcher(cfg RemoteDispatcherConfig) *RemoteDispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultDispatchTimeout
	}

	return &RemoteDispatcher{
		publisher: NewPublisher(cfg.Conn, logger),
		conn:      cfg.Conn,
		logger:    logger,
		timeout:   timeout,
		pending:   make(map[uuid.UUID]chan *domain.RunResult),
	}
}

// Start запускает consumer результатов. Должен быть вызван
// до первого Dispatch.
func (d *RemoteDispatcher) Start(ctx context.Context) {
	d.consumer = NewConsumer(d.conn, d.logger, ConsumerConfig{
		Queue:    string(QueueJobsCompleted),
		Handler:  d.handleCompletion,
		Prefetch: 10,
	})

	go func() {
		if err := d.consumer.Start(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("completion consumer stopped", "error", err)
		}
	}()
}

// Stop останавливает consumer результатов.
func (d *RemoteDispatcher) Stop() {
	if d.consumer != nil {
		d.consumer.Stop()
	}
}

// Dispatch публикует job и блокируется до получения результата,
// отмены контекста или таймаута.
func (d *RemoteDispatcher) Dispatch(ctx context.Context, pipeline *domain.Pipeline, job *domain.Job) *domain.RunResult {
	executionID := uuid.New()
	resultCh := make(chan *domain.RunResult, 1)

	d.mu.Lock()
	d.pending[executionID] = resultCh
	d.mu.Unlock()
	defer func() {
		d.mu.Lock()
		delete(d.pending, executionID)
		d.mu.Unlock()
	}()

	assignment := JobAssignment{
		ExecutionID:  executionID,
		PipelineName: pipeline.Name,
		Variables:    pipeline.Variables,
		Job:          *job,
	}

	if err := d.publisher.PublishJobReady(ctx, assignment); err != nil {
		d.logger.Error("failed to publish job", "job", job.Name, "error", err)
		return failedResult(job.Name, domain.DiagStepFailure,
			fmt.Sprintf("dispatch: %v", err))
	}

	d.logger.Info("job dispatched", "job", job.Name, "execution_id", executionID)

	select {
	case result := <-resultCh:
		return result
	case <-ctx.Done():
		return failedResult(job.Name, domain.DiagCancelled,
			"cancelled while waiting for remote result")
	case <-time.After(d.timeout):
		return failedResult(job.Name, domain.DiagStepFailure,
			fmt.Sprintf("no result from agents within %s", d.timeout))
	}
}

// handleCompletion сопоставляет результат с ожидающим Dispatch.
func (d *RemoteDispatcher) handleCompletion(_ context.Context, delivery *Delivery) error {
	completion, err := ParsePayload[JobCompletion](&delivery.Message)
	if err != nil {
		d.logger.Error("malformed completion", "error", err)
		return delivery.Nack(false)
	}

	d.mu.Lock()
	resultCh, ok := d.pending[completion.ExecutionID]
	d.mu.Unlock()

	if !ok {
		// Результат чужого диспетчера или опоздавший после таймаута.
		d.logger.Warn("completion for unknown execution",
			"execution_id", completion.ExecutionID)
		return delivery.Ack()
	}

	select {
	case resultCh <- completion.Result:
	default:
	}

	return delivery.Ack()
}

// failedResult строит терминальный FAILED результат для сбоев
// диспетчеризации.
func failedResult(jobName string, code domain.DiagnosticCode, message string) *domain.RunResult {
	now := time.Now()
	return &domain.RunResult{
		JobName:    jobName,
		Status:     domain.JobStatusFailed,
		ExitCode:   -1,
		StartedAt:  now,
		FinishedAt: now,
		Diagnostics: []domain.Diagnostic{
			{Code: code, Message: message},
		},
	}
}
