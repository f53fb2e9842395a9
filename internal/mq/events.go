package mq

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
)

// RunEventPayload — payload событий run.started / run.finished.
type RunEventPayload struct {
	RunID        uuid.UUID             `json:"run_id"`
	PipelineName string                `json:"pipeline_name"`
	Status       domain.PipelineStatus `json:"status"`
}

// JobEventPayload — payload события job.finished.
type JobEventPayload struct {
	RunID    uuid.UUID        `json:"run_id"`
	JobName  string           `json:"job_name"`
	Status   domain.JobStatus `json:"status"`
	ExitCode int              `json:"exit_code"`
}

// EventPublisher транслирует жизненный цикл run в conveyor.events.
// Ошибки публикации только логируются: события не влияют
// на ход выполнения. Удовлетворяет интерфейсу EventSink оркестратора.
type EventPublisher struct {
	publisher *Publisher
	logger    *slog.Logger
}

// NewEventPublisher создаёт EventPublisher.
func NewEventPublisher(conn *Connection, logger *slog.Logger) *EventPublisher {
	return &EventPublisher{
		publisher: NewPublisher(conn, logger),
		logger:    logger,
	}
}

// RunStarted публикует событие начала run.
func (e *EventPublisher) RunStarted(ctx context.Context, run *domain.PipelineRun) {
	e.publish(ctx, MessageTypeRunStarted, RunEventPayload{
		RunID:        run.ID,
		PipelineName: run.PipelineName,
		Status:       run.Status,
	})
}

// JobFinished публикует событие завершения job.
func (e *EventPublisher) JobFinished(ctx context.Context, run *domain.PipelineRun, result *domain.RunResult) {
	e.publish(ctx, MessageTypeJobFinished, JobEventPayload{
		RunID:    run.ID,
		JobName:  result.JobName,
		Status:   result.Status,
		ExitCode: result.ExitCode,
	})
}

// RunFinished публикует событие завершения run.
func (e *EventPublisher) RunFinished(ctx context.Context, run *domain.PipelineRun) {
	e.publish(ctx, MessageTypeRunFinished, RunEventPayload{
		RunID:        run.ID,
		PipelineName: run.PipelineName,
		Status:       run.Status,
	})
}

func (e *EventPublisher) publish(ctx context.Context, msgType MessageType, payload any) {
	if err := e.publisher.PublishEvent(ctx, msgType, payload); err != nil {
		e.logger.Warn("failed to publish event", "type", msgType, "error", err)
	}
}
