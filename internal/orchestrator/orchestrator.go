package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/scheduler"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Recorder сохраняет состояние run во внешнем хранилище.
// Ошибки записи логируются и не влияют на ход выполнения.
type Recorder interface {
	RecordRun(ctx context.Context, run *domain.PipelineRun) error
	RecordResult(ctx context.Context, runID string, result *domain.RunResult) error
}

// EventSink получает события жизненного цикла run (например,
// для публикации в message queue).
type EventSink interface {
	RunStarted(ctx context.Context, run *domain.PipelineRun)
	JobFinished(ctx context.Context, run *domain.PipelineRun, result *domain.RunResult)
	RunFinished(ctx context.Context, run *domain.PipelineRun)
}

// Orchestrator выполняет план pipeline по stages.
//
// Инварианты выполнения:
//   - stages выполняются строго в объявленном порядке
//   - stage N+1 начинается только когда все jobs stage N терминальны
//   - FAILED job не прерывает соседей по stage, но блокирует
//     все последующие stages
//   - SKIPPED jobs на статус pipeline не влияют
type Orchestrator struct {
	dispatcher Dispatcher
	recorder   Recorder
	events     EventSink
	logger     *slog.Logger
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Dispatcher — исполнитель отдельных jobs. Обязателен.
	Dispatcher Dispatcher

	// Recorder — хранилище истории runs. Опционален.
	Recorder Recorder

	// Events — приёмник событий жизненного цикла. Опционален.
	Events EventSink

	// Logger — логгер. По умолчанию slog.Default().
	Logger *slog.Logger
}

// New создаёт Orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		dispatcher: cfg.Dispatcher,
		recorder:   cfg.Recorder,
		events:     cfg.Events,
		logger:     logger,
	}
}

// Run выполняет план и возвращает завершённый PipelineRun.
//
// Ошибка возвращается только для невыполнимого плана; все исходы
// выполнения, включая отмену, закодированы в статусе run.
func (o *Orchestrator) Run(ctx context.Context, plan *scheduler.ExecutionPlan) (*domain.PipelineRun, error) {
	if plan == nil {
		return nil, ErrNilPlan
	}
	if len(plan.Stages) == 0 {
		return nil, ErrEmptyPlan
	}

	run := domain.NewPipelineRun(plan.Pipeline.Name)
	run.MarkRunning()

	logger := o.logger.With("pipeline", plan.Pipeline.Name, "run_id", run.ID)
	logger.Info("run started", "stages", len(plan.Stages))

	o.recordRun(ctx, run, logger)
	if o.events != nil {
		o.events.RunStarted(ctx, run)
	}

	failed := false
	for _, stage := range plan.Stages {
		if ctx.Err() != nil {
			o.skipStage(ctx, run, stage, domain.DiagCancelled,
				"pipeline cancelled before stage started", logger)
			continue
		}
		if failed {
			o.skipStage(ctx, run, stage, domain.DiagStageNotReached,
				fmt.Sprintf("stage %q not reached: earlier stage failed", stage.Stage), logger)
			continue
		}

		if o.runStage(ctx, run, plan.Pipeline, stage, logger) {
			failed = true
		}
	}

	switch {
	case failed:
		run.MarkFailed("")
	case ctx.Err() != nil:
		run.MarkFailed("pipeline cancelled")
	default:
		run.MarkSuccess()
	}

	logger.Info("run finished", "status", run.Status, "duration", run.Duration())
	telemetry.RunsTotal.WithLabelValues(string(run.Status)).Inc()

	o.recordRun(ctx, run, logger)
	if o.events != nil {
		o.events.RunFinished(ctx, run)
	}

	return run, nil
}

// runStage выполняет один stage: пропущенные при планировании jobs
// получают SKIPPED сразу, остальные выполняются параллельно.
// Возвращает true, если хотя бы один job FAILED.
func (o *Orchestrator) runStage(ctx context.Context, run *domain.PipelineRun, pipeline *domain.Pipeline, stage scheduler.StagePlan, logger *slog.Logger) bool {
	logger = logger.With("stage", stage.Stage)
	logger.Info("stage started", "jobs", len(stage.Jobs))
	started := time.Now()

	var eligible []*domain.Job
	for i := range stage.Jobs {
		planned := &stage.Jobs[i]
		if planned.Eligible() {
			eligible = append(eligible, planned.Job)
			continue
		}
		result := domain.SkippedResult(planned.Job.Name, planned.Skip.Code, planned.Skip.Message)
		o.finishJob(ctx, run, result, logger)
	}

	results := make(chan *domain.RunResult, len(eligible))
	var wg sync.WaitGroup
	for _, job := range eligible {
		wg.Add(1)
		go func(job *domain.Job) {
			defer wg.Done()
			results <- o.dispatcher.Dispatch(ctx, pipeline, job)
		}(job)
	}
	wg.Wait()
	close(results)

	stageFailed := false
	for result := range results {
		o.finishJob(ctx, run, result, logger)
		if result.Status.IsFailure() {
			stageFailed = true
		}
	}

	logger.Info("stage finished", "failed", stageFailed, "duration", time.Since(started))
	telemetry.StageDuration.WithLabelValues(stage.Stage).Observe(time.Since(started).Seconds())
	return stageFailed
}

// skipStage помечает все jobs недостигнутого stage как SKIPPED.
func (o *Orchestrator) skipStage(ctx context.Context, run *domain.PipelineRun, stage scheduler.StagePlan, code domain.DiagnosticCode, message string, logger *slog.Logger) {
	logger.Info("stage skipped", "stage", stage.Stage, "reason", code)
	for i := range stage.Jobs {
		result := domain.SkippedResult(stage.Jobs[i].Job.Name, code, message)
		o.finishJob(ctx, run, result, logger)
	}
}

// finishJob записывает результат job в run, хранилище и events.
func (o *Orchestrator) finishJob(ctx context.Context, run *domain.PipelineRun, result *domain.RunResult, logger *slog.Logger) {
	run.AddResult(result)
	telemetry.JobsTotal.WithLabelValues(string(result.Status)).Inc()

	if o.recorder != nil {
		if err := o.recorder.RecordResult(ctx, run.ID.String(), result); err != nil {
			logger.Error("failed to record job result", "job", result.JobName, "error", err)
		}
	}
	if o.events != nil {
		o.events.JobFinished(ctx, run, result)
	}
}

// recordRun сохраняет состояние run; ошибки записи только логируются.
func (o *Orchestrator) recordRun(ctx context.Context, run *domain.PipelineRun, logger *slog.Logger) {
	if o.recorder == nil {
		return
	}
	if err := o.recorder.RecordRun(ctx, run); err != nil {
		logger.Error("failed to record run", "error", err)
	}
}
