package executor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Executor выполняет один job на назначенном runner'е.
//
// Фазы строго по порядку:
//
//	before_script → script → after_script
//
// Первый ненулевой код выхода в before обрывает фазу и отменяет
// основной script; первый ненулевой в script обрывает остаток script.
// after_script выполняется всегда (кроме внешней отмены), его ошибки —
// только диагностики. Артефакты собираются после успешного завершения.
type Executor struct {
	commands  CommandRunner
	publisher artifact.Publisher
	logger    *slog.Logger
}

// Config — конфигурация Executor.
type Config struct {
	// Commands — исполнитель команд. По умолчанию ShellRunner
	// в текущем каталоге.
	Commands CommandRunner

	// Publisher — хранилище артефактов. nil — артефакты
	// не собираются (объявленные пути дают диагностику).
	Publisher artifact.Publisher

	// Logger — логгер. По умолчанию slog.Default().
	Logger *slog.Logger
}

// New создаёт Executor.
func New(cfg Config) *Executor {
	commands := cfg.Commands
	if commands == nil {
		commands = NewShellRunner("")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Executor{
		commands:  commands,
		publisher: cfg.Publisher,
		logger:    logger,
	}
}

// Execute выполняет job и возвращает его RunResult.
//
// Все исходы закодированы в RunResult: инфраструктурные сбои и отмена
// дают статус FAILED с диагностикой, ошибок наружу Execute не отдаёт.
func (e *Executor) Execute(ctx context.Context, pipeline *domain.Pipeline, job *domain.Job, runner *domain.Runner) *domain.RunResult {
	logger := e.logger.With("job", job.Name, "runner", runner.Name)

	result := &domain.RunResult{
		JobName:    job.Name,
		RunnerName: runner.Name,
		StartedAt:  time.Now(),
	}

	env := job.Env(pipeline.Variables)

	logger.Info("job started", "stage", job.Stage)

	beforeOK := e.runPhase(ctx, result, domain.PhaseBefore, job.BeforeScript, env, logger)

	mainOK := false
	if beforeOK {
		mainOK = e.runPhase(ctx, result, domain.PhaseMain, job.Script, env, logger)
	} else {
		logger.Warn("before_script failed, skipping main script")
	}

	// after_script — best-effort: выполняется и после падения,
	// но не после внешней отмены.
	if ctx.Err() == nil {
		e.runAfterPhase(ctx, result, job.AfterScript, env, logger)
	}

	if beforeOK && mainOK {
		result.Status = domain.JobStatusSuccess
		result.ExitCode = 0
		e.collectArtifacts(ctx, result, job, logger)
	} else {
		result.Status = domain.JobStatusFailed
		if failed := result.FailedStep(); failed != nil {
			result.ExitCode = failed.ExitCode
		} else {
			result.ExitCode = -1
		}
	}

	result.FinishedAt = time.Now()
	logger.Info("job finished",
		"status", result.Status,
		"exit_code", result.ExitCode,
		"duration", result.Duration(),
	)

	return result
}

// runPhase выполняет шаги фаз before/main. Возвращает false при первом
// ненулевом коде выхода или инфраструктурном сбое; остальные шаги фазы
// не выполняются.
func (e *Executor) runPhase(ctx context.Context, result *domain.RunResult, phase domain.Phase, steps []string, env map[string]string, logger *slog.Logger) bool {
	for _, command := range steps {
		step, err := e.runStep(ctx, result, phase, command, env)
		if err != nil {
			e.recordStepError(result, phase, command, err, logger)
			return false
		}
		if step.ExitCode != 0 {
			result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
				Code:    domain.DiagStepFailure,
				Message: fmt.Sprintf("%s step %q exited with code %d", phase, command, step.ExitCode),
			})
			logger.Warn("step failed", "phase", phase, "command", command, "exit_code", step.ExitCode)
			return false
		}
	}
	return true
}

// runAfterPhase выполняет after_script. Ошибки шагов не прерывают фазу
// и записываются как диагностики AfterScriptFailure.
func (e *Executor) runAfterPhase(ctx context.Context, result *domain.RunResult, steps []string, env map[string]string, logger *slog.Logger) {
	for _, command := range steps {
		step, err := e.runStep(ctx, result, domain.PhaseAfter, command, env)
		if err != nil {
			e.recordStepError(result, domain.PhaseAfter, command, err, logger)
			continue
		}
		if step.ExitCode != 0 {
			result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
				Code:    domain.DiagAfterScriptFailure,
				Message: fmt.Sprintf("after step %q exited with code %d", command, step.ExitCode),
			})
			logger.Warn("after_script step failed", "command", command, "exit_code", step.ExitCode)
		}
	}
}

// runStep выполняет одну команду и записывает её StepResult.
func (e *Executor) runStep(ctx context.Context, result *domain.RunResult, phase domain.Phase, command string, env map[string]string) (*domain.StepResult, error) {
	started := time.Now()
	out, err := e.commands.Run(ctx, command, env)

	step := domain.StepResult{
		Phase:    phase,
		Command:  command,
		Duration: time.Since(started),
	}
	if out != nil {
		step.ExitCode = out.ExitCode
		step.Stdout = out.Stdout
		step.Stderr = out.Stderr
	}
	if err != nil {
		step.ExitCode = -1
	}

	result.Steps = append(result.Steps, step)
	telemetry.StepsTotal.WithLabelValues(string(phase)).Inc()
	if err != nil {
		return nil, err
	}
	return &result.Steps[len(result.Steps)-1], nil
}

// recordStepError записывает диагностику инфраструктурного сбоя шага.
func (e *Executor) recordStepError(result *domain.RunResult, phase domain.Phase, command string, err error, logger *slog.Logger) {
	code := domain.DiagStepFailure
	if errors.Is(err, ErrCancelled) {
		code = domain.DiagCancelled
	} else if phase == domain.PhaseAfter {
		code = domain.DiagAfterScriptFailure
	}

	result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
		Code:    code,
		Message: fmt.Sprintf("%s step %q: %v", phase, command, err),
	})
	logger.Warn("step error", "phase", phase, "command", command, "error", err)
}

// collectArtifacts публикует объявленные артефакты успешного job.
// Отсутствующие пути и ошибки публикации — только диагностики.
func (e *Executor) collectArtifacts(ctx context.Context, result *domain.RunResult, job *domain.Job, logger *slog.Logger) {
	if len(job.Artifacts) == 0 {
		return
	}

	if e.publisher == nil {
		result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
			Code:    domain.DiagArtifactPublishFailure,
			Message: "no artifact publisher configured",
		})
		return
	}

	for _, path := range job.Artifacts {
		stored, err := e.publisher.Publish(ctx, job.Name, path)
		if err == nil {
			result.Artifacts = append(result.Artifacts, stored)
			telemetry.ArtifactsPublished.Inc()
			logger.Info("artifact published", "path", path, "stored", stored)
			continue
		}

		code := domain.DiagArtifactPublishFailure
		if errors.Is(err, artifact.ErrNotFound) {
			code = domain.DiagArtifactMissing
		}
		result.Diagnostics = append(result.Diagnostics, domain.Diagnostic{
			Code:    code,
			Message: fmt.Sprintf("artifact %s: %v", path, err),
		})
		logger.Warn("artifact not published", "path", path, "error", err)
	}
}
