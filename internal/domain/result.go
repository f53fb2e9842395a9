package domain

import "time"

// DiagnosticCode — код диагностики в RunResult.
//
// Диагностики — нефатальные сообщения о ходе выполнения job.
// Они не меняют статус job (кроме случаев, когда статус уже
// определён самой причиной диагностики: SKIPPED, Cancelled).
type DiagnosticCode string

const (
	// DiagNoEligibleRunner — ни один доступный runner не покрывает
	// требуемые теги job. Job переходит в SKIPPED.
	DiagNoEligibleRunner DiagnosticCode = "NoEligibleRunner"

	// DiagJobDisabled — job выключен флагом enabled: false.
	DiagJobDisabled DiagnosticCode = "JobDisabled"

	// DiagPreconditionNotMet — не выполнено requires_env precondition.
	DiagPreconditionNotMet DiagnosticCode = "PreconditionNotMet"

	// DiagStepFailure — шаг завершился ненулевым кодом выхода.
	DiagStepFailure DiagnosticCode = "StepExecutionFailure"

	// DiagAfterScriptFailure — шаг after_script завершился с ошибкой.
	// Статус job не меняет: after_script — best-effort.
	DiagAfterScriptFailure DiagnosticCode = "AfterScriptFailure"

	// DiagArtifactMissing — объявленный артефакт не найден после job.
	DiagArtifactMissing DiagnosticCode = "ArtifactMissing"

	// DiagArtifactPublishFailure — артефакт не удалось опубликовать.
	DiagArtifactPublishFailure DiagnosticCode = "ArtifactPublishFailure"

	// DiagCancelled — выполнение прервано внешней отменой.
	DiagCancelled DiagnosticCode = "Cancelled"

	// DiagStageNotReached — stage не начался из-за падения
	// предыдущего stage.
	DiagStageNotReached DiagnosticCode = "StageNotReached"
)

// Diagnostic — одно диагностическое сообщение.
type Diagnostic struct {
	// Code — код диагностики.
	Code DiagnosticCode `json:"code"`

	// Message — человекочитаемое описание.
	Message string `json:"message"`
}

// StepResult — результат выполнения одного шага.
type StepResult struct {
	// Phase — фаза, в которой выполнялся шаг.
	Phase Phase `json:"phase"`

	// Command — команда шага (как в определении).
	Command string `json:"command"`

	// ExitCode — код выхода процесса шага.
	ExitCode int `json:"exit_code"`

	// Stdout — захваченный stdout.
	Stdout string `json:"stdout,omitempty"`

	// Stderr — захваченный stderr.
	Stderr string `json:"stderr,omitempty"`

	// Duration — продолжительность выполнения шага.
	Duration time.Duration `json:"duration"`
}

// RunResult — итог выполнения одного job.
//
// Создаётся Executor'ом (или Scheduler'ом для пропущенных jobs),
// после создания не изменяется. Scheduler использует RunResult
// для гейтинга следующих stages.
type RunResult struct {
	// JobName — имя job.
	JobName string `json:"job_name"`

	// Status — терминальный статус: SUCCESS, FAILED или SKIPPED.
	Status JobStatus `json:"status"`

	// RunnerName — runner, на котором выполнялся job.
	// Пусто для пропущенных jobs.
	RunnerName string `json:"runner_name,omitempty"`

	// ExitCode — код выхода первого упавшего шага,
	// 0 при успехе, -1 если ни один шаг не выполнялся.
	ExitCode int `json:"exit_code"`

	// Steps — результаты выполненных шагов по порядку.
	Steps []StepResult `json:"steps,omitempty"`

	// Artifacts — пути успешно собранных артефактов.
	Artifacts []string `json:"artifacts,omitempty"`

	// Diagnostics — нефатальные диагностики.
	Diagnostics []Diagnostic `json:"diagnostics,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Duration возвращает продолжительность выполнения job.
func (r *RunResult) Duration() time.Duration {
	if r.StartedAt.IsZero() || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// FailedStep возвращает первый шаг с ненулевым кодом выхода
// в фазах before/main или nil, если такого нет.
func (r *RunResult) FailedStep() *StepResult {
	for i := range r.Steps {
		step := &r.Steps[i]
		if step.Phase != PhaseAfter && step.ExitCode != 0 {
			return step
		}
	}
	return nil
}

// HasDiagnostic проверяет наличие диагностики с данным кодом.
func (r *RunResult) HasDiagnostic(code DiagnosticCode) bool {
	for _, d := range r.Diagnostics {
		if d.Code == code {
			return true
		}
	}
	return false
}

// SkippedResult создаёт RunResult для job, пропущенного без выполнения.
func SkippedResult(jobName string, code DiagnosticCode, message string) *RunResult {
	return &RunResult{
		JobName:  jobName,
		Status:   JobStatusSkipped,
		ExitCode: -1,
		Diagnostics: []Diagnostic{
			{Code: code, Message: message},
		},
	}
}
