package domain

// JobStatus — статус выполнения job.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCESS
//	                  ↘ FAILED
//	PENDING → SKIPPED (нет подходящего runner'а, job выключен
//	                   или не выполнено precondition)
type JobStatus string

const (
	// JobStatusPending — job создан, но ещё не начал выполняться.
	JobStatusPending JobStatus = "PENDING"

	// JobStatusRunning — job в процессе выполнения (любая из фаз).
	JobStatusRunning JobStatus = "RUNNING"

	// JobStatusSuccess — job успешно завершён.
	JobStatusSuccess JobStatus = "SUCCESS"

	// JobStatusFailed — job завершился с ошибкой.
	JobStatusFailed JobStatus = "FAILED"

	// JobStatusSkipped — job пропущен без выполнения.
	// Skipped — терминальный статус, но не ошибка:
	// пропущенные jobs не роняют pipeline.
	JobStatusSkipped JobStatus = "SKIPPED"
)

// IsTerminal возвращает true, если статус финальный (job завершён).
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSuccess, JobStatusFailed, JobStatusSkipped:
		return true
	default:
		return false
	}
}

// IsFailure возвращает true, если статус означает неудачу.
// Skipped неудачей не считается.
func (s JobStatus) IsFailure() bool {
	return s == JobStatusFailed
}

// Phase — фаза выполнения job.
//
// Каждый job проходит фазы строго по порядку:
// before → main → after. Фаза after выполняется всегда,
// даже если before или main упали.
type Phase string

const (
	// PhaseBefore — before_script, подготовка окружения.
	PhaseBefore Phase = "before"

	// PhaseMain — основной script.
	PhaseMain Phase = "main"

	// PhaseAfter — after_script, cleanup/publish (best-effort).
	PhaseAfter Phase = "after"
)

// PipelineStatus — статус выполнения pipeline.
//
// Жизненный цикл:
//
//	PENDING → RUNNING → SUCCESS
//	                  ↘ FAILED
type PipelineStatus string

const (
	// PipelineStatusPending — run создан, выполнение не началось.
	PipelineStatusPending PipelineStatus = "PENDING"

	// PipelineStatusRunning — run в процессе выполнения.
	PipelineStatusRunning PipelineStatus = "RUNNING"

	// PipelineStatusSuccess — все jobs завершились без FAILED.
	PipelineStatusSuccess PipelineStatus = "SUCCESS"

	// PipelineStatusFailed — хотя бы один job завершился FAILED.
	PipelineStatusFailed PipelineStatus = "FAILED"
)

// IsTerminal возвращает true, если статус финальный.
func (s PipelineStatus) IsTerminal() bool {
	switch s {
	case PipelineStatusSuccess, PipelineStatusFailed:
		return true
	default:
		return false
	}
}
