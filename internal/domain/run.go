package domain

import (
	"time"

	"github.com/google/uuid"
)

// PipelineRun — экземпляр выполнения pipeline.
//
// Run создаётся когда:
// - Пользователь запускает pipeline через CLI
// - Trigger создаёт run по расписанию (cron/interval)
//
// Статус pipeline — логическое И по всем jobs: любой FAILED job
// делает run FAILED; SKIPPED jobs на статус не влияют.
type PipelineRun struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// PipelineName — имя pipeline.
	PipelineName string `json:"pipeline_name"`

	// Status — текущий статус выполнения.
	Status PipelineStatus `json:"status"`

	// Results — результаты jobs по имени job.
	Results map[string]*RunResult `json:"results,omitempty"`

	// Error — текст ошибки, если run завершился FAILED
	// по причине вне отдельных jobs (например, отмена).
	Error string `json:"error,omitempty"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// NewPipelineRun создаёт новый run в статусе PENDING.
func NewPipelineRun(pipelineName string) *PipelineRun {
	return &PipelineRun{
		ID:           uuid.New(),
		PipelineName: pipelineName,
		Status:       PipelineStatusPending,
		Results:      make(map[string]*RunResult),
		CreatedAt:    time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *PipelineRun) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён.
func (r *PipelineRun) IsFinished() bool {
	return r.Status.IsTerminal()
}

// MarkRunning переводит run в статус RUNNING.
func (r *PipelineRun) MarkRunning() {
	now := time.Now()
	r.Status = PipelineStatusRunning
	r.StartedAt = &now
}

// MarkSuccess переводит run в статус SUCCESS.
func (r *PipelineRun) MarkSuccess() {
	now := time.Now()
	r.Status = PipelineStatusSuccess
	r.FinishedAt = &now
}

// MarkFailed переводит run в статус FAILED.
func (r *PipelineRun) MarkFailed(errMsg string) {
	now := time.Now()
	r.Status = PipelineStatusFailed
	r.FinishedAt = &now
	r.Error = errMsg
}

// AddResult записывает результат job.
func (r *PipelineRun) AddResult(result *RunResult) {
	if r.Results == nil {
		r.Results = make(map[string]*RunResult)
	}
	r.Results[result.JobName] = result
}

// HasFailedJobs возвращает true, если хотя бы один job FAILED.
func (r *PipelineRun) HasFailedJobs() bool {
	for _, res := range r.Results {
		if res.Status.IsFailure() {
			return true
		}
	}
	return false
}
