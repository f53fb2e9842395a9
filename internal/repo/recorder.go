package repo

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Recorder сохраняет состояние run и результаты jobs в БД.
// Удовлетворяет интерфейсу Recorder оркестратора.
type Recorder struct {
	runs *RunRepo
	jobs *JobRepo
}

// NewRecorder создаёт Recorder поверх пула соединений.
func NewRecorder(pool *pgxpool.Pool) *Recorder {
	return &Recorder{
		runs: NewRunRepo(pool),
		jobs: NewJobRepo(pool),
	}
}

// RecordRun сохраняет текущее состояние run.
func (r *Recorder) RecordRun(ctx context.Context, run *domain.PipelineRun) error {
	return r.runs.Save(ctx, run)
}

// RecordResult сохраняет терминальный результат job.
func (r *Recorder) RecordResult(ctx context.Context, runID string, result *domain.RunResult) error {
	id, err := uuid.Parse(runID)
	if err != nil {
		return fmt.Errorf("parse run id: %w", err)
	}
	return r.jobs.Record(ctx, id, result)
}
