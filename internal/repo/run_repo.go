package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/domain"
)

// RunRepo — репозиторий истории pipeline runs.
//
// Схема:
//
//	CREATE TABLE pipeline_runs (
//	    id            uuid PRIMARY KEY,
//	    pipeline_name text NOT NULL,
//	    status        text NOT NULL,
//	    error         text,
//	    started_at    timestamptz,
//	    finished_at   timestamptz,
//	    created_at    timestamptz NOT NULL
//	);
type RunRepo struct {
	pool *pgxpool.Pool
}

// NewRunRepo создаёт новый RunRepo.
func NewRunRepo(pool *pgxpool.Pool) *RunRepo {
	return &RunRepo{pool: pool}
}

// Save создаёт run или обновляет его изменяемые поля.
// Вызывается на старте run и при финализации.
func (r *RunRepo) Save(ctx context.Context, run *domain.PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (id, pipeline_name, status, error, started_at, finished_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE
		SET status = $3, error = $4, started_at = $5, finished_at = $6
	`
	_, err := r.pool.Exec(ctx, query,
		run.ID,
		run.PipelineName,
		run.Status,
		nullString(run.Error),
		run.StartedAt,
		run.FinishedAt,
		run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save run: %w", err)
	}
	return nil
}

// GetByID возвращает run по ID, без результатов jobs.
func (r *RunRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.PipelineRun, error) {
	query := `
		SELECT id, pipeline_name, status, error, started_at, finished_at, created_at
		FROM pipeline_runs
		WHERE id = $1
	`
	return scanRun(r.pool.QueryRow(ctx, query, id))
}

// RunFilter — параметры фильтрации runs.
type RunFilter struct {
	PipelineName string
	Status       domain.PipelineStatus
	Limit        int
	Offset       int
}

// List возвращает runs с фильтрацией, новые первыми.
func (r *RunRepo) List(ctx context.Context, filter RunFilter) ([]domain.PipelineRun, error) {
	query := `
		SELECT id, pipeline_name, status, error, started_at, finished_at, created_at
		FROM pipeline_runs
		WHERE ($1::text IS NULL OR pipeline_name = $1)
		  AND ($2::text IS NULL OR status = $2)
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.pool.Query(ctx, query,
		nullString(filter.PipelineName),
		nullString(string(filter.Status)),
		filter.Limit,
		filter.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.PipelineRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// scanRun сканирует одну строку в PipelineRun.
func scanRun(row pgx.Row) (*domain.PipelineRun, error) {
	var run domain.PipelineRun
	var runError *string

	err := row.Scan(
		&run.ID,
		&run.PipelineName,
		&run.Status,
		&runError,
		&run.StartedAt,
		&run.FinishedAt,
		&run.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}

	if runError != nil {
		run.Error = *runError
	}
	return &run, nil
}

// nullString возвращает nil для пустой строки (для NULL в БД).
func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
