package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Conveyor/internal/domain"
)

// JobRepo — репозиторий результатов jobs.
//
// Схема:
//
//	CREATE TABLE job_results (
//	    run_id      uuid NOT NULL REFERENCES pipeline_runs(id),
//	    job_name    text NOT NULL,
//	    status      text NOT NULL,
//	    runner_name text,
//	    exit_code   int NOT NULL,
//	    steps       jsonb,
//	    artifacts   jsonb,
//	    diagnostics jsonb,
//	    started_at  timestamptz,
//	    finished_at timestamptz,
//	    PRIMARY KEY (run_id, job_name)
//	);
type JobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepo создаёт новый JobRepo.
func NewJobRepo(pool *pgxpool.Pool) *JobRepo {
	return &JobRepo{pool: pool}
}

// Record сохраняет терминальный результат job.
// Повторная запись того же job перезаписывает результат.
func (r *JobRepo) Record(ctx context.Context, runID uuid.UUID, result *domain.RunResult) error {
	stepsJSON, err := json.Marshal(result.Steps)
	if err != nil {
		return fmt.Errorf("marshal steps: %w", err)
	}
	artifactsJSON, err := json.Marshal(result.Artifacts)
	if err != nil {
		return fmt.Errorf("marshal artifacts: %w", err)
	}
	diagnosticsJSON, err := json.Marshal(result.Diagnostics)
	if err != nil {
		return fmt.Errorf("marshal diagnostics: %w", err)
	}

	query := `
		INSERT INTO job_results (run_id, job_name, status, runner_name, exit_code,
		                         steps, artifacts, diagnostics, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (run_id, job_name) DO UPDATE
		SET status = $3, runner_name = $4, exit_code = $5,
		    steps = $6, artifacts = $7, diagnostics = $8,
		    started_at = $9, finished_at = $10
	`
	_, err = r.pool.Exec(ctx, query,
		runID,
		result.JobName,
		result.Status,
		nullString(result.RunnerName),
		result.ExitCode,
		stepsJSON,
		artifactsJSON,
		diagnosticsJSON,
		result.StartedAt,
		result.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("record job result: %w", err)
	}
	return nil
}

// ListByRun возвращает результаты всех jobs данного run.
func (r *JobRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.RunResult, error) {
	query := `
		SELECT job_name, status, runner_name, exit_code,
		       steps, artifacts, diagnostics, started_at, finished_at
		FROM job_results
		WHERE run_id = $1
		ORDER BY started_at ASC
	`
	rows, err := r.pool.Query(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list job results: %w", err)
	}
	defer rows.Close()

	var results []domain.RunResult
	for rows.Next() {
		var res domain.RunResult
		var runnerName *string
		var stepsJSON, artifactsJSON, diagnosticsJSON []byte

		err := rows.Scan(
			&res.JobName,
			&res.Status,
			&runnerName,
			&res.ExitCode,
			&stepsJSON,
			&artifactsJSON,
			&diagnosticsJSON,
			&res.StartedAt,
			&res.FinishedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan job result: %w", err)
		}

		if runnerName != nil {
			res.RunnerName = *runnerName
		}
		if stepsJSON != nil {
			if err := json.Unmarshal(stepsJSON, &res.Steps); err != nil {
				return nil, fmt.Errorf("unmarshal steps: %w", err)
			}
		}
		if artifactsJSON != nil {
			if err := json.Unmarshal(artifactsJSON, &res.Artifacts); err != nil {
				return nil, fmt.Errorf("unmarshal artifacts: %w", err)
			}
		}
		if diagnosticsJSON != nil {
			if err := json.Unmarshal(diagnosticsJSON, &res.Diagnostics); err != nil {
				return nil, fmt.Errorf("unmarshal diagnostics: %w", err)
			}
		}

		results = append(results, res)
	}
	return results, rows.Err()
}
