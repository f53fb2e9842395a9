package engine

import (
	"fmt"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Validate выполняет полную валидацию Pipeline.
//
// Проверяет:
// - Наличие stages и отсутствие дубликатов
// - Наличие jobs
// - Уникальность имён jobs
// - Принадлежность каждого job объявленному stage
// - Наличие непустого script у каждого job
func Validate(p *domain.Pipeline) error {
	if p == nil || len(p.Stages) == 0 {
		return ErrNoStages
	}

	seen := make(map[string]bool, len(p.Stages))
	for _, stage := range p.Stages {
		if seen[stage] {
			return NewDefinitionError("", "stages",
				fmt.Sprintf("stage %q declared more than once", stage), ErrDuplicateStage)
		}
		seen[stage] = true
	}

	if len(p.Jobs) == 0 {
		return ErrNoJobs
	}

	jobNames := make(map[string]bool, len(p.Jobs))
	for i := range p.Jobs {
		job := &p.Jobs[i]

		if err := validateJob(p, job, jobNames); err != nil {
			return err
		}
	}

	return nil
}

// validateJob валидирует один job.
// jobNames — уже встреченные имена jobs (для проверки уникальности).
func validateJob(p *domain.Pipeline, job *domain.Job, jobNames map[string]bool) error {
	if job.Name == "" {
		return NewDefinitionError("", "name", "job has empty name", ErrEmptyJobName)
	}

	if jobNames[job.Name] {
		return NewDefinitionError(job.Name, "name",
			fmt.Sprintf("duplicate job name: %s", job.Name), ErrBadDocument)
	}
	jobNames[job.Name] = true

	if job.Stage == "" {
		return NewDefinitionError(job.Name, "stage",
			"job has no stage", ErrUnknownStage)
	}
	if !p.HasStage(job.Stage) {
		return NewDefinitionError(job.Name, "stage",
			fmt.Sprintf("references undeclared stage %q", job.Stage), ErrUnknownStage)
	}

	if len(job.Script) == 0 {
		return NewDefinitionError(job.Name, "script",
			"script is required and must be non-empty", ErrEmptyScript)
	}
	for _, cmd := range job.Script {
		if cmd == "" {
			return NewDefinitionError(job.Name, "script",
				"script contains an empty command", ErrEmptyScript)
		}
	}

	return nil
}
