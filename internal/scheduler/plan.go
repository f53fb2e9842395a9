package scheduler

import (
	"fmt"

	"github.com/shaiso/Conveyor/internal/domain"
)

// PlanOptions — параметры построения плана.
type PlanOptions struct {
	// OnlyStage — если задано, план содержит только этот stage.
	// Предыдущие stages считаются выполненными.
	OnlyStage string

	// Env — процессное окружение для проверки requires_env.
	// Переменные pipeline и job перекрывают его.
	Env map[string]string
}

// PlannedJob — job в плане выполнения.
type PlannedJob struct {
	// Job — определение job.
	Job *domain.Job

	// Skip — причина пропуска. nil означает, что job подлежит
	// выполнению. Пропуск на этапе планирования — нефатальное
	// состояние: job получает терминальный SKIPPED, pipeline
	// продолжается.
	Skip *domain.Diagnostic
}

// Eligible возвращает true, если job подлежит выполнению.
func (j *PlannedJob) Eligible() bool {
	return j.Skip == nil
}

// StagePlan — один stage плана: jobs в порядке объявления.
// Между собой jobs stage'а не упорядочены и могут выполняться
// параллельно.
type StagePlan struct {
	// Stage — имя stage.
	Stage string

	// Jobs — jobs stage'а в порядке объявления.
	Jobs []PlannedJob
}

// ExecutionPlan — план выполнения pipeline.
//
// Stages следуют в объявленном порядке — scheduler никогда
// не переупорядочивает stages. Stage N+1 начинается только после
// того, как все jobs stage N достигли терминального статуса;
// FAILED job в stage N не прерывает соседей, но блокирует
// все последующие stages (fail-fast на границе stage).
type ExecutionPlan struct {
	// Pipeline — исходный pipeline.
	Pipeline *domain.Pipeline

	// Runners — доступные runners.
	Runners []domain.Runner

	// Stages — stages плана в объявленном порядке.
	Stages []StagePlan
}

// BuildPlan строит план выполнения: для каждого stage в объявленном
// порядке определяет, какие jobs подлежат выполнению, а какие
// пропускаются (выключены, не выполнено precondition, нет
// подходящего runner'а).
func BuildPlan(p *domain.Pipeline, runners []domain.Runner, opts PlanOptions) (*ExecutionPlan, error) {
	if len(runners) == 0 {
		return nil, ErrNoRunners
	}

	stages := p.Stages
	if opts.OnlyStage != "" {
		if !p.HasStage(opts.OnlyStage) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownStageFilter, opts.OnlyStage)
		}
		stages = []string{opts.OnlyStage}
	}

	plan := &ExecutionPlan{
		Pipeline: p,
		Runners:  runners,
		Stages:   make([]StagePlan, 0, len(stages)),
	}

	for _, stage := range stages {
		sp := StagePlan{Stage: stage}
		for _, job := range p.StageJobs(stage) {
			sp.Jobs = append(sp.Jobs, PlannedJob{
				Job:  job,
				Skip: skipReason(p, job, runners, opts.Env),
			})
		}
		plan.Stages = append(plan.Stages, sp)
	}

	return plan, nil
}

// skipReason возвращает причину пропуска job на этапе планирования
// или nil, если job подлежит выполнения.
//
// Порядок проверок: enabled → requires_env → теги.
func skipReason(p *domain.Pipeline, job *domain.Job, runners []domain.Runner, procEnv map[string]string) *domain.Diagnostic {
	if !job.IsEnabled() {
		return &domain.Diagnostic{
			Code:    domain.DiagJobDisabled,
			Message: "job is disabled (enabled: false)",
		}
	}

	if missing := missingEnv(p, job, procEnv); missing != "" {
		return &domain.Diagnostic{
			Code:    domain.DiagPreconditionNotMet,
			Message: fmt.Sprintf("required environment variable %s is empty", missing),
		}
	}

	if !anyRunnerSatisfies(runners, job.Tags) {
		return &domain.Diagnostic{
			Code:    domain.DiagNoEligibleRunner,
			Message: fmt.Sprintf("no runner satisfies tags %v", job.Tags),
		}
	}

	return nil
}

// missingEnv возвращает имя первой переменной из requires_env,
// пустой в объединённом окружении, или "".
func missingEnv(p *domain.Pipeline, job *domain.Job, procEnv map[string]string) string {
	if len(job.RequiresEnv) == 0 {
		return ""
	}

	merged := make(map[string]string, len(procEnv))
	for k, v := range procEnv {
		merged[k] = v
	}
	for k, v := range job.Env(p.Variables) {
		merged[k] = v
	}

	for _, name := range job.RequiresEnv {
		if merged[name] == "" {
			return name
		}
	}
	return ""
}

// anyRunnerSatisfies проверяет, покрывает ли хотя бы один runner
// требуемые теги.
func anyRunnerSatisfies(runners []domain.Runner, required []string) bool {
	for i := range runners {
		if runners[i].Satisfies(required) {
			return true
		}
	}
	return false
}

// Stats — сводка по плану.
type Stats struct {
	TotalJobs    int
	EligibleJobs int
	SkippedJobs  int
}

// Stats возвращает сводку по плану.
func (p *ExecutionPlan) Stats() Stats {
	var s Stats
	for _, stage := range p.Stages {
		for i := range stage.Jobs {
			s.TotalJobs++
			if stage.Jobs[i].Eligible() {
				s.EligibleJobs++
			} else {
				s.SkippedJobs++
			}
		}
	}
	return s
}
