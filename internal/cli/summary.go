package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/scheduler"
)

// applyVariables накладывает переопределения на переменные pipeline.
func applyVariables(p *domain.Pipeline, overrides map[string]string) {
	if len(overrides) == 0 {
		return
	}
	if p.Variables == nil {
		p.Variables = make(map[string]string, len(overrides))
	}
	for k, v := range overrides {
		p.Variables[k] = v
	}
}

// planSummary форматирует сводку плана.
func planSummary(stats scheduler.Stats) string {
	return fmt.Sprintf("%d jobs: %d to run, %d skipped",
		stats.TotalJobs, stats.EligibleJobs, stats.SkippedJobs)
}

// printRunSummary выводит результаты run в порядке stages плана.
func printRunSummary(out *Output, plan *scheduler.ExecutionPlan, run *domain.PipelineRun) {
	headers := []string{"STAGE", "JOB", "STATUS", "EXIT", "DURATION", "NOTES"}
	var rows [][]string

	for _, stage := range plan.Stages {
		for i := range stage.Jobs {
			name := stage.Jobs[i].Job.Name
			result := run.Results[name]
			if result == nil {
				continue
			}

			exit := ""
			if result.Status != domain.JobStatusSkipped {
				exit = strconv.Itoa(result.ExitCode)
			}

			rows = append(rows, []string{
				stage.Stage,
				name,
				string(result.Status),
				exit,
				result.Duration().Truncate(time.Millisecond).String(),
				diagnosticNotes(result),
			})
		}
	}

	out.Print(headers, rows, run)
	out.Success(fmt.Sprintf("Pipeline %s: %s in %s",
		run.PipelineName, run.Status, run.Duration().Truncate(time.Millisecond)))
}

// diagnosticNotes сводит диагностики результата в одну строку.
func diagnosticNotes(result *domain.RunResult) string {
	if len(result.Diagnostics) == 0 {
		return ""
	}
	codes := make([]string, len(result.Diagnostics))
	for i, d := range result.Diagnostics {
		codes[i] = string(d.Code)
	}
	return strings.Join(codes, ",")
}
