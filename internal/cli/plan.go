package cli

import (
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/scheduler"
)

// NewPlanCmd создаёт команду plan: показывает, какие jobs будут
// выполнены и какие пропущены, без запуска.
func NewPlanCmd(outputFn func() *Output) *cobra.Command {
	var runnerSpecs []string
	var runnerTags string
	var onlyStage string
	var variables []string

	cmd := &cobra.Command{
		Use:   "plan FILE",
		Short: "Show the execution plan without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			pipeline, err := engine.Load(args[0])
			if err != nil {
				return err
			}

			overrides, err := parseVariables(variables)
			if err != nil {
				return err
			}
			applyVariables(pipeline, overrides)

			runners, err := parseRunners(runnerSpecs, runnerTags)
			if err != nil {
				return err
			}

			plan, err := scheduler.BuildPlan(pipeline, runners, scheduler.PlanOptions{
				OnlyStage: onlyStage,
				Env:       environMap(),
			})
			if err != nil {
				return err
			}

			headers := []string{"STAGE", "JOB", "ACTION", "REASON"}
			var rows [][]string
			for _, stage := range plan.Stages {
				for i := range stage.Jobs {
					job := &stage.Jobs[i]
					action, reason := "run", ""
					if !job.Eligible() {
						action = "skip"
						reason = string(job.Skip.Code)
					}
					rows = append(rows, []string{stage.Stage, job.Job.Name, action, reason})
				}
			}

			out.Print(headers, rows, plan)

			stats := plan.Stats()
			out.Success(planSummary(stats))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&runnerSpecs, "runner", nil, "Runner as NAME=tag1,tag2 (repeatable)")
	cmd.Flags().StringVar(&runnerTags, "runner-tags", "", "Tags of the default local runner as tag1,tag2")
	cmd.Flags().StringVar(&onlyStage, "stage", "", "Plan only this stage")
	cmd.Flags().StringArrayVar(&variables, "var", nil, "Pipeline variable override as KEY=VALUE (repeatable)")

	return cmd
}
