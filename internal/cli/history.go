package cli

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/repo"
)

// NewHistoryCmd создаёт группу команд для истории runs
// (требует PostgreSQL, $DB_URL).
func NewHistoryCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded pipeline runs",
	}

	cmd.AddCommand(
		newHistoryListCmd(outputFn),
		newHistoryShowCmd(outputFn),
	)

	return cmd
}

func newHistoryListCmd(outputFn func() *Output) *cobra.Command {
	var pipelineName string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			pool, err := repo.NewPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			runs, err := repo.NewRunRepo(pool).List(cmd.Context(), repo.RunFilter{
				PipelineName: pipelineName,
				Status:       domain.PipelineStatus(status),
				Limit:        limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "PIPELINE", "STATUS", "DURATION", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID.String(),
					r.PipelineName,
					string(r.Status),
					r.Duration().Truncate(time.Millisecond).String(),
					r.CreatedAt.Format(time.RFC3339),
				}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&pipelineName, "pipeline", "", "Filter by pipeline name")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, SUCCESS, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of results")

	return cmd
}

func newHistoryShowCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show RUN_ID",
		Short: "Show job results of a recorded run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			runID, err := uuid.Parse(args[0])
			if err != nil {
				return err
			}

			pool, err := repo.NewPool(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			run, err := repo.NewRunRepo(pool).GetByID(cmd.Context(), runID)
			if err != nil {
				return err
			}

			results, err := repo.NewJobRepo(pool).ListByRun(cmd.Context(), runID)
			if err != nil {
				return err
			}

			headers := []string{"JOB", "STATUS", "RUNNER", "EXIT", "DURATION"}
			rows := make([][]string, len(results))
			for i, res := range results {
				rows[i] = []string{
					res.JobName,
					string(res.Status),
					res.RunnerName,
					strconv.Itoa(res.ExitCode),
					res.Duration().Truncate(time.Millisecond).String(),
				}
			}

			run.Results = make(map[string]*domain.RunResult, len(results))
			for i := range results {
				run.Results[results[i].JobName] = &results[i]
			}

			out.Print(headers, rows, run)
			return nil
		},
	}
}
