package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/engine"
)

// NewValidateCmd создаёт команду validate: проверка определения
// pipeline без выполнения.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a pipeline definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			pipeline, err := engine.Load(args[0])
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("OK: pipeline %q, %d stages, %d jobs",
				pipeline.Name, len(pipeline.Stages), len(pipeline.Jobs)))
			return nil
		},
	}
}
