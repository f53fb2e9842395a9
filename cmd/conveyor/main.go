// Conveyor CLI — декларативный запуск многостадийных CI pipelines.
//
// Использование:
//
//	conveyor [--json] <command> [flags]
//
// Команды:
//
//	run       Выполнить pipeline
//	plan      Показать план выполнения
//	validate  Проверить определение pipeline
//	history   История runs (PostgreSQL)
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/cli"
	"github.com/shaiso/Conveyor/internal/engine"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	// graceful shutdown: Ctrl-C отменяет выполняющиеся jobs
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "conveyor",
		Short:         "Conveyor — declarative multi-stage pipeline runner",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewRunCmd(outputFn),
		cli.NewPlanCmd(outputFn),
		cli.NewValidateCmd(outputFn),
		cli.NewHistoryCmd(outputFn),
	)

	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		return
	}

	fmt.Fprintln(os.Stderr, "Error:", err)
	if errors.Is(err, engine.ErrMalformedDefinition) {
		os.Exit(2)
	}
	os.Exit(1)
}
