package cli

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/engine"
	"github.com/shaiso/Conveyor/internal/executor"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/orchestrator"
	"github.com/shaiso/Conveyor/internal/repo"
	"github.com/shaiso/Conveyor/internal/scheduler"
	"github.com/shaiso/Conveyor/internal/telemetry"
	"github.com/shaiso/Conveyor/internal/trigger"
)

// runOptions — флаги команды run.
type runOptions struct {
	runnerSpecs  []string
	runnerTags   string
	onlyStage    string
	variables    []string
	workdir      string
	artifactsDir string

	remote  bool
	amqpURL string
	events  bool

	record bool

	cronExpr    string
	every       time.Duration
	metricsAddr string
}

// NewRunCmd создаёт команду run: выполнение pipeline.
func NewRunCmd(outputFn func() *Output) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Run a pipeline",
		Long: `Run a pipeline from a YAML definition.

Jobs execute stage by stage: a stage starts only after every job of
the previous stage reached a terminal status. A failed job lets its
stage siblings finish but blocks all later stages. Jobs without an
eligible runner are skipped without failing the pipeline.

Exit codes: 0 — success, 1 — pipeline failed, 2 — malformed definition.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), args[0], opts, outputFn())
		},
	}

	cmd.Flags().StringArrayVar(&opts.runnerSpecs, "runner", nil, "Runner as NAME=tag1,tag2 (repeatable)")
	cmd.Flags().StringVar(&opts.runnerTags, "runner-tags", "", "Tags of the default local runner as tag1,tag2")
	cmd.Flags().StringVar(&opts.onlyStage, "stage", "", "Run only this stage")
	cmd.Flags().StringArrayVar(&opts.variables, "var", nil, "Pipeline variable override as KEY=VALUE (repeatable)")
	cmd.Flags().StringVar(&opts.workdir, "workdir", "", "Working directory for shell steps (default: current)")
	cmd.Flags().StringVar(&opts.artifactsDir, "artifacts-dir", "artifacts", "Directory for published artifacts")
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "Dispatch jobs to remote agents via RabbitMQ")
	cmd.Flags().StringVar(&opts.amqpURL, "amqp-url", "", "RabbitMQ URL (default: $RABBITMQ_URL)")
	cmd.Flags().BoolVar(&opts.events, "events", false, "Publish run lifecycle events to RabbitMQ")
	cmd.Flags().BoolVar(&opts.record, "record", false, "Record run history in PostgreSQL ($DB_URL)")
	cmd.Flags().StringVar(&opts.cronExpr, "cron", "", "Re-run on a cron schedule (five fields)")
	cmd.Flags().DurationVar(&opts.every, "every", 0, "Re-run at a fixed interval")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Expose /metrics and /healthz on this address in scheduled mode")

	return cmd
}

// runPipeline собирает компоненты по флагам и выполняет pipeline
// один раз либо по расписанию.
func runPipeline(ctx context.Context, path string, opts *runOptions, out *Output) error {
	logger := telemetry.SetupLogger()

	pipeline, err := engine.Load(path)
	if err != nil {
		return err
	}

	overrides, err := parseVariables(opts.variables)
	if err != nil {
		return err
	}
	applyVariables(pipeline, overrides)

	runners, err := parseRunners(opts.runnerSpecs, opts.runnerTags)
	if err != nil {
		return err
	}

	// Dispatcher: локальный пул либо удалённые агенты.
	var dispatcher orchestrator.Dispatcher
	var conn *mq.Connection
	if opts.remote || opts.events {
		url := opts.amqpURL
		if url == "" {
			url = os.Getenv("RABBITMQ_URL")
		}
		if url == "" {
			url = mq.DefaultURL()
		}

		conn, err = mq.NewConnection(url, logger)
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := mq.SetupTopology(ctx, conn); err != nil {
			return err
		}
	}

	if opts.remote {
		remote := mq.NewRemoteDispatcher(mq.RemoteDispatcherConfig{
			Conn:   conn,
			Logger: logger,
		})
		remote.Start(ctx)
		defer remote.Stop()
		dispatcher = remote
	} else {
		pool := scheduler.NewPool(runners)
		defer pool.Close()

		exec := executor.New(executor.Config{
			Commands:  executor.NewShellRunner(opts.workdir),
			Publisher: artifact.NewFSPublisher(opts.artifactsDir, opts.workdir),
			Logger:    logger,
		})
		dispatcher = orchestrator.NewLocalDispatcher(pool, exec)
	}

	// История runs в PostgreSQL.
	var recorder orchestrator.Recorder
	if opts.record {
		dbPool, err := repo.NewPool(ctx)
		if err != nil {
			return err
		}
		defer dbPool.Close()
		recorder = repo.NewRecorder(dbPool)
	}

	// События жизненного цикла.
	var events orchestrator.EventSink
	if opts.events {
		events = mq.NewEventPublisher(conn, logger)
	}

	orch := orchestrator.New(orchestrator.Config{
		Dispatcher: dispatcher,
		Recorder:   recorder,
		Events:     events,
		Logger:     logger,
	})

	runOnce := func(ctx context.Context) error {
		plan, err := scheduler.BuildPlan(pipeline, runners, scheduler.PlanOptions{
			OnlyStage: opts.onlyStage,
			Env:       environMap(),
		})
		if err != nil {
			return err
		}

		run, err := orch.Run(ctx, plan)
		if err != nil {
			return err
		}

		printRunSummary(out, plan, run)

		if run.Status == domain.PipelineStatusFailed {
			return ErrRunFailed
		}
		return nil
	}

	schedule := trigger.Schedule{CronExpr: opts.cronExpr, Interval: opts.every}
	if schedule.IsZero() {
		return runOnce(ctx)
	}

	if err := schedule.Validate(); err != nil {
		return err
	}

	if opts.metricsAddr != "" {
		startMetricsServer(opts.metricsAddr, logger)
	}

	loop := trigger.NewLoop(schedule, func(ctx context.Context) error {
		return runOnce(ctx)
	}, logger)

	err = loop.Start(ctx)
	if ctx.Err() != nil {
		// Остановка по сигналу — штатное завершение.
		return nil
	}
	return err
}

// startMetricsServer поднимает /healthz и /metrics для режима
// работы по расписанию.
func startMetricsServer(addr string, logger *slog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		logger.Info("listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error("http server error", "error", err)
		}
	}()
}
