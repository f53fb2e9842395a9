package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Метрики Conveyor. Экспортируются на /metrics endpoint агента
// и long-running оркестратора (режимы --cron/--every).
var (
	// RunsTotal — количество завершённых runs по статусу.
	RunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_runs_total",
		Help: "Completed pipeline runs by final status.",
	}, []string{"status"})

	// JobsTotal — количество завершённых jobs по статусу.
	JobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_jobs_total",
		Help: "Completed jobs by terminal status.",
	}, []string{"status"})

	// StepsTotal — количество выполненных shell-шагов по фазе.
	StepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conveyor_steps_total",
		Help: "Executed shell steps by phase.",
	}, []string{"phase"})

	// StageDuration — длительность stage в секундах.
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "conveyor_stage_duration_seconds",
		Help:    "Wall-clock duration of pipeline stages.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	}, []string{"stage"})

	// ArtifactsPublished — количество опубликованных артефактов.
	ArtifactsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conveyor_artifacts_published_total",
		Help: "Artifacts published to the artifact store.",
	})
)
