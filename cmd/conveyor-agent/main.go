// Conveyor Agent — выполняет jobs на удалённой машине.
//
// Агент:
//   - Получает назначения jobs из RabbitMQ
//   - Выполняет только jobs, чьи теги покрыты его runner'ом
//   - Отправляет терминальные результаты обратно
//
// Агенты масштабируются горизонтально.
//
// Конфигурация через окружение:
//
//	AGENT_NAME     имя runner'а (по умолчанию hostname)
//	AGENT_TAGS     теги runner'а через запятую
//	AGENT_WORKDIR  рабочий каталог shell-шагов
//	ARTIFACTS_DIR  каталог публикации артефактов (default: artifacts)
//	RABBITMQ_URL   адрес RabbitMQ
//	AGENT_PORT     порт /healthz и /metrics (default: 8081)
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Conveyor/internal/agent"
	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/executor"
	"github.com/shaiso/Conveyor/internal/mq"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting conveyor-agent")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Runner агента
	name := os.Getenv("AGENT_NAME")
	if name == "" {
		hostname, err := os.Hostname()
		if err != nil {
			logger.Error("failed to resolve hostname", "error", err)
			os.Exit(1)
		}
		name = hostname
	}
	runner := domain.Runner{
		Name: name,
		Tags: domain.ParseRunnerTags(os.Getenv("AGENT_TAGS")),
	}
	logger.Info("runner configured", "name", runner.Name, "tags", runner.Tags)

	// RabbitMQ
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	conn, err := mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Error("failed to connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer conn.Close()
	logger.Info("RabbitMQ connected")

	// Создаём топологию
	if err := mq.SetupTopology(ctx, conn); err != nil {
		logger.Error("failed to setup topology", "error", err)
		os.Exit(1)
	}

	// Executor агента
	workdir := os.Getenv("AGENT_WORKDIR")
	artifactsDir := os.Getenv("ARTIFACTS_DIR")
	if artifactsDir == "" {
		artifactsDir = "artifacts"
	}

	exec := executor.New(executor.Config{
		Commands:  executor.NewShellRunner(workdir),
		Publisher: artifact.NewFSPublisher(artifactsDir, workdir),
		Logger:    logger,
	})

	// Создаём и запускаем агента
	a := agent.New(agent.Config{
		Runner:   runner,
		Executor: exec,
		Conn:     conn,
		Logger:   logger,
	})

	if err := a.Start(ctx); err != nil {
		logger.Error("failed to start agent", "error", err)
		os.Exit(1)
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	port := ":8081"
	if v := os.Getenv("AGENT_PORT"); v != "" {
		port = ":" + v
	}

	go func() {
		logger.Info("listening", "addr", port)
		if err := http.ListenAndServe(port, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	// Ожидаем сигнал завершения
	<-ctx.Done()

	// Останавливаем агента
	a.Stop()
	logger.Info("conveyor-agent stopped")
}
