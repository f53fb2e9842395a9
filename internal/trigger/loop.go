package trigger

import (
	"context"
	"log/slog"
	"time"
)

// RunFunc выполняет один запуск pipeline. Ошибки запусков
// логируются и не останавливают цикл.
type RunFunc func(ctx context.Context) error

// Loop повторяет запуски pipeline по расписанию.
type Loop struct {
	schedule Schedule
	run      RunFunc
	logger   *slog.Logger
}

// NewLoop создаёт цикл запусков. Расписание должно быть
// провалидировано заранее.
func NewLoop(schedule Schedule, run RunFunc, logger *slog.Logger) *Loop {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loop{schedule: schedule, run: run, logger: logger}
}

// Start блокируется и выполняет запуски до отмены контекста.
// Первый запуск происходит по расписанию, не немедленно.
func (l *Loop) Start(ctx context.Context) error {
	for {
		next, err := l.schedule.NextDue(time.Now())
		if err != nil {
			return err
		}

		l.logger.Info("next run scheduled", "at", next)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Until(next)):
		}

		started := time.Now()
		if err := l.run(ctx); err != nil {
			l.logger.Error("scheduled run failed", "error", err)
		}
		l.logger.Info("scheduled run finished", "duration", time.Since(started))
	}
}
