package orchestrator

import (
	"context"
	"fmt"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/executor"
	"github.com/shaiso/Conveyor/internal/scheduler"
)

// Dispatcher выполняет один запланированный job и возвращает
// его терминальный RunResult.
//
// Реализации:
//   - LocalDispatcher — захват runner'а из пула и выполнение
//     в процессе оркестратора
//   - mq.RemoteDispatcher — публикация job в очередь и ожидание
//     результата от удалённого агента
type Dispatcher interface {
	Dispatch(ctx context.Context, pipeline *domain.Pipeline, job *domain.Job) *domain.RunResult
}

// LocalDispatcher выполняет jobs в процессе оркестратора.
//
// Runner захватывается из пула перед выполнением и освобождается
// после — эксклюзивность назначения обеспечивает пул.
type LocalDispatcher struct {
	pool     *scheduler.Pool
	executor *executor.Executor
}

// NewLocalDispatcher создаёт локальный dispatcher.
func NewLocalDispatcher(pool *scheduler.Pool, exec *executor.Executor) *LocalDispatcher {
	return &LocalDispatcher{pool: pool, executor: exec}
}

// Dispatch захватывает подходящий runner и выполняет job.
func (d *LocalDispatcher) Dispatch(ctx context.Context, pipeline *domain.Pipeline, job *domain.Job) *domain.RunResult {
	runner, err := d.pool.Acquire(ctx, job.Tags)
	if err != nil {
		// Сюда попадает только отмена или закрытие пула:
		// выполнимость тегов проверена при построении плана.
		if ctx.Err() != nil {
			return domain.SkippedResult(job.Name, domain.DiagCancelled,
				"cancelled while waiting for a runner")
		}
		return domain.SkippedResult(job.Name, domain.DiagNoEligibleRunner,
			fmt.Sprintf("runner pool: %v", err))
	}
	defer d.pool.Release(runner)

	return d.executor.Execute(ctx, pipeline, job, runner)
}
