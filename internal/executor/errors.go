package executor

import "errors"

// Ошибки executor'а.
var (
	// ErrCancelled — выполнение job прервано отменой контекста.
	ErrCancelled = errors.New("job execution cancelled")

	// ErrSpawnFailed — процесс шага не удалось запустить
	// (инфраструктурная ошибка, не код выхода).
	ErrSpawnFailed = errors.New("failed to spawn step process")
)
