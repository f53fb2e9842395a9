package scheduler

import "errors"

// Ошибки scheduler'а.
var (
	// ErrNoRunners — не задан ни один runner.
	ErrNoRunners = errors.New("no runners available")

	// ErrUnknownStageFilter — фильтр --stage ссылается
	// на необъявленный stage.
	ErrUnknownStageFilter = errors.New("stage filter references unknown stage")

	// ErrPoolClosed — пул runner'ов закрыт.
	ErrPoolClosed = errors.New("runner pool closed")

	// ErrRunnerNotOwned — попытка освободить runner, который
	// не был захвачен.
	ErrRunnerNotOwned = errors.New("runner is not acquired")
)
