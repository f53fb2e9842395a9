package cli

import "errors"

// Ошибки CLI.
var (
	// ErrRunFailed — run завершился со статусом FAILED.
	// Транслируется в код выхода 1.
	ErrRunFailed = errors.New("pipeline run failed")

	// ErrBadRunnerSpec — флаг --runner задан в неверном формате.
	ErrBadRunnerSpec = errors.New("bad runner spec")
)
