package engine

import (
	"errors"
	"fmt"
)

// ErrMalformedDefinition — класс всех ошибок загрузки определения.
//
// Любая ошибка Loader'а оборачивает эту: проверка
// errors.Is(err, ErrMalformedDefinition) отличает ошибки
// определения от ошибок выполнения. Загрузка фатальна:
// при malformed-определении ни один job не выполняется.
var ErrMalformedDefinition = errors.New("malformed pipeline definition")

// Ошибки валидации определения. Все входят в класс ErrMalformedDefinition.
var (
	// ErrNoStages — определение не содержит списка stages.
	ErrNoStages = fmt.Errorf("%w: no stages declared", ErrMalformedDefinition)

	// ErrDuplicateStage — stage объявлен более одного раза.
	ErrDuplicateStage = fmt.Errorf("%w: duplicate stage", ErrMalformedDefinition)

	// ErrNoJobs — определение не содержит ни одного job.
	ErrNoJobs = fmt.Errorf("%w: no jobs declared", ErrMalformedDefinition)

	// ErrUnknownStage — job ссылается на необъявленный stage.
	ErrUnknownStage = fmt.Errorf("%w: job references undeclared stage", ErrMalformedDefinition)

	// ErrEmptyScript — у job отсутствует или пустое поле script.
	ErrEmptyScript = fmt.Errorf("%w: job has no script", ErrMalformedDefinition)

	// ErrUnknownTemplate — ссылка "@name" на необъявленный template.
	ErrUnknownTemplate = fmt.Errorf("%w: unknown template reference", ErrMalformedDefinition)

	// ErrEmptyJobName — job с пустым именем.
	ErrEmptyJobName = fmt.Errorf("%w: job has empty name", ErrMalformedDefinition)

	// ErrBadDocument — документ не разбирается как YAML
	// или имеет неверную структуру верхнего уровня.
	ErrBadDocument = fmt.Errorf("%w: bad document", ErrMalformedDefinition)
)

// DefinitionError — ошибка определения с контекстом.
type DefinitionError struct {
	Job     string // имя job, где произошла ошибка (пусто для ошибок уровня pipeline)
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *DefinitionError) Error() string {
	if e.Job != "" {
		return "job " + e.Job + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *DefinitionError) Unwrap() error {
	return e.Err
}

// NewDefinitionError создаёт новую ошибку определения.
func NewDefinitionError(job, field, message string, err error) *DefinitionError {
	return &DefinitionError{
		Job:     job,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
