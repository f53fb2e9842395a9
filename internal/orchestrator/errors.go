package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrNilPlan — Run вызван без плана.
	ErrNilPlan = errors.New("execution plan is nil")

	// ErrEmptyPlan — план не содержит ни одного stage.
	ErrEmptyPlan = errors.New("execution plan has no stages")
)
