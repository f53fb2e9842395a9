package trigger

import "errors"

// Ошибки триггера.
var (
	// ErrBadSchedule — расписание задано некорректно.
	ErrBadSchedule = errors.New("bad schedule")
)
