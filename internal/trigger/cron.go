package trigger

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (пять полей, без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Schedule — расписание повторных запусков pipeline.
// Задаётся либо cron-выражением, либо фиксированным интервалом.
type Schedule struct {
	// CronExpr — cron-выражение из пяти полей.
	CronExpr string

	// Interval — фиксированный интервал между запусками.
	Interval time.Duration
}

// IsZero возвращает true для пустого расписания.
func (s Schedule) IsZero() bool {
	return s.CronExpr == "" && s.Interval == 0
}

// Validate проверяет, что расписание задано ровно одним способом
// и корректно.
func (s Schedule) Validate() error {
	switch {
	case s.CronExpr != "" && s.Interval != 0:
		return fmt.Errorf("%w: both cron expression and interval set", ErrBadSchedule)
	case s.CronExpr != "":
		return ValidateCronExpr(s.CronExpr)
	case s.Interval > 0:
		return nil
	case s.Interval < 0:
		return fmt.Errorf("%w: negative interval", ErrBadSchedule)
	default:
		return fmt.Errorf("%w: neither cron expression nor interval set", ErrBadSchedule)
	}
}

// NextDue вычисляет следующее время запуска после from.
func (s Schedule) NextDue(from time.Time) (time.Time, error) {
	if s.CronExpr != "" {
		return nextCron(s.CronExpr, from)
	}
	if s.Interval > 0 {
		return from.Add(s.Interval), nil
	}
	return time.Time{}, fmt.Errorf("%w: neither cron expression nor interval set", ErrBadSchedule)
}

// nextCron вычисляет следующее время по cron-выражению.
func nextCron(cronExpr string, from time.Time) (time.Time, error) {
	schedule, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return schedule.Next(from), nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	_, err := cronParser.Parse(cronExpr)
	if err != nil {
		return fmt.Errorf("%w: %q: %v", ErrBadSchedule, cronExpr, err)
	}
	return nil
}
