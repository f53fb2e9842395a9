package trigger

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestSchedule_Validate(t *testing.T) {
	tests := []struct {
		name     string
		schedule Schedule
		wantErr  bool
	}{
		{"valid cron", Schedule{CronExpr: "0 3 * * *"}, false},
		{"valid interval", Schedule{Interval: time.Minute}, false},
		{"empty", Schedule{}, true},
		{"both set", Schedule{CronExpr: "* * * * *", Interval: time.Minute}, true},
		{"bad cron", Schedule{CronExpr: "not a cron"}, true},
		{"six fields", Schedule{CronExpr: "0 0 3 * * *"}, true},
		{"negative interval", Schedule{Interval: -time.Second}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.schedule.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrBadSchedule) {
					t.Errorf("expected ErrBadSchedule, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSchedule_NextDueCron(t *testing.T) {
	s := Schedule{CronExpr: "30 2 * * *"}
	from := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	next, err := s.NextDue(from)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}

	want := time.Date(2026, 3, 11, 2, 30, 0, 0, time.UTC)
	if !next.Equal(want) {
		t.Errorf("expected %v, got %v", want, next)
	}
}

func TestSchedule_NextDueInterval(t *testing.T) {
	s := Schedule{Interval: 15 * time.Minute}
	from := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	next, err := s.NextDue(from)
	if err != nil {
		t.Fatalf("NextDue: %v", err)
	}

	if !next.Equal(from.Add(15 * time.Minute)) {
		t.Errorf("expected from+15m, got %v", next)
	}
}

func TestLoop_RunsUntilCancelled(t *testing.T) {
	var runs atomic.Int32

	loop := NewLoop(Schedule{Interval: 10 * time.Millisecond}, func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := loop.Start(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
	if runs.Load() < 2 {
		t.Errorf("expected at least 2 runs, got %d", runs.Load())
	}
}
