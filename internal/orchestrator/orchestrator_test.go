package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/executor"
	"github.com/shaiso/Conveyor/internal/scheduler"
)

// fakeDispatcher возвращает заранее заданные статусы по имени job
// и запоминает, какие jobs до него дошли.
type fakeDispatcher struct {
	mu       sync.Mutex
	statuses map[string]domain.JobStatus
	seen     []string
}

func newFakeDispatcher(statuses map[string]domain.JobStatus) *fakeDispatcher {
	return &fakeDispatcher{statuses: statuses}
}

func (d *fakeDispatcher) Dispatch(_ context.Context, _ *domain.Pipeline, job *domain.Job) *domain.RunResult {
	d.mu.Lock()
	d.seen = append(d.seen, job.Name)
	d.mu.Unlock()

	status, ok := d.statuses[job.Name]
	if !ok {
		status = domain.JobStatusSuccess
	}

	result := &domain.RunResult{
		JobName:    job.Name,
		Status:     status,
		RunnerName: "fake",
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
	if status == domain.JobStatusFailed {
		result.ExitCode = 1
	}
	return result
}

func (d *fakeDispatcher) dispatched(name string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, n := range d.seen {
		if n == name {
			return true
		}
	}
	return false
}

func testPipeline() *domain.Pipeline {
	return &domain.Pipeline{
		Name:   "demo",
		Stages: []string{"build", "test"},
		Jobs: []domain.Job{
			{Name: "compile", Stage: "build", Script: []string{"true"}},
			{Name: "bench", Stage: "build", Tags: []string{"gpu"}, Script: []string{"true"}},
			{Name: "unit", Stage: "test", Script: []string{"true"}},
		},
	}
}

func buildTestPlan(t *testing.T, p *domain.Pipeline, runners []domain.Runner) *scheduler.ExecutionPlan {
	t.Helper()
	plan, err := scheduler.BuildPlan(p, runners, scheduler.PlanOptions{})
	if err != nil {
		t.Fatalf("BuildPlan: %v", err)
	}
	return plan
}

func TestRun_NilAndEmptyPlan(t *testing.T) {
	o := New(Config{Dispatcher: newFakeDispatcher(nil)})

	if _, err := o.Run(context.Background(), nil); !errors.Is(err, ErrNilPlan) {
		t.Errorf("expected ErrNilPlan, got %v", err)
	}

	empty := &scheduler.ExecutionPlan{Pipeline: &domain.Pipeline{Name: "p"}}
	if _, err := o.Run(context.Background(), empty); !errors.Is(err, ErrEmptyPlan) {
		t.Errorf("expected ErrEmptyPlan, got %v", err)
	}
}

// Job без подходящего runner'а пропускается, pipeline остаётся SUCCESS.
func TestRun_SkippedJobDoesNotFailPipeline(t *testing.T) {
	p := testPipeline()
	runners := []domain.Runner{{Name: "linux-1", Tags: []string{"linux"}}}
	plan := buildTestPlan(t, p, runners)

	dispatcher := newFakeDispatcher(nil)
	o := New(Config{Dispatcher: dispatcher})

	run, err := o.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Status != domain.PipelineStatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (error: %s)", run.Status, run.Error)
	}

	bench := run.Results["bench"]
	if bench == nil || bench.Status != domain.JobStatusSkipped {
		t.Fatalf("expected bench SKIPPED, got %+v", bench)
	}
	if !bench.HasDiagnostic(domain.DiagNoEligibleRunner) {
		t.Errorf("expected NoEligibleRunner diagnostic, got %+v", bench.Diagnostics)
	}
	if dispatcher.dispatched("bench") {
		t.Error("skipped job must not be dispatched")
	}
	if !dispatcher.dispatched("unit") {
		t.Error("later stage must run when earlier stage only skipped")
	}
}

// FAILED job stage'а build: соседний job доходит до терминального
// статуса, stage test не начинается.
func TestRun_FailFastAtStageBoundary(t *testing.T) {
	p := &domain.Pipeline{
		Name:   "demo",
		Stages: []string{"build", "test"},
		Jobs: []domain.Job{
			{Name: "broken", Stage: "build", Script: []string{"exit 1"}},
			{Name: "healthy", Stage: "build", Script: []string{"exit 0"}},
			{Name: "unit", Stage: "test", Script: []string{"true"}},
		},
	}
	runners := []domain.Runner{{Name: "a"}, {Name: "b"}}
	plan := buildTestPlan(t, p, runners)

	dispatcher := newFakeDispatcher(map[string]domain.JobStatus{
		"broken": domain.JobStatusFailed,
	})
	o := New(Config{Dispatcher: dispatcher})

	run, err := o.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Status != domain.PipelineStatusFailed {
		t.Fatalf("expected FAILED, got %s", run.Status)
	}

	// Оба job'а stage'а build терминальны.
	for _, name := range []string{"broken", "healthy"} {
		res := run.Results[name]
		if res == nil || !res.Status.IsTerminal() {
			t.Errorf("job %s must reach a terminal status, got %+v", name, res)
		}
	}
	if run.Results["healthy"].Status != domain.JobStatusSuccess {
		t.Errorf("sibling of failed job must finish normally, got %s", run.Results["healthy"].Status)
	}

	// Stage test не начинался.
	if dispatcher.dispatched("unit") {
		t.Error("jobs of later stages must not be dispatched after a failure")
	}
	unit := run.Results["unit"]
	if unit == nil || unit.Status != domain.JobStatusSkipped {
		t.Fatalf("expected unit SKIPPED, got %+v", unit)
	}
	if !unit.HasDiagnostic(domain.DiagStageNotReached) {
		t.Errorf("expected StageNotReached diagnostic, got %+v", unit.Diagnostics)
	}
}

func TestRun_CancelledBeforeStage(t *testing.T) {
	p := testPipeline()
	runners := []domain.Runner{{Name: "any", Tags: []string{"gpu"}}}
	plan := buildTestPlan(t, p, runners)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	o := New(Config{Dispatcher: newFakeDispatcher(nil)})
	run, err := o.Run(ctx, plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Status != domain.PipelineStatusFailed {
		t.Fatalf("expected FAILED after cancellation, got %s", run.Status)
	}
	for name, res := range run.Results {
		if res.Status != domain.JobStatusSkipped {
			t.Errorf("job %s: expected SKIPPED, got %s", name, res.Status)
		}
		if !res.HasDiagnostic(domain.DiagCancelled) {
			t.Errorf("job %s: expected Cancelled diagnostic, got %+v", name, res.Diagnostics)
		}
	}
}

// recordingSink собирает события жизненного цикла.
type recordingSink struct {
	mu       sync.Mutex
	started  int
	finished int
	jobs     []string
}

func (s *recordingSink) RunStarted(context.Context, *domain.PipelineRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started++
}

func (s *recordingSink) JobFinished(_ context.Context, _ *domain.PipelineRun, result *domain.RunResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, result.JobName)
}

func (s *recordingSink) RunFinished(context.Context, *domain.PipelineRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finished++
}

func TestRun_EmitsLifecycleEvents(t *testing.T) {
	p := testPipeline()
	runners := []domain.Runner{{Name: "any", Tags: []string{"gpu"}}}
	plan := buildTestPlan(t, p, runners)

	sink := &recordingSink{}
	o := New(Config{Dispatcher: newFakeDispatcher(nil), Events: sink})

	if _, err := o.Run(context.Background(), plan); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if sink.started != 1 || sink.finished != 1 {
		t.Errorf("expected one started and one finished event, got %d/%d", sink.started, sink.finished)
	}
	if len(sink.jobs) != len(p.Jobs) {
		t.Errorf("expected %d job events, got %d", len(p.Jobs), len(sink.jobs))
	}
}

// Сквозной сценарий на LocalDispatcher с настоящим sh.
func TestRun_LocalDispatcherEndToEnd(t *testing.T) {
	p := &domain.Pipeline{
		Name:      "e2e",
		Variables: map[string]string{"TARGET": "dist"},
		Stages:    []string{"build", "verify"},
		Jobs: []domain.Job{
			{Name: "compile", Stage: "build", Script: []string{`echo building "$TARGET"`}},
			{Name: "lint", Stage: "build", Script: []string{"true"}},
			{Name: "check", Stage: "verify", Script: []string{"true"}},
		},
	}
	runners := []domain.Runner{{Name: "local-1"}, {Name: "local-2"}}
	plan := buildTestPlan(t, p, runners)

	pool := scheduler.NewPool(runners)
	defer pool.Close()

	exec := executor.New(executor.Config{Commands: executor.NewShellRunner(t.TempDir())})
	o := New(Config{Dispatcher: NewLocalDispatcher(pool, exec)})

	run, err := o.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if run.Status != domain.PipelineStatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (results: %+v)", run.Status, run.Results)
	}
	if len(run.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(run.Results))
	}
	if pool.FreeCount() != pool.Size() {
		t.Errorf("all runners must be released, free %d of %d", pool.FreeCount(), pool.Size())
	}
}
