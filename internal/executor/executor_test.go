package executor

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shaiso/Conveyor/internal/artifact"
	"github.com/shaiso/Conveyor/internal/domain"
)

var testRunner = domain.Runner{Name: "local"}

// newTestExecutor создаёт Executor с shell'ом в каталоге dir.
func newTestExecutor(dir string) *Executor {
	return New(Config{Commands: NewShellRunner(dir)})
}

func TestExecute_Success(t *testing.T) {
	dir := t.TempDir()
	e := newTestExecutor(dir)

	pipeline := &domain.Pipeline{Variables: map[string]string{"GREETING": "hello"}}
	job := &domain.Job{
		Name:   "greet",
		Script: []string{`echo "$GREETING $LOCAL"`},
		Variables: map[string]string{
			"LOCAL": "world",
		},
	}

	result := e.Execute(context.Background(), pipeline, job, &testRunner)

	if result.Status != domain.JobStatusSuccess {
		t.Fatalf("expected SUCCESS, got %s (diags: %+v)", result.Status, result.Diagnostics)
	}
	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}
	if len(result.Steps) != 1 {
		t.Fatalf("expected 1 step, got %d", len(result.Steps))
	}
	if got := strings.TrimSpace(result.Steps[0].Stdout); got != "hello world" {
		t.Errorf("expected merged env in stdout, got %q", got)
	}
}

func TestExecute_BeforeFailureSkipsMain(t *testing.T) {
	dir := t.TempDir()
	e := newTestExecutor(dir)

	job := &domain.Job{
		Name:         "j",
		BeforeScript: []string{"exit 3"},
		Script:       []string{"touch main-ran"},
		AfterScript:  []string{"touch after-ran"},
	}

	result := e.Execute(context.Background(), &domain.Pipeline{}, job, &testRunner)

	if result.Status != domain.JobStatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if result.ExitCode != 3 {
		t.Errorf("expected exit code 3, got %d", result.ExitCode)
	}

	// Основной script не выполнялся.
	if _, err := os.Stat(filepath.Join(dir, "main-ran")); !os.IsNotExist(err) {
		t.Error("main script must not run after before_script failure")
	}
	// after_script выполнялся.
	if _, err := os.Stat(filepath.Join(dir, "after-ran")); err != nil {
		t.Error("after_script must run even after before_script failure")
	}

	if !result.HasDiagnostic(domain.DiagStepFailure) {
		t.Errorf("expected StepExecutionFailure diagnostic, got %+v", result.Diagnostics)
	}
}

func TestExecute_MainFailureAbortsRemaining(t *testing.T) {
	dir := t.TempDir()
	e := newTestExecutor(dir)

	job := &domain.Job{
		Name:        "j",
		Script:      []string{"touch first", "exit 1", "touch third"},
		AfterScript: []string{"touch after-ran"},
	}

	result := e.Execute(context.Background(), &domain.Pipeline{}, job, &testRunner)

	if result.Status != domain.JobStatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}

	if _, err := os.Stat(filepath.Join(dir, "first")); err != nil {
		t.Error("first step should have run")
	}
	if _, err := os.Stat(filepath.Join(dir, "third")); !os.IsNotExist(err) {
		t.Error("steps after a failure must not run")
	}
	if _, err := os.Stat(filepath.Join(dir, "after-ran")); err != nil {
		t.Error("after_script must run after main failure")
	}

	// Записаны только выполненные шаги: first, exit 1, after.
	if len(result.Steps) != 3 {
		t.Errorf("expected 3 recorded steps, got %d", len(result.Steps))
	}
}

func TestExecute_AfterFailureKeepsSuccess(t *testing.T) {
	e := newTestExecutor(t.TempDir())

	job := &domain.Job{
		Name:        "j",
		Script:      []string{"true"},
		AfterScript: []string{"exit 7"},
	}

	result := e.Execute(context.Background(), &domain.Pipeline{}, job, &testRunner)

	if result.Status != domain.JobStatusSuccess {
		t.Fatalf("after_script failure must not flip SUCCESS, got %s", result.Status)
	}
	if result.ExitCode != 0 {
		t.Errorf("expected exit code 0, got %d", result.ExitCode)
	}
	if !result.HasDiagnostic(domain.DiagAfterScriptFailure) {
		t.Errorf("expected AfterScriptFailure diagnostic, got %+v", result.Diagnostics)
	}
}

func TestExecute_Artifacts(t *testing.T) {
	dir := t.TempDir()
	store := t.TempDir()

	e := New(Config{
		Commands:  NewShellRunner(dir),
		Publisher: artifact.NewFSPublisher(store, dir),
	})

	job := &domain.Job{
		Name:      "j",
		Script:    []string{"echo out > result.txt"},
		Artifacts: []string{"result.txt", "missing.bin"},
	}

	result := e.Execute(context.Background(), &domain.Pipeline{}, job, &testRunner)

	if result.Status != domain.JobStatusSuccess {
		t.Fatalf("expected SUCCESS, got %s", result.Status)
	}
	if len(result.Artifacts) != 1 {
		t.Fatalf("expected 1 published artifact, got %d", len(result.Artifacts))
	}
	if _, err := os.Stat(result.Artifacts[0]); err != nil {
		t.Errorf("published artifact missing: %v", err)
	}

	// Отсутствующий артефакт — диагностика, не падение.
	if !result.HasDiagnostic(domain.DiagArtifactMissing) {
		t.Errorf("expected ArtifactMissing diagnostic, got %+v", result.Diagnostics)
	}
}

func TestExecute_ArtifactsNotCollectedOnFailure(t *testing.T) {
	dir := t.TempDir()
	e := New(Config{
		Commands:  NewShellRunner(dir),
		Publisher: artifact.NewFSPublisher(t.TempDir(), dir),
	})

	job := &domain.Job{
		Name:      "j",
		Script:    []string{"echo out > result.txt", "exit 1"},
		Artifacts: []string{"result.txt"},
	}

	result := e.Execute(context.Background(), &domain.Pipeline{}, job, &testRunner)

	if result.Status != domain.JobStatusFailed {
		t.Fatalf("expected FAILED, got %s", result.Status)
	}
	if len(result.Artifacts) != 0 {
		t.Errorf("artifacts must not be collected for failed jobs, got %v", result.Artifacts)
	}
}

func TestExecute_Cancellation(t *testing.T) {
	e := newTestExecutor(t.TempDir())

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	job := &domain.Job{
		Name:   "slow",
		Script: []string{"sleep 10"},
	}

	started := time.Now()
	result := e.Execute(ctx, &domain.Pipeline{}, job, &testRunner)

	if time.Since(started) > 5*time.Second {
		t.Fatal("cancellation did not terminate the step process")
	}
	if result.Status != domain.JobStatusFailed {
		t.Fatalf("expected FAILED after cancellation, got %s", result.Status)
	}
	if !result.HasDiagnostic(domain.DiagCancelled) {
		t.Errorf("expected Cancelled diagnostic, got %+v", result.Diagnostics)
	}
}

func TestShellRunner_CapturesStreams(t *testing.T) {
	r := NewShellRunner(t.TempDir())

	out, err := r.Run(context.Background(), "echo to-out; echo to-err >&2", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strings.TrimSpace(out.Stdout) != "to-out" {
		t.Errorf("stdout: expected to-out, got %q", out.Stdout)
	}
	if strings.TrimSpace(out.Stderr) != "to-err" {
		t.Errorf("stderr: expected to-err, got %q", out.Stderr)
	}
}

func TestShellRunner_ExitCode(t *testing.T) {
	r := NewShellRunner(t.TempDir())

	out, err := r.Run(context.Background(), "exit 42", nil)
	if err != nil {
		t.Fatalf("non-zero exit is not an infrastructure error: %v", err)
	}
	if out.ExitCode != 42 {
		t.Errorf("expected exit code 42, got %d", out.ExitCode)
	}
}
