package engine

import (
	"errors"
	"testing"

	"github.com/shaiso/Conveyor/internal/domain"
)

const validDefinition = `
name: demo
variables:
  GLOBAL: "1"
stages:
  - build
  - test
  - distribute
templates:
  setup:
    - echo setup-one
    - echo setup-two
jobs:
  build:package:
    stage: build
    tags: [nix]
    before_script: ["@setup"]
    script:
      - echo building
    artifacts:
      - result/
  test:pytest:
    stage: test
    script:
      - echo testing
    variables:
      LOCAL: "2"
  distribute:push:
    stage: distribute
    requires_env: [AUTH_TOKEN]
    script:
      - echo pushing
`

func TestParse_Valid(t *testing.T) {
	p, err := Parse([]byte(validDefinition))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.Name != "demo" {
		t.Errorf("expected name demo, got %q", p.Name)
	}

	wantStages := []string{"build", "test", "distribute"}
	if len(p.Stages) != len(wantStages) {
		t.Fatalf("expected %d stages, got %d", len(wantStages), len(p.Stages))
	}
	for i, s := range wantStages {
		if p.Stages[i] != s {
			t.Errorf("stage %d: expected %s, got %s", i, s, p.Stages[i])
		}
	}

	if len(p.Jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(p.Jobs))
	}

	// Порядок jobs — порядок объявления в документе.
	wantOrder := []string{"build:package", "test:pytest", "distribute:push"}
	for i, name := range wantOrder {
		if p.Jobs[i].Name != name {
			t.Errorf("job %d: expected %s, got %s", i, name, p.Jobs[i].Name)
		}
	}

	build := p.Job("build:package")
	if build == nil {
		t.Fatal("job build:package not found")
	}
	if build.Stage != "build" {
		t.Errorf("expected stage build, got %s", build.Stage)
	}
	if len(build.Tags) != 1 || build.Tags[0] != "nix" {
		t.Errorf("expected tags [nix], got %v", build.Tags)
	}
	if len(build.Artifacts) != 1 || build.Artifacts[0] != "result/" {
		t.Errorf("expected artifacts [result/], got %v", build.Artifacts)
	}
}

func TestParse_TemplateExpansion(t *testing.T) {
	p, err := Parse([]byte(validDefinition))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	build := p.Job("build:package")
	want := []string{"echo setup-one", "echo setup-two"}
	if len(build.BeforeScript) != len(want) {
		t.Fatalf("expected %d before_script steps, got %d", len(want), len(build.BeforeScript))
	}
	for i, cmd := range want {
		if build.BeforeScript[i] != cmd {
			t.Errorf("before_script[%d]: expected %q, got %q", i, cmd, build.BeforeScript[i])
		}
	}
}

func TestParse_TemplateInMiddle(t *testing.T) {
	def := `
stages: [build]
templates:
  mid:
    - echo b
jobs:
  j:
    stage: build
    script:
      - echo a
      - "@mid"
      - echo c
`
	p, err := Parse([]byte(def))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{"echo a", "echo b", "echo c"}
	job := p.Job("j")
	if len(job.Script) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(job.Script))
	}
	for i, cmd := range want {
		if job.Script[i] != cmd {
			t.Errorf("script[%d]: expected %q, got %q", i, cmd, job.Script[i])
		}
	}
}

func TestParse_UnknownTemplate(t *testing.T) {
	def := `
stages: [build]
jobs:
  j:
    stage: build
    script: ["@nope"]
`
	_, err := Parse([]byte(def))
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrUnknownTemplate) {
		t.Errorf("expected ErrUnknownTemplate, got %v", err)
	}
	if !errors.Is(err, ErrMalformedDefinition) {
		t.Errorf("error should belong to ErrMalformedDefinition class, got %v", err)
	}

	var dErr *DefinitionError
	if !errors.As(err, &dErr) {
		t.Fatalf("expected DefinitionError, got %T", err)
	}
	if dErr.Job != "j" {
		t.Errorf("expected job j in error, got %q", dErr.Job)
	}
}

func TestParse_YAMLAnchors(t *testing.T) {
	// Нативные якоря разрешает сам yaml-парсер.
	def := `
stages: [build, test]
templates:
  common: &common
    - echo shared
jobs:
  a:
    stage: build
    script: *common
  b:
    stage: test
    script: *common
`
	p, err := Parse([]byte(def))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{"a", "b"} {
		job := p.Job(name)
		if len(job.Script) != 1 || job.Script[0] != "echo shared" {
			t.Errorf("job %s: expected [echo shared], got %v", name, job.Script)
		}
	}
}

func TestParse_Malformed(t *testing.T) {
	tests := []struct {
		name string
		def  string
		want error
	}{
		{
			name: "not yaml",
			def:  "{{{{",
			want: ErrBadDocument,
		},
		{
			name: "no stages",
			def: `
jobs:
  j:
    stage: build
    script: [ok]
`,
			want: ErrNoStages,
		},
		{
			name: "duplicate stage",
			def: `
stages: [build, build]
jobs:
  j:
    stage: build
    script: [ok]
`,
			want: ErrDuplicateStage,
		},
		{
			name: "no jobs",
			def:  "stages: [build]",
			want: ErrNoJobs,
		},
		{
			name: "undeclared stage",
			def: `
stages: [build]
jobs:
  j:
    stage: deploy
    script: [ok]
`,
			want: ErrUnknownStage,
		},
		{
			name: "missing script",
			def: `
stages: [build]
jobs:
  j:
    stage: build
`,
			want: ErrEmptyScript,
		},
		{
			name: "empty script list",
			def: `
stages: [build]
jobs:
  j:
    stage: build
    script: []
`,
			want: ErrEmptyScript,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.def))
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
			if !errors.Is(err, ErrMalformedDefinition) {
				t.Errorf("error should belong to ErrMalformedDefinition class, got %v", err)
			}
		})
	}
}

func TestParse_DisabledJob(t *testing.T) {
	def := `
stages: [build]
jobs:
  included:
    stage: build
    script: [ok]
  excluded:
    stage: build
    enabled: false
    script: [ok]
`
	p, err := Parse([]byte(def))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !p.Job("included").IsEnabled() {
		t.Error("job without enabled flag should be enabled")
	}
	if p.Job("excluded").IsEnabled() {
		t.Error("job with enabled: false should be disabled")
	}
}

func TestJob_Env(t *testing.T) {
	job := &domain.Job{
		Variables: map[string]string{"A": "job", "B": "job"},
	}
	env := job.Env(map[string]string{"A": "pipeline", "C": "pipeline"})

	if env["A"] != "job" {
		t.Errorf("job variable should override pipeline variable, got %q", env["A"])
	}
	if env["B"] != "job" || env["C"] != "pipeline" {
		t.Errorf("unexpected merged env: %v", env)
	}
}
