package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// StepOutput — результат одного вызова внешнего процесса.
type StepOutput struct {
	// ExitCode — код выхода процесса.
	ExitCode int

	// Stdout — захваченный stdout.
	Stdout string

	// Stderr — захваченный stderr.
	Stderr string
}

// CommandRunner — внешний коллаборатор выполнения команд.
//
// Команда непрозрачна для оркестратора: передаётся как есть вместе
// с объединённым окружением job. Вызов блокирующий — возврат
// происходит после завершения процесса.
//
// Ненулевой код выхода — не ошибка вызова: ошибки (error)
// зарезервированы за инфраструктурными сбоями (процесс не запустился,
// контекст отменён).
type CommandRunner interface {
	Run(ctx context.Context, command string, env map[string]string) (*StepOutput, error)
}

// ShellRunner выполняет команды через `sh -c`.
type ShellRunner struct {
	// Dir — рабочий каталог команд. Пусто — каталог процесса.
	Dir string

	// Shell — интерпретатор. По умолчанию "sh".
	Shell string
}

// NewShellRunner создаёт ShellRunner с рабочим каталогом dir.
func NewShellRunner(dir string) *ShellRunner {
	return &ShellRunner{Dir: dir, Shell: "sh"}
}

// Run выполняет одну команду и ждёт её завершения.
//
// Окружение процесса — окружение оркестратора, дополненное env
// (переменные pipeline и job перекрывают процессные).
// При отмене контекста дочерний процесс завершается,
// возвращается ErrCancelled.
func (r *ShellRunner) Run(ctx context.Context, command string, env map[string]string) (*StepOutput, error) {
	shell := r.Shell
	if shell == "" {
		shell = "sh"
	}

	cmd := exec.CommandContext(ctx, shell, "-c", command)
	cmd.Dir = r.Dir
	cmd.Env = mergeEnv(os.Environ(), env)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()

	out := &StepOutput{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err == nil {
		return out, nil
	}

	// Отмена контекста важнее кода выхода убитого процесса.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out, fmt.Errorf("%w: %v", ErrCancelled, ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out.ExitCode = exitErr.ExitCode()
		return out, nil
	}

	return out, fmt.Errorf("%w: %v", ErrSpawnFailed, err)
}

// mergeEnv накладывает overrides на базовое окружение формата KEY=VALUE.
func mergeEnv(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	merged := make([]string, len(base), len(base)+len(overrides))
	copy(merged, base)
	for k, v := range overrides {
		merged = append(merged, k+"="+v)
	}
	// При дубликатах ключей действует последнее значение —
	// так работает os/exec.
	return merged
}
