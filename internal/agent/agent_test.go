package agent

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/executor"
	"github.com/shaiso/Conveyor/internal/mq"
)

// recordingRunner считает выполненные команды.
type recordingRunner struct {
	mu       sync.Mutex
	commands []string
}

func (r *recordingRunner) Run(_ context.Context, command string, _ map[string]string) (*executor.StepOutput, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands = append(r.commands, command)
	return &executor.StepOutput{}, nil
}

func assignmentDelivery(t *testing.T, assignment mq.JobAssignment) *mq.Delivery {
	t.Helper()
	return &mq.Delivery{
		Message: mq.Message{
			ID:      uuid.New().String(),
			Type:    mq.MessageTypeJobReady,
			Payload: assignment,
		},
	}
}

// Назначение с тегами, которые runner агента не покрывает,
// не должно доходить до executor'а.
func TestHandleAssignment_TagMismatchNotExecuted(t *testing.T) {
	commands := &recordingRunner{}
	a := New(Config{
		Runner:   domain.Runner{Name: "cpu-agent", Tags: []string{"linux"}},
		Executor: executor.New(executor.Config{Commands: commands}),
	})

	assignment := mq.JobAssignment{
		ExecutionID: uuid.New(),
		Job: domain.Job{
			Name:   "train",
			Tags:   []string{"gpu"},
			Script: []string{"python train.py"},
		},
	}

	// Ошибка ack/nack на синтетической доставке не важна: проверяем,
	// что до выполнения команд дело не дошло.
	_ = a.handleAssignment(context.Background(), assignmentDelivery(t, assignment))

	commands.mu.Lock()
	defer commands.mu.Unlock()
	if len(commands.commands) != 0 {
		t.Errorf("mismatched assignment must not execute, ran %v", commands.commands)
	}
}

func TestHandleAssignment_MalformedPayload(t *testing.T) {
	commands := &recordingRunner{}
	a := New(Config{
		Runner:   domain.Runner{Name: "agent"},
		Executor: executor.New(executor.Config{Commands: commands}),
	})

	delivery := &mq.Delivery{
		Message: mq.Message{
			ID:      uuid.New().String(),
			Type:    mq.MessageTypeJobReady,
			Payload: "not an assignment",
		},
	}

	_ = a.handleAssignment(context.Background(), delivery)

	commands.mu.Lock()
	defer commands.mu.Unlock()
	if len(commands.commands) != 0 {
		t.Errorf("malformed assignment must not execute, ran %v", commands.commands)
	}
}
