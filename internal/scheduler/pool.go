package scheduler

import (
	"context"
	"sync"

	"github.com/shaiso/Conveyor/internal/domain"
)

// Pool — пул runner'ов с эксклюзивным захватом.
//
// Runner — mutual-exclusion ресурс: один job на runner в каждый
// момент времени. Acquire блокируется, пока не освободится runner,
// покрывающий требуемые теги, либо пока не отменён контекст.
type Pool struct {
	mu      sync.Mutex
	runners []domain.Runner
	busy    []bool
	wake    chan struct{}
	closed  bool
}

// NewPool создаёт пул из данных runner'ов.
func NewPool(runners []domain.Runner) *Pool {
	return &Pool{
		runners: runners,
		busy:    make([]bool, len(runners)),
		wake:    make(chan struct{}),
	}
}

// Acquire захватывает свободный runner, покрывающий требуемые теги.
//
// Блокируется до освобождения подходящего runner'а. Вызывающий
// обязан проверить выполнимость тегов на этапе планирования:
// Acquire с невыполнимыми тегами блокируется до отмены контекста.
func (p *Pool) Acquire(ctx context.Context, required []string) (*domain.Runner, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, ErrPoolClosed
		}

		for i := range p.runners {
			if p.busy[i] || !p.runners[i].Satisfies(required) {
				continue
			}
			p.busy[i] = true
			runner := &p.runners[i]
			p.mu.Unlock()
			return runner, nil
		}

		// Подходящего свободного runner'а нет — ждём освобождения.
		wake := p.wake
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-wake:
		}
	}
}

// Release освобождает ранее захваченный runner и будит всех
// ожидающих в Acquire.
func (p *Pool) Release(runner *domain.Runner) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i := range p.runners {
		if &p.runners[i] != runner {
			continue
		}
		if !p.busy[i] {
			return ErrRunnerNotOwned
		}
		p.busy[i] = false
		p.broadcast()
		return nil
	}
	return ErrRunnerNotOwned
}

// Close закрывает пул: все ожидающие Acquire получают ErrPoolClosed.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.broadcast()
}

// broadcast будит всех ожидающих. Вызывается под мьютексом.
func (p *Pool) broadcast() {
	close(p.wake)
	p.wake = make(chan struct{})
}

// Size возвращает количество runner'ов в пуле.
func (p *Pool) Size() int {
	return len(p.runners)
}

// FreeCount возвращает количество свободных runner'ов.
func (p *Pool) FreeCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()

	free := 0
	for _, b := range p.busy {
		if !b {
			free++
		}
	}
	return free
}
