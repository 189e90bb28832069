package threaded

import (
	"context"
	"errors"
	"sync"

	"github.com/ib-77/flowgraph/pkg/flow"
)

var (
	// ErrPoolNotStarted indicates the pool hasn't been started yet
	ErrPoolNotStarted = errors.New("scheduler pool not started")

	// ErrPoolAlreadyStarted indicates Start() was called on an already-started pool
	ErrPoolAlreadyStarted = errors.New("scheduler pool already started")
)

// Task is a unit of work run by a Scheduler.
type Task func(ctx context.Context) error

// Scheduler runs tasks independently of the caller. Schedule returns once
// the task was accepted or refused; it never waits for the task itself.
type Scheduler interface {
	Schedule(ctx context.Context, task Task) error
}

// GoScheduler runs every task on a goroutine of its own.
type GoScheduler struct {
	wg sync.WaitGroup
}

var _ Scheduler = (*GoScheduler)(nil)

func (s *GoScheduler) Schedule(ctx context.Context, task Task) error {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = flow.Guard(func() error { return task(ctx) })
	}()
	return nil
}

// Wait blocks until every scheduled task returned.
func (s *GoScheduler) Wait() {
	s.wg.Wait()
}

// refused reports whether err means the scheduler did not take the task.
func refused(err error) bool {
	return errors.Is(err, flow.ErrQueueFull) ||
		errors.Is(err, flow.ErrPoolStopped) ||
		errors.Is(err, ErrPoolNotStarted)
}
