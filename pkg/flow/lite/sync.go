package lite

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"

	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/node"
)

// Event is a manual reset event. Once Set, every Wait returns until Reset.
type Event struct {
	mu    sync.Mutex
	isSet bool
	set   chan struct{}
}

func NewEvent() *Event {
	return &Event{set: make(chan struct{})}
}

func (e *Event) Set() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.isSet {
		e.isSet = true
		close(e.set)
	}
}

func (e *Event) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.isSet {
		e.isSet = false
		e.set = make(chan struct{})
	}
}

func (e *Event) IsSet() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.isSet
}

// Wait blocks until the event is set or ctx is done.
func (e *Event) Wait(ctx context.Context) error {
	e.mu.Lock()
	set := e.set
	e.mu.Unlock()

	select {
	case <-set:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func passthrough[T any](before func(ctx context.Context, in T) error, opts []core.Option) *node.Filter[T, T] {
	return node.NewFilter[T, T](func(ctx context.Context, in T) (T, bool, error) {
		if err := before(ctx, in); err != nil {
			return in, false, err
		}
		return in, true, nil
	}, opts...)
}

// Tap runs fn for every item and passes the item on.
func Tap[T any](fn func(ctx context.Context, in T), opts ...core.Option) *node.Filter[T, T] {
	return passthrough(func(ctx context.Context, in T) error {
		fn(ctx, in)
		return nil
	}, opts)
}

// WaitEvent holds every item until ev is set. Closing the filter while it
// waits drops the item with the context error as fault.
func WaitEvent[T any](ev *Event, opts ...core.Option) *node.Filter[T, T] {
	return passthrough(func(ctx context.Context, _ T) error {
		return ev.Wait(ctx)
	}, opts)
}

// SetEvent sets ev for every item it passes on.
func SetEvent[T any](ev *Event, opts ...core.Option) *node.Filter[T, T] {
	return passthrough(func(context.Context, T) error {
		ev.Set()
		return nil
	}, opts)
}

// ResetEvent resets ev for every item it passes on.
func ResetEvent[T any](ev *Event, opts ...core.Option) *node.Filter[T, T] {
	return passthrough(func(context.Context, T) error {
		ev.Reset()
		return nil
	}, opts)
}

// AcquireSemaphore takes n units of sem before passing each item on.
func AcquireSemaphore[T any](sem *semaphore.Weighted, n int64, opts ...core.Option) *node.Filter[T, T] {
	return passthrough(func(ctx context.Context, _ T) error {
		return sem.Acquire(ctx, n)
	}, opts)
}

// ReleaseSemaphore gives n units back to sem for every item it passes on.
// Releasing more than was acquired panics inside sem and is reported as a
// fault.
func ReleaseSemaphore[T any](sem *semaphore.Weighted, n int64, opts ...core.Option) *node.Filter[T, T] {
	return passthrough(func(context.Context, T) error {
		sem.Release(n)
		return nil
	}, opts)
}
