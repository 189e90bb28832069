// Package tee provides a synchronous multicast: every item handed to a Tee
// is processed by each attached child on the caller's goroutine.
package tee

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// Tee has no queue and no worker. Children run in registration order under
// the child-list lock, so a child must not attach to or remove from the same
// Tee while it is processing.
type Tee[T any] struct {
	status *core.Status

	mu       sync.Mutex
	children []flow.Sink[T]
}

var _ flow.Sink[int] = (*Tee[int])(nil)
var _ flow.Input[int] = (*Tee[int])(nil)
var _ flow.Indicator = (*Tee[int])(nil)

func New[T any](opts ...core.Option) *Tee[T] {
	t := &Tee[T]{status: core.NewStatus("tee", core.Apply(opts...))}
	t.status.Set(context.Background(), flow.StateIdle)
	return t
}

func (t *Tee[T]) ID() uuid.UUID {
	return t.status.ID()
}

func (t *Tee[T]) Tag() any {
	return t.status.Tag()
}

func (t *Tee[T]) SetTag(tag any) {
	t.status.SetTag(tag)
}

func (t *Tee[T]) State() flow.ProcessingState {
	return t.status.State()
}

func (t *Tee[T]) Stats() core.Stats {
	return t.status.Stats()
}

// Attach appends child to the list.
func (t *Tee[T]) Attach(child flow.Sink[T]) error {
	if flow.IsNil(child) {
		return flow.ErrNilInput
	}
	if !flow.Comparable(child) {
		return flow.ErrNotComparable
	}
	if flow.Same(child, t) {
		return flow.ErrSelfAttach
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, c := range t.children {
		if flow.Same(c, child) {
			return flow.ErrAlreadyAttached
		}
	}
	t.children = append(t.children, child)
	return nil
}

// Remove detaches child and reports whether it was attached.
func (t *Tee[T]) Remove(child flow.Sink[T]) bool {
	if flow.IsNil(child) || !flow.Comparable(child) {
		return false
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for i, c := range t.children {
		if flow.Same(c, child) {
			t.children = append(t.children[:i], t.children[i+1:]...)
			return true
		}
	}
	return false
}

func (t *Tee[T]) Count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.children)
}

func (t *Tee[T]) Clear() {
	t.mu.Lock()
	t.children = nil
	t.mu.Unlock()
}

// Process hands item to every child. The first child error is returned
// right away and the remaining children are skipped. A child panic is not
// recovered.
func (t *Tee[T]) Process(ctx context.Context, item T) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.status.Set(ctx, flow.StateProcessing)
	defer t.status.Set(ctx, flow.StateIdle)

	for _, c := range t.children {
		if err := c.Process(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// InputQueueLength is zero: a Tee has no queue.
func (t *Tee[T]) InputQueueLength() int {
	return 0
}

// RegisterInput processes item at once. Child errors and panics are
// reported as faults; the item counts as accepted either way.
func (t *Tee[T]) RegisterInput(ctx context.Context, item T) bool {
	if ctx.Err() != nil {
		t.status.Rejected()
		return false
	}
	t.status.Registered()
	_ = t.status.Handle(ctx, item, func() error {
		return t.Process(ctx, item)
	})
	return true
}
