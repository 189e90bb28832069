package threaded

import (
	"context"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// Wrapper hands every item to its target on a Scheduler. Errors and panics
// of the target are reported as faults of the wrapper.
type Wrapper[T any] struct {
	status    *core.Status
	target    flow.Sink[T]
	prepare   func(ctx context.Context, item T) error
	scheduler Scheduler
	nodeOpts  []core.Option
	inflight  atomic.Int64
}

var _ flow.Sink[int] = (*Wrapper[int])(nil)
var _ flow.Input[int] = (*Wrapper[int])(nil)
var _ flow.Indicator = (*Wrapper[int])(nil)

type Option[T any] func(*Wrapper[T])

// WithScheduler replaces the default GoScheduler.
func WithScheduler[T any](s Scheduler) Option[T] {
	return func(w *Wrapper[T]) {
		if s != nil {
			w.scheduler = s
		}
	}
}

// WithPrepare sets work that runs on the caller's goroutine before the
// target is scheduled. Its error is returned to the caller and the item is
// not scheduled.
func WithPrepare[T any](prepare func(ctx context.Context, item T) error) Option[T] {
	return func(w *Wrapper[T]) {
		w.prepare = prepare
	}
}

// WithNode passes name, tag, logger, metrics and observers to the wrapper.
func WithNode[T any](opts ...core.Option) Option[T] {
	return func(w *Wrapper[T]) {
		w.nodeOpts = append(w.nodeOpts, opts...)
	}
}

func Wrap[T any](target flow.Sink[T], opts ...Option[T]) *Wrapper[T] {
	w := &Wrapper[T]{
		target:    target,
		scheduler: &GoScheduler{},
	}
	for _, opt := range opts {
		opt(w)
	}
	w.status = core.NewStatus("threaded", core.Apply(w.nodeOpts...))
	w.status.Set(context.Background(), flow.StateIdle)
	return w
}

func (w *Wrapper[T]) ID() uuid.UUID {
	return w.status.ID()
}

func (w *Wrapper[T]) Tag() any {
	return w.status.Tag()
}

func (w *Wrapper[T]) SetTag(tag any) {
	w.status.SetTag(tag)
}

// State is StateProcessing while scheduled tasks are unfinished.
func (w *Wrapper[T]) State() flow.ProcessingState {
	if w.inflight.Load() > 0 {
		return flow.StateProcessing
	}
	return flow.StateIdle
}

// Pending returns the number of scheduled tasks that have not finished.
func (w *Wrapper[T]) Pending() int {
	return int(w.inflight.Load())
}

func (w *Wrapper[T]) Stats() core.Stats {
	return w.status.Stats()
}

// Process runs the preparation and schedules the target. It returns before
// the target ran.
func (w *Wrapper[T]) Process(ctx context.Context, item T) error {
	if w.prepare != nil {
		if err := flow.Guard(func() error { return w.prepare(ctx, item) }); err != nil {
			return err
		}
	}

	w.inflight.Add(1)
	err := w.scheduler.Schedule(context.WithoutCancel(ctx), func(taskCtx context.Context) error {
		defer w.inflight.Add(-1)
		return w.status.Handle(taskCtx, item, func() error {
			return w.target.Process(taskCtx, item)
		})
	})
	if err != nil {
		w.inflight.Add(-1)
		w.status.Rejected()
		w.status.Logger().Debug("task refused", "error", err)
		return err
	}
	w.status.Registered()
	return nil
}

// InputQueueLength returns the scheduler's queue size, or zero when the
// scheduler has none.
func (w *Wrapper[T]) InputQueueLength() int {
	if c, ok := w.scheduler.(interface{ Capacity() int }); ok {
		return c.Capacity()
	}
	return 0
}

// RegisterInput schedules item. It reports false only when the scheduler
// refused the task; a failing preparation is reported as a fault.
func (w *Wrapper[T]) RegisterInput(ctx context.Context, item T) bool {
	err := w.Process(ctx, item)
	if err == nil {
		return true
	}
	if refused(err) {
		return false
	}
	w.status.Fail(ctx, err, item)
	return true
}
