package threaded

import (
	"context"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// Pulse is the item a SourceWrapper schedules per Trigger.
type Pulse struct{}

// SourceWrapper creates a value and hands it to its target on a Scheduler
// each time it is triggered. Failures of create or the target are faults of
// the wrapper.
type SourceWrapper[T any] struct {
	*Wrapper[Pulse]
}

func WrapSource[T any](create func(ctx context.Context) (T, error), target flow.Sink[T], opts ...Option[Pulse]) *SourceWrapper[T] {
	produce := flow.SinkFunc[Pulse](func(ctx context.Context, _ Pulse) error {
		v, err := create(ctx)
		if err != nil {
			return err
		}
		return target.Process(ctx, v)
	})
	return &SourceWrapper[T]{Wrapper: Wrap[Pulse](produce, opts...)}
}

// Trigger schedules one production and returns without waiting for it.
func (s *SourceWrapper[T]) Trigger(ctx context.Context) error {
	return s.Process(ctx, Pulse{})
}
