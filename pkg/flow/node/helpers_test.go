package node

import (
	"context"
	"sync"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

type collected[T any] struct {
	mu    sync.Mutex
	items []T
}

func (c *collected[T]) add(item T) {
	c.mu.Lock()
	c.items = append(c.items, item)
	c.mu.Unlock()
}

func (c *collected[T]) Items() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.items...)
}

func (c *collected[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func newCollector[T any](opts ...core.Option) (*Processor[T], *collected[T]) {
	c := &collected[T]{}
	p := NewProcessor[T](func(_ context.Context, item T) error {
		c.add(item)
		return nil
	}, opts...)
	return p, c
}

func sliceGenerator[T any](values ...T) Generator[T] {
	i := 0
	return func(context.Context) (T, flow.Outcome, error) {
		var zero T
		if i >= len(values) {
			return zero, flow.OutcomeStop, nil
		}
		v := values[i]
		i++
		return v, flow.OutcomeProduce, nil
	}
}
