package lite

import (
	"context"
	"sync"

	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/node"
)

// Action runs fn for every item.
func Action[T any](fn func(ctx context.Context, item T), opts ...core.Option) *node.Processor[T] {
	return node.NewProcessor[T](func(ctx context.Context, item T) error {
		fn(ctx, item)
		return nil
	}, opts...)
}

// Discard drops every item.
func Discard[T any](opts ...core.Option) *node.Processor[T] {
	return node.NewProcessor[T](func(context.Context, T) error { return nil }, opts...)
}

// Collector is a sink that records every item it receives.
type Collector[T any] struct {
	*node.Processor[T]

	mu      sync.Mutex
	values  []T
	changed chan struct{}
}

func NewCollector[T any](opts ...core.Option) *Collector[T] {
	c := &Collector[T]{changed: make(chan struct{})}
	c.Processor = node.NewProcessor[T](c.record, opts...)
	return c
}

func (c *Collector[T]) record(_ context.Context, item T) error {
	c.mu.Lock()
	c.values = append(c.values, item)
	close(c.changed)
	c.changed = make(chan struct{})
	c.mu.Unlock()
	return nil
}

// Values returns a copy of the recorded items in arrival order.
func (c *Collector[T]) Values() []T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]T(nil), c.values...)
}

func (c *Collector[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.values)
}

// Reset forgets the recorded items.
func (c *Collector[T]) Reset() {
	c.mu.Lock()
	c.values = nil
	c.mu.Unlock()
}

// WaitFor blocks until at least n items were recorded and returns them. When
// ctx is done first it returns what was recorded so far with ctx's error.
func (c *Collector[T]) WaitFor(ctx context.Context, n int) ([]T, error) {
	for {
		c.mu.Lock()
		if len(c.values) >= n {
			values := append([]T(nil), c.values...)
			c.mu.Unlock()
			return values, nil
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-changed:
		case <-ctx.Done():
			return c.Values(), ctx.Err()
		}
	}
}
