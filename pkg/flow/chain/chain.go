package chain

import (
	"github.com/ib-77/flowgraph/pkg/flow"
)

// Stage is a node that consumes T and produces U.
type Stage[T, U any] interface {
	flow.Input[T]
	flow.Output[U]
}

// Chain remembers the current tail of a linear wiring.
type Chain[T any] struct {
	group *Group
	tail  flow.Output[T]
	err   error
}

// From creates a chain whose tail is src.
func From[T any](src flow.Output[T]) *Chain[T] {
	return FromGroup(NewGroup(), src)
}

// FromGroup creates a chain that collects its nodes into g.
func FromGroup[T any](g *Group, src flow.Output[T]) *Chain[T] {
	c := &Chain[T]{group: g, tail: src}
	if flow.IsNil(src) {
		c.err = flow.ErrNilInput
		return c
	}
	c.group.addAny(src)
	return c
}

// Then attaches next to the tail of c and continues from next.
func Then[T, U any](c *Chain[T], next Stage[T, U]) *Chain[U] {
	out := &Chain[U]{group: c.group, err: c.err}
	if out.err != nil {
		return out
	}
	if flow.IsNil(next) {
		out.err = flow.ErrNilInput
		return out
	}
	if err := c.tail.AttachOutput(next); err != nil {
		out.err = err
		return out
	}
	c.group.addAny(next)
	out.tail = next
	return out
}

// To attaches every input to the tail of c.
func (c *Chain[T]) To(inputs ...flow.Input[T]) *Chain[T] {
	if c.err != nil {
		return c
	}
	for _, in := range inputs {
		if err := c.tail.AttachOutput(in); err != nil {
			c.err = err
			return c
		}
		c.group.addAny(in)
	}
	return c
}

// Err returns the first wiring error.
func (c *Chain[T]) Err() error {
	return c.err
}

// Tail returns the producer the chain currently ends at.
func (c *Chain[T]) Tail() flow.Output[T] {
	return c.tail
}

func (c *Chain[T]) Group() *Group {
	return c.group
}
