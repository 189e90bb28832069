package node

import (
	"context"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// Handler consumes one item. A returned error or a panic is reported as a
// fault and the item is dropped.
type Handler[T any] func(ctx context.Context, item T) error

// Processor is a sink: a bounded mailbox drained by one worker goroutine
// that calls the handler for every item in arrival order.
type Processor[T any] struct {
	*mailboxNode[T]
}

var _ flow.Node = (*Processor[int])(nil)
var _ flow.Input[int] = (*Processor[int])(nil)

func NewProcessor[T any](handler Handler[T], opts ...core.Option) *Processor[T] {
	p := &Processor[T]{mailboxNode: newMailboxNode[T]("processor", core.Apply(opts...))}
	p.engine = handler
	return p
}
