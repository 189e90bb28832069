package node

import (
	"context"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// Transform maps one input to one output. keep=false discards the item
// without dispatching it.
type Transform[In, Out any] func(ctx context.Context, in In) (out Out, keep bool, err error)

// Filter is a Processor whose handler transforms each item and fans the
// result out to every attached input.
type Filter[In, Out any] struct {
	*mailboxNode[In]
	transform Transform[In, Out]
	outputs   *core.Dispatcher[Out]
}

var _ flow.Node = (*Filter[int, int])(nil)
var _ flow.Input[int] = (*Filter[int, int])(nil)
var _ flow.Output[int] = (*Filter[int, int])(nil)

func NewFilter[In, Out any](transform Transform[In, Out], opts ...core.Option) *Filter[In, Out] {
	o := core.Apply(opts...)
	f := &Filter[In, Out]{
		mailboxNode: newMailboxNode[In]("filter", o),
		transform:   transform,
	}
	f.outputs = core.NewDispatcher[Out](f, o.Retry, f.status)
	f.engine = f.handle
	return f
}

func (f *Filter[In, Out]) handle(ctx context.Context, in In) error {
	out, keep, err := f.transform(ctx, in)
	if err != nil {
		return err
	}
	if !keep {
		f.status.Discarded()
		return nil
	}

	f.status.Set(ctx, flow.StateDispatching)
	_, err = f.outputs.Dispatch(ctx, out)
	return err
}

func (f *Filter[In, Out]) OutputCount() int {
	return f.outputs.Count()
}

func (f *Filter[In, Out]) AttachOutput(in flow.Input[Out]) error {
	return f.outputs.Attach(in)
}

func (f *Filter[In, Out]) DetachOutput(in flow.Input[Out]) bool {
	return f.outputs.Detach(in)
}
