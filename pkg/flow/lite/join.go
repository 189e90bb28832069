package lite

import (
	"context"

	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/node"
)

// Combine keeps every result of fn over the Nth pair of inputs.
func Combine[A, B, Out any](fn func(ctx context.Context, a A, b B) Out, opts ...core.Option) *node.Join[A, B, Out] {
	return node.NewJoin[A, B, Out](func(ctx context.Context, a A, b B) (Out, bool, error) {
		return fn(ctx, a, b), true, nil
	}, opts...)
}
