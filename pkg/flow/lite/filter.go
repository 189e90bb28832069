package lite

import (
	"context"

	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/node"
)

// Map keeps every result of fn.
func Map[In, Out any](fn func(ctx context.Context, in In) Out, opts ...core.Option) *node.Filter[In, Out] {
	return node.NewFilter[In, Out](func(ctx context.Context, in In) (Out, bool, error) {
		return fn(ctx, in), true, nil
	}, opts...)
}

// Try keeps the result of fn unless it returns an error, which is reported
// as a fault.
func Try[In, Out any](fn func(ctx context.Context, in In) (Out, error), opts ...core.Option) *node.Filter[In, Out] {
	return node.NewFilter[In, Out](func(ctx context.Context, in In) (Out, bool, error) {
		out, err := fn(ctx, in)
		if err != nil {
			return out, false, err
		}
		return out, true, nil
	}, opts...)
}

// Guard passes an item on only when pass reports true.
func Guard[T any](pass func(ctx context.Context, in T) bool, opts ...core.Option) *node.Filter[T, T] {
	return node.NewFilter[T, T](func(ctx context.Context, in T) (T, bool, error) {
		return in, pass(ctx, in), nil
	}, opts...)
}

func Passthrough[T any](opts ...core.Option) *node.Filter[T, T] {
	return node.NewFilter[T, T](func(_ context.Context, in T) (T, bool, error) {
		return in, true, nil
	}, opts...)
}
