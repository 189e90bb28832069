package lite

import (
	"context"

	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/node"
)

func gate(op func(a, b bool) bool, opts []core.Option) *node.Join[bool, bool, bool] {
	return Combine(func(_ context.Context, a, b bool) bool { return op(a, b) }, opts...)
}

func And(opts ...core.Option) *node.Join[bool, bool, bool] {
	return gate(func(a, b bool) bool { return a && b }, opts)
}

func Or(opts ...core.Option) *node.Join[bool, bool, bool] {
	return gate(func(a, b bool) bool { return a || b }, opts)
}

func Xor(opts ...core.Option) *node.Join[bool, bool, bool] {
	return gate(func(a, b bool) bool { return a != b }, opts)
}

func Nand(opts ...core.Option) *node.Join[bool, bool, bool] {
	return gate(func(a, b bool) bool { return !(a && b) }, opts)
}

func Nor(opts ...core.Option) *node.Join[bool, bool, bool] {
	return gate(func(a, b bool) bool { return !(a || b) }, opts)
}

func Xnor(opts ...core.Option) *node.Join[bool, bool, bool] {
	return gate(func(a, b bool) bool { return a == b }, opts)
}

func Not(opts ...core.Option) *node.Filter[bool, bool] {
	return Map(func(_ context.Context, in bool) bool { return !in }, opts...)
}
