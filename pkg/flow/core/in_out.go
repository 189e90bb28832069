package core

import (
	"context"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// FeedHandlers observe a Feed. OnStartFail gets every value when ctx was
// already done, OnBreak the values left after a refusal.
type FeedHandlers[T any] struct {
	OnStartFail func(ctx context.Context, input []T)
	OnSuccess   func(ctx context.Context, input T)
	OnBreak     func(ctx context.Context, rest []T)
}

// Feed registers values with in one after another and returns how many were
// accepted. It stops at the first refusal.
func Feed[T any](ctx context.Context, in flow.Input[T], values ...T) int {
	return FeedWithHandlers(ctx, in, FeedHandlers[T]{}, values...)
}

func FeedWithHandlers[T any](ctx context.Context, in flow.Input[T], handlers FeedHandlers[T], values ...T) int {
	if ctx.Err() != nil {
		if handlers.OnStartFail != nil {
			handlers.OnStartFail(ctx, values)
		}
		return 0
	}

	for i, v := range values {
		if ctx.Err() != nil || !in.RegisterInput(ctx, v) {
			if handlers.OnBreak != nil {
				handlers.OnBreak(ctx, values[i:])
			}
			return i
		}
		if handlers.OnSuccess != nil {
			handlers.OnSuccess(ctx, v)
		}
	}
	return len(values)
}
