package flow

import (
	"context"
	"reflect"
	"runtime/debug"
)

func IsNil(i interface{}) bool {
	if i == nil || (reflect.ValueOf(i).Kind() == reflect.Ptr && reflect.ValueOf(i).IsNil()) {
		return true
	}
	return false
}

// Comparable reports whether i can be used with == without panicking.
func Comparable(i interface{}) bool {
	return i != nil && reflect.TypeOf(i).Comparable()
}

// Same reports whether a and b are the same graph element. Elements that
// expose an ID are compared by it, so a node and a type embedding it match.
func Same(a, b interface{}) bool {
	if IsNil(a) || IsNil(b) {
		return false
	}
	if ia, ok := a.(Indicator); ok {
		if ib, ok := b.(Indicator); ok {
			return ia.ID() == ib.ID()
		}
	}
	if !Comparable(a) || !Comparable(b) {
		return false
	}
	return a == b
}

// Guard runs fn and converts a panic into a *PanicError.
func Guard(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc[T any] func(ctx context.Context, item T) error

func (f SinkFunc[T]) Process(ctx context.Context, item T) error {
	return f(ctx, item)
}

type inputSink[T any] struct {
	in Input[T]
}

// InputSink exposes an Input as a Sink; a refused registration yields ErrRejected.
func InputSink[T any](in Input[T]) Sink[T] {
	return &inputSink[T]{in: in}
}

func (s *inputSink[T]) Process(ctx context.Context, item T) error {
	if !s.in.RegisterInput(ctx, item) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrRejected
	}
	return nil
}

type sinkInput[T any] struct {
	sink     Sink[T]
	capacity int
}

// SinkInput exposes a Sink as an Input. RegisterInput runs Process on the
// caller's goroutine and reports whether it succeeded.
func SinkInput[T any](sink Sink[T]) Input[T] {
	return &sinkInput[T]{sink: sink, capacity: 1}
}

func (s *sinkInput[T]) InputQueueLength() int {
	return s.capacity
}

func (s *sinkInput[T]) RegisterInput(ctx context.Context, item T) bool {
	if ctx.Err() != nil {
		return false
	}
	return Guard(func() error { return s.sink.Process(ctx, item) }) == nil
}
