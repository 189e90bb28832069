package lite

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
	"github.com/ib-77/flowgraph/pkg/flow/node"
)

// emitterWait bounds a single wait of an Emitter for new values.
const emitterWait = time.Second

// Constant produces value count times, or forever when count is zero or less.
func Constant[T any](value T, count int, opts ...core.Option) *node.Source[T] {
	produced := 0
	return node.NewSource[T](func(context.Context) (T, flow.Outcome, error) {
		if count > 0 && produced >= count {
			return value, flow.OutcomeStop, nil
		}
		produced++
		return value, flow.OutcomeProduce, nil
	}, opts...)
}

// FromSlice produces the values in order and stops.
func FromSlice[T any](values []T, opts ...core.Option) *node.Source[T] {
	values = append([]T(nil), values...)
	i := 0
	return node.NewSource[T](func(context.Context) (T, flow.Outcome, error) {
		var zero T
		if i >= len(values) {
			return zero, flow.OutcomeStop, nil
		}
		v := values[i]
		values[i] = zero
		i++
		return v, flow.OutcomeProduce, nil
	}, opts...)
}

// FromChan produces every value received from ch and stops once ch is closed.
func FromChan[T any](ch <-chan T, opts ...core.Option) *node.Source[T] {
	return node.NewSource[T](func(ctx context.Context) (T, flow.Outcome, error) {
		var zero T
		select {
		case v, ok := <-ch:
			if !ok {
				return zero, flow.OutcomeStop, nil
			}
			return v, flow.OutcomeProduce, nil
		case <-ctx.Done():
			return zero, flow.OutcomeStop, nil
		}
	}, opts...)
}

// Random produces count pseudo random integers in [lo, hi), or forever when
// count is zero or less.
func Random(lo, hi, count int, opts ...core.Option) *node.Source[int] {
	if hi <= lo {
		hi = lo + 1
	}
	produced := 0
	return node.NewSource[int](func(context.Context) (int, flow.Outcome, error) {
		if count > 0 && produced >= count {
			return 0, flow.OutcomeStop, nil
		}
		produced++
		return lo + rand.IntN(hi-lo), flow.OutcomeProduce, nil
	}, opts...)
}

// RandomFloat produces count pseudo random floats in [lo, hi), or forever
// when count is zero or less.
func RandomFloat(lo, hi float64, count int, opts ...core.Option) *node.Source[float64] {
	produced := 0
	return node.NewSource[float64](func(context.Context) (float64, flow.Outcome, error) {
		if count > 0 && produced >= count {
			return 0, flow.OutcomeStop, nil
		}
		produced++
		return lo + rand.Float64()*(hi-lo), flow.OutcomeProduce, nil
	}, opts...)
}

// Emitter is a source fed by Emit. Values are produced in the order they
// were emitted once the source is started.
type Emitter[T any] struct {
	*node.Source[T]

	mu      sync.Mutex
	queue   []T
	starter chan struct{}
}

func NewEmitter[T any](opts ...core.Option) *Emitter[T] {
	e := &Emitter[T]{starter: make(chan struct{}, 1)}
	e.Source = node.NewSource[T](e.next, core.With(opts, core.WithIdleDelay(0))...)
	return e
}

// Emit queues value for production.
func (e *Emitter[T]) Emit(values ...T) {
	e.mu.Lock()
	e.queue = append(e.queue, values...)
	e.mu.Unlock()

	select {
	case e.starter <- struct{}{}:
	default:
	}
}

// Backlog returns the number of emitted values not produced yet.
func (e *Emitter[T]) Backlog() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

func (e *Emitter[T]) next(ctx context.Context) (T, flow.Outcome, error) {
	var zero T

	e.mu.Lock()
	if len(e.queue) > 0 {
		v := e.queue[0]
		e.queue[0] = zero
		e.queue = e.queue[1:]
		e.mu.Unlock()
		return v, flow.OutcomeProduce, nil
	}
	e.mu.Unlock()

	timer := time.NewTimer(emitterWait)
	defer timer.Stop()

	select {
	case <-e.starter:
	case <-timer.C:
	case <-ctx.Done():
	}
	return zero, flow.OutcomeIdle, nil
}
