package node

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// Combiner merges one value of each side. keep=false discards the pair.
type Combiner[A, B, Out any] func(ctx context.Context, a A, b B) (out Out, keep bool, err error)

// Join pairs the Nth value arriving on Input1 with the Nth value arriving on
// Input2 and produces the combined value like a Source. Each input is a
// Processor that appends to its side's backing queue.
type Join[A, B, Out any] struct {
	*Source[Out]

	input1  *Processor[A]
	input2  *Processor[B]
	combine Combiner[A, B, Out]
	wait    time.Duration

	mu      sync.Mutex
	left    []A
	right   []B
	arrival chan struct{}
}

var _ flow.Node = (*Join[int, int, int])(nil)
var _ flow.Output[int] = (*Join[int, int, int])(nil)

func NewJoin[A, B, Out any](combine Combiner[A, B, Out], opts ...core.Option) *Join[A, B, Out] {
	o := core.Apply(opts...)
	j := &Join[A, B, Out]{
		combine: combine,
		wait:    o.IdleDelay,
		arrival: make(chan struct{}, 1),
	}
	j.Source = newSource("join", j.next, o, 0)

	j.input1 = NewProcessor[A](func(_ context.Context, a A) error {
		j.mu.Lock()
		j.left = append(j.left, a)
		j.mu.Unlock()
		j.arrived()
		return nil
	}, core.With(opts, core.WithName(j.Name()+".in1"))...)

	j.input2 = NewProcessor[B](func(_ context.Context, b B) error {
		j.mu.Lock()
		j.right = append(j.right, b)
		j.mu.Unlock()
		j.arrived()
		return nil
	}, core.With(opts, core.WithName(j.Name()+".in2"))...)

	return j
}

func (j *Join[A, B, Out]) Input1() *Processor[A] {
	return j.input1
}

func (j *Join[A, B, Out]) Input2() *Processor[B] {
	return j.input2
}

// Pending returns the number of unpaired values held on each side.
func (j *Join[A, B, Out]) Pending() (left, right int) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return len(j.left), len(j.right)
}

func (j *Join[A, B, Out]) StartProcessing() {
	j.input1.StartProcessing()
	j.input2.StartProcessing()
	j.Source.StartProcessing()
}

func (j *Join[A, B, Out]) StopProcessing() {
	j.input1.StopProcessing()
	j.input2.StopProcessing()
	j.Source.StopProcessing()
}

func (j *Join[A, B, Out]) Close() error {
	err := errors.Join(j.input1.Close(), j.input2.Close(), j.Source.Close())

	j.mu.Lock()
	j.left, j.right = nil, nil
	j.mu.Unlock()
	return err
}

func (j *Join[A, B, Out]) arrived() {
	select {
	case j.arrival <- struct{}{}:
	default:
	}
}

// take removes the oldest value of each side when both sides hold one.
func (j *Join[A, B, Out]) take() (a A, b B, ok bool) {
	j.mu.Lock()
	defer j.mu.Unlock()

	if len(j.left) == 0 || len(j.right) == 0 {
		return a, b, false
	}
	a, b = j.left[0], j.right[0]

	var zeroA A
	var zeroB B
	j.left[0], j.right[0] = zeroA, zeroB
	j.left, j.right = j.left[1:], j.right[1:]
	return a, b, true
}

func (j *Join[A, B, Out]) next(ctx context.Context) (Out, flow.Outcome, error) {
	var zero Out

	for {
		a, b, ok := j.take()
		if !ok {
			j.await(ctx)
			return zero, flow.OutcomeIdle, nil
		}

		out, keep, err := j.combine(ctx, a, b)
		if err != nil {
			return zero, flow.OutcomeIdle, err
		}
		if keep {
			return out, flow.OutcomeProduce, nil
		}
		j.status.Discarded()
	}
}

// await blocks until a value arrives on either side, the wait elapses or
// ctx is done.
func (j *Join[A, B, Out]) await(ctx context.Context) {
	if j.wait <= 0 {
		select {
		case <-j.arrival:
		case <-ctx.Done():
		}
		return
	}

	timer := time.NewTimer(j.wait)
	defer timer.Stop()

	select {
	case <-j.arrival:
	case <-timer.C:
	case <-ctx.Done():
	}
}
