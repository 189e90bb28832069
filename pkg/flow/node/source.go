package node

import (
	"context"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// Generator is asked for the next value. OutcomeIdle makes the source wait
// before asking again; OutcomeStop ends production. An error is reported as
// a fault and treated as OutcomeIdle.
type Generator[T any] func(ctx context.Context) (T, flow.Outcome, error)

// Source runs two goroutines: the producer calls the generator and queues
// values in the output mailbox, the dispatcher drains that mailbox and fans
// every value out to the attached inputs.
type Source[T any] struct {
	status    *core.Status
	runner    *core.Runner
	queue     *core.Mailbox[T]
	outputs   *core.Dispatcher[T]
	generate  Generator[T]
	idleDelay time.Duration
}

var _ flow.Node = (*Source[int])(nil)
var _ flow.Output[int] = (*Source[int])(nil)

func NewSource[T any](generate Generator[T], opts ...core.Option) *Source[T] {
	o := core.Apply(opts...)
	return newSource("source", generate, o, o.IdleDelay)
}

func newSource[T any](kind string, generate Generator[T], o core.Options, idleDelay time.Duration) *Source[T] {
	s := &Source[T]{
		status:    core.NewStatus(kind, o),
		runner:    core.NewRunner(o.CloseTimeout),
		queue:     core.NewMailbox[T](o.OutputCapacity, 0),
		generate:  generate,
		idleDelay: idleDelay,
	}
	s.outputs = core.NewDispatcher[T](s, o.Retry, s.status)
	return s
}

func (s *Source[T]) ID() uuid.UUID {
	return s.status.ID()
}

func (s *Source[T]) Name() string {
	return s.status.Name()
}

func (s *Source[T]) Tag() any {
	return s.status.Tag()
}

func (s *Source[T]) SetTag(tag any) {
	s.status.SetTag(tag)
}

func (s *Source[T]) State() flow.ProcessingState {
	return s.status.State()
}

func (s *Source[T]) Stats() core.Stats {
	return s.status.Stats()
}

// OutputQueueLength returns the capacity of the output queue.
func (s *Source[T]) OutputQueueLength() int {
	return s.queue.Capacity()
}

func (s *Source[T]) OutputCount() int {
	return s.outputs.Count()
}

func (s *Source[T]) AttachOutput(in flow.Input[T]) error {
	return s.outputs.Attach(in)
}

func (s *Source[T]) DetachOutput(in flow.Input[T]) bool {
	return s.outputs.Detach(in)
}

func (s *Source[T]) StartProcessing() {
	if s.runner.Start(s.produce, s.dispatch) {
		s.status.Logger().Debug("started")
	}
}

func (s *Source[T]) StopProcessing() {
	if s.runner.Stop() {
		s.queue.Wake()
		s.status.Logger().Debug("stopping")
	}
}

func (s *Source[T]) Close() error {
	err := s.runner.Close()
	dropped := s.queue.Close()
	s.status.Metrics().QueueDepth(0)
	if err != nil {
		s.status.Logger().Warn("workers did not stop", "error", err)
	}
	s.status.Logger().Debug("closed", "dropped", dropped)
	return err
}

func (s *Source[T]) produce(_ context.Context, stop <-chan struct{}) error {
	ctx := s.runner.StopContext()

	for !core.Stopped(stop) {
		var (
			value   T
			outcome flow.Outcome
		)
		err := flow.Guard(func() error {
			var err error
			value, outcome, err = s.generate(ctx)
			return err
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.status.Fail(ctx, err, nil)
			outcome = flow.OutcomeIdle
		}

		switch outcome {
		case flow.OutcomeStop:
			s.status.Logger().Debug("generator finished")
			return nil
		case flow.OutcomeIdle:
			if !s.idle(stop) {
				return nil
			}
		default:
			if err := s.queue.Push(ctx, value); err != nil {
				return nil
			}
			s.status.Produced()
			s.status.Metrics().QueueDepth(s.queue.Len())
		}
	}
	return nil
}

// idle waits for the idle delay and reports false when stop was closed
// meanwhile.
func (s *Source[T]) idle(stop <-chan struct{}) bool {
	if s.idleDelay <= 0 {
		runtime.Gosched()
		return !core.Stopped(stop)
	}

	timer := time.NewTimer(s.idleDelay)
	defer timer.Stop()

	select {
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

func (s *Source[T]) dispatch(ctx context.Context, stop <-chan struct{}) error {
	defer s.status.Set(ctx, flow.StateStopped)

	for {
		if core.Stopped(stop) {
			return nil
		}

		s.status.Set(ctx, flow.StateIdle)
		select {
		case <-stop:
			return nil
		case <-s.queue.Signal():
		}

		// at most Capacity values wait in the queue plus the one in delivery
		for {
			if core.Stopped(stop) {
				s.status.Logger().Debug("dispatch interrupted", "queued", s.queue.Len())
				break
			}
			value, ok := s.queue.Pop()
			if !ok {
				break
			}
			s.status.Metrics().QueueDepth(s.queue.Len())
			s.status.Set(ctx, flow.StateDispatching)
			_ = s.status.Handle(ctx, value, func() error {
				_, err := s.outputs.Dispatch(ctx, value)
				return err
			})
		}
	}
}
