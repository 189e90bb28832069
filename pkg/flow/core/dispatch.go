package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// RetryPolicy bounds the fan-out retry loop. MaxAttempts counts the refused
// registrations per consumer and value; zero retries until delivery or until
// the dispatch context is done. Between two rounds over the refused consumers
// the dispatcher waits with exponential backoff.
type RetryPolicy struct {
	MaxAttempts  int           `mapstructure:"max_attempts" yaml:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay" yaml:"max_delay"`
	Multiplier   float64       `mapstructure:"multiplier" yaml:"multiplier"`
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  0,
		InitialDelay: time.Millisecond,
		MaxDelay:     50 * time.Millisecond,
		Multiplier:   2.0,
	}
}

func (p RetryPolicy) next(delay time.Duration) time.Duration {
	if p.Multiplier <= 1 {
		return delay
	}
	next := time.Duration(float64(delay) * p.Multiplier)
	if p.MaxDelay > 0 && next > p.MaxDelay {
		return p.MaxDelay
	}
	return next
}

// Dispatcher owns the attached-output list of a producer. Its mutex guards
// only the list; the fan-out runs on a snapshot.
type Dispatcher[T any] struct {
	owner  any
	policy RetryPolicy
	status *Status

	mu      sync.Mutex
	outputs []flow.Input[T]
}

// NewDispatcher creates the output list of owner; owner is used to reject
// self attachment.
func NewDispatcher[T any](owner any, policy RetryPolicy, status *Status) *Dispatcher[T] {
	return &Dispatcher[T]{
		owner:  owner,
		policy: policy,
		status: status,
	}
}

// Attach appends in to the output list.
func (d *Dispatcher[T]) Attach(in flow.Input[T]) error {
	if flow.IsNil(in) {
		return flow.ErrNilInput
	}
	if !flow.Comparable(in) {
		return flow.ErrNotComparable
	}
	if flow.Same(in, d.owner) {
		return flow.ErrSelfAttach
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, o := range d.outputs {
		if flow.Same(o, in) {
			return flow.ErrAlreadyAttached
		}
	}
	d.outputs = append(d.outputs, in)
	return nil
}

// Detach removes in and reports whether it was attached.
func (d *Dispatcher[T]) Detach(in flow.Input[T]) bool {
	if flow.IsNil(in) || !flow.Comparable(in) {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for i, o := range d.outputs {
		if flow.Same(o, in) {
			d.outputs = append(d.outputs[:i], d.outputs[i+1:]...)
			return true
		}
	}
	return false
}

func (d *Dispatcher[T]) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.outputs)
}

// Snapshot copies the current output list.
func (d *Dispatcher[T]) Snapshot() []flow.Input[T] {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]flow.Input[T](nil), d.outputs...)
}

type pending[T any] struct {
	index    int
	in       flow.Input[T]
	attempts int
}

// Dispatch delivers item to every output attached at call time. A refused
// consumer goes to the back of the working queue and is tried again after
// the others. It returns the number of deliveries and an error wrapping
// flow.ErrDeliveryFailed for every consumer given up on, or ctx's error.
func (d *Dispatcher[T]) Dispatch(ctx context.Context, item T) (int, error) {
	snapshot := d.Snapshot()
	if len(snapshot) == 0 {
		return 0, nil
	}

	queue := make([]pending[T], len(snapshot))
	for i, in := range snapshot {
		queue[i] = pending[T]{index: i, in: in}
	}

	var (
		delivered int
		failures  []error
		delay     = d.policy.InitialDelay
	)

	for len(queue) > 0 {
		var refused []pending[T]

		for _, p := range queue {
			if p.in.RegisterInput(ctx, item) {
				delivered++
				continue
			}
			if err := ctx.Err(); err != nil {
				d.count(delivered)
				return delivered, err
			}

			p.attempts++
			if d.policy.MaxAttempts > 0 && p.attempts >= d.policy.MaxAttempts {
				d.failed()
				failures = append(failures, fmt.Errorf("%w: output %d of %d refused %d times",
					flow.ErrDeliveryFailed, p.index+1, len(snapshot), p.attempts))
				continue
			}
			d.retried()
			refused = append(refused, p)
		}

		queue = refused
		if len(queue) == 0 {
			break
		}

		if delay > 0 {
			if err := sleep(ctx, delay); err != nil {
				d.count(delivered)
				return delivered, err
			}
			delay = d.policy.next(delay)
		}
	}

	d.count(delivered)
	return delivered, errors.Join(failures...)
}

func (d *Dispatcher[T]) count(delivered int) {
	if d.status != nil {
		d.status.Dispatched(delivered)
	}
}

func (d *Dispatcher[T]) retried() {
	if d.status != nil {
		d.status.DeliveryRetried()
	}
}

func (d *Dispatcher[T]) failed() {
	if d.status != nil {
		d.status.DeliveryFailed()
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
