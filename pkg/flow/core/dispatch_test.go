package core

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// recorder accepts items after refusing the first `refuse` registrations.
type recorder[T any] struct {
	mu     sync.Mutex
	refuse int
	calls  int
	items  []T
}

func (r *recorder[T]) InputQueueLength() int { return 1 }

func (r *recorder[T]) RegisterInput(_ context.Context, item T) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.refuse > 0 {
		r.refuse--
		return false
	}
	r.items = append(r.items, item)
	return true
}

func (r *recorder[T]) Items() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]T(nil), r.items...)
}

func (r *recorder[T]) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// funcInput is not comparable.
type funcInput struct {
	fn func() bool
}

func (f funcInput) InputQueueLength() int { return 0 }

func (f funcInput) RegisterInput(context.Context, int) bool { return f.fn() }

func fastRetry(attempts int) RetryPolicy {
	return RetryPolicy{MaxAttempts: attempts, InitialDelay: time.Microsecond, MaxDelay: time.Millisecond, Multiplier: 2}
}

func TestDispatcher_AttachDetach(t *testing.T) {
	t.Parallel()

	owner := &recorder[int]{}
	d := NewDispatcher[int](owner, DefaultRetryPolicy(), nil)
	a := &recorder[int]{}

	require.NoError(t, d.Attach(a))
	assert.ErrorIs(t, d.Attach(a), flow.ErrAlreadyAttached)
	assert.ErrorIs(t, d.Attach(owner), flow.ErrSelfAttach)
	assert.ErrorIs(t, d.Attach(nil), flow.ErrNilInput)
	assert.ErrorIs(t, d.Attach((*recorder[int])(nil)), flow.ErrNilInput)
	assert.ErrorIs(t, d.Attach(funcInput{fn: func() bool { return true }}), flow.ErrNotComparable)
	assert.Equal(t, 1, d.Count())

	assert.False(t, d.Detach(&recorder[int]{}))
	assert.True(t, d.Detach(a))
	assert.False(t, d.Detach(a))
	assert.Equal(t, 0, d.Count())
}

func TestDispatcher_DeliversInAttachOrder(t *testing.T) {
	t.Parallel()

	var (
		mu    sync.Mutex
		order []string
	)
	d := NewDispatcher[int](nil, DefaultRetryPolicy(), nil)
	for _, name := range []string{"a", "b", "c"} {
		require.NoError(t, d.Attach(&named{name: name, mu: &mu, order: &order}))
	}

	n, err := d.Dispatch(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

type named struct {
	name  string
	mu    *sync.Mutex
	order *[]string
}

func (n *named) InputQueueLength() int { return 1 }

func (n *named) RegisterInput(context.Context, int) bool {
	n.mu.Lock()
	*n.order = append(*n.order, n.name)
	n.mu.Unlock()
	return true
}

func TestDispatcher_RetriesRefusedConsumers(t *testing.T) {
	t.Parallel()

	status := NewStatus("filter", Apply())
	d := NewDispatcher[int](nil, fastRetry(0), status)
	busy := &recorder[int]{refuse: 3}
	free := &recorder[int]{}
	require.NoError(t, d.Attach(busy))
	require.NoError(t, d.Attach(free))

	n, err := d.Dispatch(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []int{42}, busy.Items())
	assert.Equal(t, []int{42}, free.Items())
	assert.Equal(t, 4, busy.Calls())
	assert.Equal(t, 1, free.Calls())

	stats := status.Stats()
	assert.EqualValues(t, 2, stats.Dispatched)
	assert.EqualValues(t, 3, stats.DeliveryRetries)
}

func TestDispatcher_BoundedRetry(t *testing.T) {
	t.Parallel()

	status := NewStatus("filter", Apply())
	d := NewDispatcher[int](nil, fastRetry(3), status)
	dead := &recorder[int]{refuse: 1000}
	ok := &recorder[int]{}
	require.NoError(t, d.Attach(dead))
	require.NoError(t, d.Attach(ok))

	n, err := d.Dispatch(context.Background(), 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, flow.ErrDeliveryFailed))
	assert.Equal(t, 1, n)
	assert.Equal(t, 3, dead.Calls())
	assert.EqualValues(t, 1, status.Stats().DeliveryFailures)
}

func TestDispatcher_CancelAbortsRetry(t *testing.T) {
	t.Parallel()

	d := NewDispatcher[int](nil, fastRetry(0), nil)
	require.NoError(t, d.Attach(&recorder[int]{refuse: 1 << 30}))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		_, err := d.Dispatch(ctx, 1)
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(time.Second):
		t.Fatal("dispatch did not return after cancellation")
	}
}

func TestDispatcher_NoOutputs(t *testing.T) {
	t.Parallel()

	d := NewDispatcher[int](nil, DefaultRetryPolicy(), nil)
	n, err := d.Dispatch(context.Background(), 1)
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestRetryPolicy_Backoff(t *testing.T) {
	t.Parallel()

	p := RetryPolicy{InitialDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond, Multiplier: 2}
	assert.Equal(t, 2*time.Millisecond, p.next(time.Millisecond))
	assert.Equal(t, 5*time.Millisecond, p.next(4*time.Millisecond))

	flat := RetryPolicy{Multiplier: 1}
	assert.Equal(t, time.Millisecond, flat.next(time.Millisecond))
}
