package node

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

func not(_ context.Context, in bool) (bool, bool, error) {
	return !in, true, nil
}

func TestFilter_NotGateInvertsSequence(t *testing.T) {
	t.Parallel()

	input := []bool{true, true, false, false, true, false, false, true}

	source := NewSource(sliceGenerator(input...))
	gate := NewFilter[bool, bool](not)
	sink, got := newCollector[bool]()

	require.NoError(t, source.AttachOutput(gate))
	require.NoError(t, gate.AttachOutput(sink))

	sink.StartProcessing()
	gate.StartProcessing()
	source.StartProcessing()
	defer func() {
		assert.NoError(t, source.Close())
		assert.NoError(t, gate.Close())
		assert.NoError(t, sink.Close())
	}()

	require.Eventually(t, func() bool { return got.Len() == len(input) }, 2*time.Second, time.Millisecond)
	assert.Equal(t, []bool{false, false, true, true, false, true, true, false}, got.Items())
}

func TestFilter_FanOutToEveryOutput(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	double := NewFilter[int, int](func(_ context.Context, in int) (int, bool, error) {
		return in * 2, true, nil
	})
	first, got1 := newCollector[int]()
	second, got2 := newCollector[int]()
	require.NoError(t, double.AttachOutput(first))
	require.NoError(t, double.AttachOutput(second))
	assert.Equal(t, 2, double.OutputCount())

	for _, n := range []flow.Node{first, second, double} {
		n.StartProcessing()
		defer n.Close()
	}

	core.Feed[int](ctx, double, 1, 2, 3)

	require.Eventually(t, func() bool { return got1.Len() == 3 && got2.Len() == 3 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{2, 4, 6}, got1.Items())
	assert.Equal(t, []int{2, 4, 6}, got2.Items())
	assert.EqualValues(t, 6, double.Stats().Dispatched)
}

func TestFilter_AttachDetach(t *testing.T) {
	t.Parallel()

	f := NewFilter[int, int](func(_ context.Context, in int) (int, bool, error) { return in, true, nil })
	sink, _ := newCollector[int]()
	defer f.Close()
	defer sink.Close()

	assert.NoError(t, f.AttachOutput(sink))
	assert.ErrorIs(t, f.AttachOutput(sink), flow.ErrAlreadyAttached)
	assert.ErrorIs(t, f.AttachOutput(f), flow.ErrSelfAttach)
	assert.ErrorIs(t, f.AttachOutput(nil), flow.ErrNilInput)

	other, _ := newCollector[int]()
	defer other.Close()
	assert.False(t, f.DetachOutput(other))
	assert.True(t, f.DetachOutput(sink))
	assert.Zero(t, f.OutputCount())
}

func TestFilter_DiscardAndFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	observer, _, faults := core.Notifications(8)
	even := NewFilter[int, int](func(_ context.Context, in int) (int, bool, error) {
		if in < 0 {
			return 0, false, errors.New("negative")
		}
		return in, in%2 == 0, nil
	}, core.WithObserver(observer))
	sink, got := newCollector[int]()
	require.NoError(t, even.AttachOutput(sink))

	sink.StartProcessing()
	even.StartProcessing()
	defer even.Close()
	defer sink.Close()

	core.Feed[int](ctx, even, 1, 2, -1, 3, 4)

	require.Eventually(t, func() bool { return got.Len() == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []int{2, 4}, got.Items())

	fault := <-faults
	assert.Equal(t, -1, fault.Payload())

	require.Eventually(t, func() bool { return even.Stats().Processed == 4 }, time.Second, time.Millisecond)
	stats := even.Stats()
	assert.EqualValues(t, 2, stats.Discarded)
	assert.EqualValues(t, 1, stats.Failed)
}

func TestFilter_BoundedRetryReportsDeliveryFailure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	observer, _, faults := core.Notifications(8)
	f := NewFilter[int, int](func(_ context.Context, in int) (int, bool, error) { return in, true, nil },
		core.WithObserver(observer),
		core.WithRetry(core.RetryPolicy{MaxAttempts: 2, InitialDelay: time.Millisecond, Multiplier: 1}))

	// never started, so it holds a single item and refuses the rest
	full, _ := newCollector[int](core.WithCapacity(1), core.WithRegistrationTimeout(time.Millisecond))
	require.NoError(t, f.AttachOutput(full))

	f.StartProcessing()
	defer f.Close()
	defer full.Close()

	core.Feed[int](ctx, f, 1, 2)

	select {
	case fault := <-faults:
		assert.ErrorIs(t, fault.Err(), flow.ErrDeliveryFailed)
		assert.Equal(t, 2, fault.Payload())
	case <-ctx.Done():
		t.Fatal("no delivery failure reported")
	}
	assert.EqualValues(t, 1, f.Stats().DeliveryFailures)
}

func TestFilter_ReportsDispatchingState(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	observer, changes, _ := core.Notifications(64)
	f := NewFilter[bool, bool](not, core.WithObserver(observer))
	sink, got := newCollector[bool]()
	require.NoError(t, f.AttachOutput(sink))

	sink.StartProcessing()
	f.StartProcessing()
	core.Feed[bool](ctx, f, true)
	require.Eventually(t, func() bool { return got.Len() == 1 }, time.Second, time.Millisecond)

	require.NoError(t, f.Close())
	require.NoError(t, sink.Close())

	var states []flow.ProcessingState
	for len(changes) > 0 {
		states = append(states, (<-changes).To())
	}
	assert.Subset(t, states, []flow.ProcessingState{
		flow.StateIdle, flow.StatePreparing, flow.StateProcessing, flow.StateDispatching, flow.StateStopped,
	})
}

func TestFilter_CloseAbortsBlockedDispatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := NewFilter[int, int](func(_ context.Context, in int) (int, bool, error) { return in, true, nil },
		core.WithCloseTimeout(20*time.Millisecond))
	full, _ := newCollector[int](core.WithCapacity(1))
	require.NoError(t, f.AttachOutput(full))

	f.StartProcessing()
	core.Feed[int](ctx, f, 1, 2, 3)
	require.Eventually(t, func() bool { return full.QueuedItems() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- f.Close() }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("close did not abort dispatch")
	}
	assert.NoError(t, full.Close())
}
