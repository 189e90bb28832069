package threaded

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/metric"
)

func TestNewPool_Defaults(t *testing.T) {
	t.Parallel()

	p := NewPool(0, 0)
	stats := p.Stats()
	assert.Equal(t, DefaultPoolWorkers, stats.Workers)
	assert.Equal(t, DefaultPoolQueueSize, stats.QueueSize)
}

func TestPool_Lifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := NewPool(2, 4)

	assert.ErrorIs(t, p.Schedule(ctx, func(context.Context) error { return nil }), ErrPoolNotStarted)
	require.NoError(t, p.Start(ctx))
	assert.ErrorIs(t, p.Start(ctx), ErrPoolAlreadyStarted)

	var ran atomic.Int32
	for range 4 {
		require.NoError(t, p.Schedule(ctx, func(context.Context) error {
			ran.Add(1)
			return nil
		}))
	}

	require.NoError(t, p.Stop(time.Second))
	assert.EqualValues(t, 4, ran.Load())
	assert.NoError(t, p.Stop(time.Second))
	assert.ErrorIs(t, p.Schedule(ctx, func(context.Context) error { return nil }), flow.ErrPoolStopped)
}

func TestPool_Backpressure(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	release := make(chan struct{})
	started := make(chan struct{}, 1)
	p := NewPool(1, 2)
	require.NoError(t, p.Start(ctx))

	block := func(context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-release
		return nil
	}

	require.NoError(t, p.Schedule(ctx, block))
	<-started
	require.NoError(t, p.Schedule(ctx, block))
	require.NoError(t, p.Schedule(ctx, block))
	assert.ErrorIs(t, p.Schedule(ctx, block), flow.ErrQueueFull)
	assert.EqualValues(t, 1, p.Stats().Dropped)

	close(release)
	require.NoError(t, p.Stop(time.Second))
	assert.EqualValues(t, 3, p.Stats().Processed)
}

func TestPool_FailuresAndPanics(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, err := metric.NewPool(prometheus.NewRegistry(), "flow", "test")
	require.NoError(t, err)

	p := NewPool(1, 4, WithPoolMetrics(m))
	require.NoError(t, p.Start(ctx))

	require.NoError(t, p.Schedule(ctx, func(context.Context) error { return errors.New("boom") }))
	require.NoError(t, p.Schedule(ctx, func(context.Context) error { panic("boom") }))
	require.NoError(t, p.Schedule(ctx, func(context.Context) error { return nil }))

	require.NoError(t, p.Stop(time.Second))
	stats := p.Stats()
	assert.EqualValues(t, 3, stats.Processed)
	assert.EqualValues(t, 2, stats.Failed)
}

func TestPool_StopTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	defer close(release)

	p := NewPool(1, 1)
	require.NoError(t, p.Start(context.Background()))
	require.NoError(t, p.Schedule(context.Background(), func(context.Context) error {
		<-release
		return nil
	}))

	assert.ErrorIs(t, p.Stop(10*time.Millisecond), flow.ErrStopTimeout)
}
