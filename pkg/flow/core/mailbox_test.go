package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ib-77/flowgraph/pkg/flow"
)

func TestMailbox_PushDrainFIFO(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mb := NewMailbox[int](10, 0)

	for i := range 5 {
		require.NoError(t, mb.Push(ctx, i))
	}
	assert.Equal(t, 5, mb.Len())

	select {
	case <-mb.Signal():
	default:
		t.Fatal("push should raise the signal")
	}

	batch := mb.Drain(nil)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, batch)
	assert.Equal(t, 0, mb.Len())
}

func TestMailbox_DefaultCapacity(t *testing.T) {
	t.Parallel()

	mb := NewMailbox[string](0, 0)
	assert.Equal(t, DefaultCapacity, mb.Capacity())
}

func TestMailbox_TimeoutWhenFull(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mb := NewMailbox[int](2, 20*time.Millisecond)

	require.NoError(t, mb.Push(ctx, 1))
	require.NoError(t, mb.Push(ctx, 2))

	start := time.Now()
	err := mb.Push(ctx, 3)
	assert.ErrorIs(t, err, flow.ErrRegistrationTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestMailbox_CancelledContext(t *testing.T) {
	t.Parallel()

	mb := NewMailbox[int](1, 0)
	require.NoError(t, mb.Push(context.Background(), 1))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := mb.Push(ctx, 2)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestMailbox_DrainFreesSlots(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	mb := NewMailbox[int](1, 0)
	require.NoError(t, mb.Push(ctx, 1))

	pushed := make(chan error, 1)
	go func() {
		pushed <- mb.Push(ctx, 2)
	}()

	select {
	case <-pushed:
		t.Fatal("push must block while the mailbox is full")
	case <-time.After(20 * time.Millisecond):
	}

	assert.Equal(t, []int{1}, mb.Drain(nil))
	require.NoError(t, <-pushed)
	assert.Equal(t, []int{2}, mb.Drain(nil))
}

func TestMailbox_PopFreesOneSlot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mb := NewMailbox[int](2, 10*time.Millisecond)

	_, ok := mb.Pop()
	assert.False(t, ok)

	require.NoError(t, mb.Push(ctx, 1))
	require.NoError(t, mb.Push(ctx, 2))
	assert.ErrorIs(t, mb.Push(ctx, 3), flow.ErrRegistrationTimeout)

	v, ok := mb.Pop()
	require.True(t, ok)
	assert.Equal(t, 1, v)

	require.NoError(t, mb.Push(ctx, 3))
	assert.ErrorIs(t, mb.Push(ctx, 4), flow.ErrRegistrationTimeout)
	assert.Equal(t, []int{2, 3}, mb.Drain(nil))
}

func TestMailbox_Close(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mb := NewMailbox[int](3, 0)
	require.NoError(t, mb.Push(ctx, 1))
	require.NoError(t, mb.Push(ctx, 2))

	assert.Equal(t, 2, mb.Close())
	assert.Equal(t, 0, mb.Close())
	assert.ErrorIs(t, mb.Push(ctx, 3), flow.ErrClosed)
	assert.Empty(t, mb.Drain(nil))
}
