package core

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFeedWithHandlers(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var ok []int
	rec := &recorder[int]{}
	n := FeedWithHandlers[int](ctx, rec, FeedHandlers[int]{
		OnSuccess: func(_ context.Context, v int) { ok = append(ok, v) },
	}, 1, 2, 3)

	assert.Equal(t, 3, n)
	assert.Equal(t, []int{1, 2, 3}, ok)
	assert.Equal(t, []int{1, 2, 3}, rec.Items())
}

func TestFeedWithHandlers_BreakOnRefusal(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	var rest []int
	rec := &recorder[int]{refuse: 1}
	n := FeedWithHandlers[int](ctx, rec, FeedHandlers[int]{
		OnBreak: func(_ context.Context, r []int) { rest = r },
	}, 1, 2, 3)

	assert.Equal(t, 0, n)
	assert.Equal(t, []int{1, 2, 3}, rest)
	assert.Empty(t, rec.Items())
}

func TestFeedWithHandlers_StartFail(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var failed []int
	rec := &recorder[int]{}
	n := FeedWithHandlers[int](ctx, rec, FeedHandlers[int]{
		OnStartFail: func(_ context.Context, in []int) { failed = in },
	}, 4, 5)

	assert.Equal(t, 0, n)
	assert.Equal(t, []int{4, 5}, failed)
	assert.Equal(t, 0, rec.Calls())
}
