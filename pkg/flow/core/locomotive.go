package core

import (
	"context"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// Locomotive is the worker loop of a mailbox node. It sleeps on the mailbox
// signal, takes the whole queued batch at once and runs engine for every item
// of it. Failures of single items are reported through status and never end
// the loop. After stop is closed the current batch is finished and the loop
// returns; items still queued stay in the mailbox.
func Locomotive[T any](ctx context.Context, mb *Mailbox[T], status *Status, stop <-chan struct{},
	engine func(ctx context.Context, item T) error) error {
	defer status.Set(ctx, flow.StateStopped)

	batch := make([]T, 0, mb.Capacity())
	for {
		if Stopped(stop) {
			return nil
		}

		status.Set(ctx, flow.StateIdle)
		select {
		case <-stop:
			return nil
		case <-mb.Signal():
		}

		batch = mb.Drain(batch[:0])
		status.Metrics().QueueDepth(mb.Len())
		if len(batch) == 0 {
			continue
		}

		status.Set(ctx, flow.StatePreparing)
		for i := range batch {
			item := batch[i]
			status.Set(ctx, flow.StateProcessing)
			_ = status.Handle(ctx, item, func() error {
				return engine(ctx, item)
			})
		}
		clear(batch)
	}
}
