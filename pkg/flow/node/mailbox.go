package node

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/core"
)

// mailboxNode is the input side shared by Processor and Filter.
type mailboxNode[T any] struct {
	status  *core.Status
	mailbox *core.Mailbox[T]
	runner  *core.Runner
	engine  func(ctx context.Context, item T) error
}

func newMailboxNode[T any](kind string, o core.Options) *mailboxNode[T] {
	return &mailboxNode[T]{
		status:  core.NewStatus(kind, o),
		mailbox: core.NewMailbox[T](o.Capacity, o.RegistrationTimeout),
		runner:  core.NewRunner(o.CloseTimeout),
	}
}

func (n *mailboxNode[T]) ID() uuid.UUID {
	return n.status.ID()
}

func (n *mailboxNode[T]) Name() string {
	return n.status.Name()
}

func (n *mailboxNode[T]) Tag() any {
	return n.status.Tag()
}

func (n *mailboxNode[T]) SetTag(tag any) {
	n.status.SetTag(tag)
}

func (n *mailboxNode[T]) State() flow.ProcessingState {
	return n.status.State()
}

func (n *mailboxNode[T]) Stats() core.Stats {
	return n.status.Stats()
}

func (n *mailboxNode[T]) InputQueueLength() int {
	return n.mailbox.Capacity()
}

// QueuedItems returns the number of items waiting in the mailbox.
func (n *mailboxNode[T]) QueuedItems() int {
	return n.mailbox.Len()
}

func (n *mailboxNode[T]) RegisterInput(ctx context.Context, item T) bool {
	return n.Submit(ctx, item) == nil
}

// Submit admits item like RegisterInput and returns why it was refused:
// flow.ErrRegistrationTimeout, flow.ErrClosed or the context error.
func (n *mailboxNode[T]) Submit(ctx context.Context, item T) error {
	if err := n.mailbox.Push(ctx, item); err != nil {
		if errors.Is(err, flow.ErrRegistrationTimeout) || errors.Is(err, flow.ErrClosed) {
			n.status.Rejected()
		}
		n.status.Logger().Debug("registration refused", "error", err)
		return err
	}
	n.status.Registered()
	n.status.Metrics().QueueDepth(n.mailbox.Len())
	return nil
}

func (n *mailboxNode[T]) StartProcessing() {
	started := n.runner.Start(func(ctx context.Context, stop <-chan struct{}) error {
		return core.Locomotive(ctx, n.mailbox, n.status, stop, n.engine)
	})
	if started {
		n.status.Logger().Debug("started")
	}
}

func (n *mailboxNode[T]) StopProcessing() {
	if n.runner.Stop() {
		n.mailbox.Wake()
		n.status.Logger().Debug("stopping")
	}
}

func (n *mailboxNode[T]) Close() error {
	err := n.runner.Close()
	dropped := n.mailbox.Close()
	n.status.Metrics().QueueDepth(0)
	if err != nil {
		n.status.Logger().Warn("workers did not stop", "error", err)
	}
	n.status.Logger().Debug("closed", "dropped", dropped)
	return err
}
