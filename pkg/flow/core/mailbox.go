package core

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// Mailbox is a bounded FIFO. A weighted semaphore counts free slots: Push
// takes one, Drain and Pop give back one per item they remove. Every Push raises the
// signal so a single waiting worker wakes up for any burst.
type Mailbox[T any] struct {
	capacity int
	timeout  time.Duration
	slots    *semaphore.Weighted
	signal   chan struct{}

	mu     sync.Mutex
	queue  []T
	closed bool
}

// NewMailbox creates a mailbox with the given capacity. A timeout of zero
// makes Push wait until a slot frees or ctx is done.
func NewMailbox[T any](capacity int, timeout time.Duration) *Mailbox[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Mailbox[T]{
		capacity: capacity,
		timeout:  timeout,
		slots:    semaphore.NewWeighted(int64(capacity)),
		signal:   make(chan struct{}, 1),
		queue:    make([]T, 0, capacity),
	}
}

func (m *Mailbox[T]) Capacity() int {
	return m.capacity
}

func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Push admits item, blocking while the mailbox is full.
func (m *Mailbox[T]) Push(ctx context.Context, item T) error {
	if m.isClosed() {
		return flow.ErrClosed
	}

	acquireCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		acquireCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	if err := m.slots.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return flow.ErrRegistrationTimeout
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		m.slots.Release(1)
		return flow.ErrClosed
	}
	m.queue = append(m.queue, item)
	m.mu.Unlock()

	m.Wake()
	return nil
}

// Drain moves every queued item to dst in one step and frees their slots.
func (m *Mailbox[T]) Drain(dst []T) []T {
	m.mu.Lock()
	n := len(m.queue)
	if n == 0 {
		m.mu.Unlock()
		return dst
	}
	dst = append(dst, m.queue...)
	clear(m.queue)
	m.queue = m.queue[:0]
	m.mu.Unlock()

	m.slots.Release(int64(n))
	return dst
}

// Pop removes the oldest item and frees its slot.
func (m *Mailbox[T]) Pop() (T, bool) {
	var zero T

	m.mu.Lock()
	if len(m.queue) == 0 {
		m.mu.Unlock()
		return zero, false
	}
	item := m.queue[0]
	m.queue[0] = zero
	m.queue = m.queue[1:]
	m.mu.Unlock()

	m.slots.Release(1)
	return item, true
}

// Signal is readable after a Push or Wake.
func (m *Mailbox[T]) Signal() <-chan struct{} {
	return m.signal
}

// Wake raises the signal without adding an item.
func (m *Mailbox[T]) Wake() {
	select {
	case m.signal <- struct{}{}:
	default:
	}
}

// Close refuses further pushes and discards queued items. It returns the
// number of discarded items. Pushers blocked on a full mailbox return ErrClosed.
func (m *Mailbox[T]) Close() int {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return 0
	}
	m.closed = true
	n := len(m.queue)
	clear(m.queue)
	m.queue = nil
	m.mu.Unlock()

	if n > 0 {
		m.slots.Release(int64(n))
	}
	return n
}

func (m *Mailbox[T]) isClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
