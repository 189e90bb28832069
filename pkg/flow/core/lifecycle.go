package core

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ib-77/flowgraph/pkg/flow"
)

// Loop is a worker body. It returns when stop is closed or ctx is done.
type Loop func(ctx context.Context, stop <-chan struct{}) error

// Runner owns the goroutines of a node. A runner is single use: it can be
// started once and, once stopped, never starts again.
//
// Two contexts are handed out: Context is cancelled by Close and aborts
// blocking deliveries; StopContext is additionally cancelled by Stop and is
// meant for waits that should end as soon as the node halts.
type Runner struct {
	closeTimeout time.Duration

	mu      sync.Mutex
	started bool
	stopped bool
	closed  bool
	group   *errgroup.Group
	done    chan struct{}

	stop       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	stopCtx    context.Context
	stopCancel context.CancelFunc
}

func NewRunner(closeTimeout time.Duration) *Runner {
	if closeTimeout <= 0 {
		closeTimeout = DefaultCloseTimeout
	}
	ctx, cancel := context.WithCancel(context.Background())
	stopCtx, stopCancel := context.WithCancel(ctx)
	return &Runner{
		closeTimeout: closeTimeout,
		stop:         make(chan struct{}),
		ctx:          ctx,
		cancel:       cancel,
		stopCtx:      stopCtx,
		stopCancel:   stopCancel,
	}
}

func (r *Runner) Context() context.Context {
	return r.ctx
}

func (r *Runner) StopContext() context.Context {
	return r.stopCtx
}

// Stopping is closed once Stop was called.
func (r *Runner) Stopping() <-chan struct{} {
	return r.stop
}

func (r *Runner) Running() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started && !r.stopped
}

// Start launches every loop in its own goroutine. It reports false when the
// runner was already started or stopped.
func (r *Runner) Start(loops ...Loop) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started || r.stopped {
		return false
	}
	r.started = true

	r.group = &errgroup.Group{}
	for _, loop := range loops {
		r.group.Go(func() error {
			return loop(r.ctx, r.stop)
		})
	}
	return true
}

// Stop signals the loops to halt. It reports false when already stopped.
func (r *Runner) Stop() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return false
	}
	r.stopped = true
	close(r.stop)
	r.stopCancel()
	return true
}

// Close stops the loops and waits for them. When they are still running after
// the close timeout, Context is cancelled to abort blocked deliveries and the
// runner waits once more before giving up with flow.ErrStopTimeout.
func (r *Runner) Close() error {
	r.Stop()

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	group := r.group
	if group != nil {
		r.done = make(chan struct{})
		go func(done chan struct{}) {
			_ = group.Wait()
			close(done)
		}(r.done)
	}
	done := r.done
	r.mu.Unlock()

	if group == nil {
		r.cancel()
		return nil
	}

	if wait(done, r.closeTimeout) {
		r.cancel()
		return nil
	}

	r.cancel()
	if wait(done, r.closeTimeout) {
		return nil
	}
	return flow.ErrStopTimeout
}

func wait(done <-chan struct{}, timeout time.Duration) bool {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}

// Stopped reports whether stop has been closed.
func Stopped(stop <-chan struct{}) bool {
	select {
	case <-stop:
		return true
	default:
		return false
	}
}
