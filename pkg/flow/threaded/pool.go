package threaded

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ib-77/flowgraph/internal/logging"
	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/metric"
)

const (
	DefaultPoolWorkers   = 10
	DefaultPoolQueueSize = 1000
)

type queued struct {
	ctx  context.Context
	task Task
}

// Pool is a Scheduler with a fixed number of workers and a bounded queue.
type Pool struct {
	workers   int
	queueSize int
	work      chan queued
	metrics   *metric.PoolMetrics
	logger    *slog.Logger
	wg        sync.WaitGroup

	lifecycleMu sync.Mutex
	started     bool
	stopped     bool

	submitted atomic.Int64
	processed atomic.Int64
	failed    atomic.Int64
	dropped   atomic.Int64
}

var _ Scheduler = (*Pool)(nil)

// PoolStats represents scheduler pool statistics
type PoolStats struct {
	Workers    int   `json:"workers"`
	QueueSize  int   `json:"queue_size"`
	QueueDepth int   `json:"queue_depth"`
	Submitted  int64 `json:"submitted"`
	Processed  int64 `json:"processed"`
	Failed     int64 `json:"failed"`
	Dropped    int64 `json:"dropped"`
}

type PoolOption func(*Pool)

func WithPoolMetrics(m *metric.PoolMetrics) PoolOption {
	return func(p *Pool) {
		p.metrics = m
	}
}

func WithPoolLogger(logger *slog.Logger) PoolOption {
	return func(p *Pool) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewPool(workers, queueSize int, opts ...PoolOption) *Pool {
	if workers <= 0 {
		workers = DefaultPoolWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultPoolQueueSize
	}

	p := &Pool{
		workers:   workers,
		queueSize: queueSize,
		work:      make(chan queued, queueSize),
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Capacity returns the queue size.
func (p *Pool) Capacity() int {
	return p.queueSize
}

// Start launches the workers. Cancelling ctx makes them exit without
// draining the queue.
func (p *Pool) Start(ctx context.Context) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if p.started {
		return ErrPoolAlreadyStarted
	}

	for range p.workers {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.started = true
	p.logger.Debug("pool started", "workers", p.workers, "queue_size", p.queueSize)
	return nil
}

// Schedule queues task without blocking.
func (p *Pool) Schedule(ctx context.Context, task Task) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.started {
		return ErrPoolNotStarted
	}
	if p.stopped {
		return flow.ErrPoolStopped
	}

	select {
	case p.work <- queued{ctx: ctx, task: task}:
		p.submitted.Add(1)
		p.metrics.Submitted(len(p.work), p.queueSize)
		return nil
	default:
		p.dropped.Add(1)
		p.metrics.Dropped()
		return flow.ErrQueueFull
	}
}

// Stop refuses new tasks, lets the workers finish the queued ones and waits
// for them up to timeout.
func (p *Pool) Stop(timeout time.Duration) error {
	p.lifecycleMu.Lock()
	defer p.lifecycleMu.Unlock()

	if !p.started || p.stopped {
		return nil
	}
	p.stopped = true
	close(p.work)

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		p.logger.Debug("pool stopped")
		return nil
	case <-timer.C:
		p.logger.Warn("pool workers did not stop", "timeout", timeout)
		return flow.ErrStopTimeout
	}
}

func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Workers:    p.workers,
		QueueSize:  p.queueSize,
		QueueDepth: len(p.work),
		Submitted:  p.submitted.Load(),
		Processed:  p.processed.Load(),
		Failed:     p.failed.Load(),
		Dropped:    p.dropped.Load(),
	}
}

func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case q, ok := <-p.work:
			if !ok {
				return
			}

			start := time.Now()
			err := flow.Guard(func() error { return q.task(q.ctx) })
			p.processed.Add(1)
			if err != nil {
				p.failed.Add(1)
				p.logger.Debug("task failed", "error", err)
			}
			p.metrics.Ran(time.Since(start), err)
			p.metrics.Depth(len(p.work), p.queueSize)
		}
	}
}
