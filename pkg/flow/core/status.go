package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ib-77/flowgraph/pkg/flow"
	"github.com/ib-77/flowgraph/pkg/flow/metric"
)

// Observer receives the notifications of a node. Callbacks run on the
// goroutine that caused the event and must not block.
type Observer struct {
	OnStateChanged func(ctx context.Context, change flow.StateChange)
	OnFault        func(ctx context.Context, fault flow.Fault)
}

// Stats is a snapshot of a node's counters.
type Stats struct {
	Registered       int64 `json:"registered"`
	Rejected         int64 `json:"rejected"`
	Processed        int64 `json:"processed"`
	Failed           int64 `json:"failed"`
	Discarded        int64 `json:"discarded"`
	Produced         int64 `json:"produced"`
	Dispatched       int64 `json:"dispatched"`
	DeliveryRetries  int64 `json:"delivery_retries"`
	DeliveryFailures int64 `json:"delivery_failures"`
}

// Status holds identity, state and statistics of a node and fans its
// notifications out to the observers given at construction.
type Status struct {
	id        uuid.UUID
	kind      string
	name      string
	state     atomic.Int32
	tagMu     sync.RWMutex
	tag       any
	observers []Observer
	logger    *slog.Logger
	metrics   *metric.NodeMetrics

	registered       atomic.Int64
	rejected         atomic.Int64
	processed        atomic.Int64
	failed           atomic.Int64
	discarded        atomic.Int64
	produced         atomic.Int64
	dispatched       atomic.Int64
	deliveryRetries  atomic.Int64
	deliveryFailures atomic.Int64
}

func NewStatus(kind string, o Options) *Status {
	id := uuid.New()
	name := o.Name
	if name == "" {
		name = fmt.Sprintf("%s-%s", kind, id.String()[:8])
	}

	s := &Status{
		id:        id,
		kind:      kind,
		name:      name,
		tag:       o.Tag,
		observers: append([]Observer(nil), o.Observers...),
		metrics:   o.Metrics.For(kind, name),
	}
	s.logger = o.Logger.With("node", name, "kind", kind, "node_id", id.String())
	s.state.Store(int32(flow.StateStopped))
	return s
}

func (s *Status) ID() uuid.UUID {
	return s.id
}

func (s *Status) Kind() string {
	return s.kind
}

func (s *Status) Name() string {
	return s.name
}

func (s *Status) Tag() any {
	s.tagMu.RLock()
	defer s.tagMu.RUnlock()
	return s.tag
}

func (s *Status) SetTag(tag any) {
	s.tagMu.Lock()
	s.tag = tag
	s.tagMu.Unlock()
}

func (s *Status) State() flow.ProcessingState {
	return flow.ProcessingState(s.state.Load())
}

func (s *Status) Logger() *slog.Logger {
	return s.logger
}

func (s *Status) Metrics() *metric.NodeMetrics {
	return s.metrics
}

// Set switches the state and notifies observers when it actually changed.
func (s *Status) Set(ctx context.Context, state flow.ProcessingState) {
	prev := flow.ProcessingState(s.state.Swap(int32(state)))
	if prev == state {
		return
	}

	if len(s.observers) == 0 {
		return
	}
	change := flow.NewStateChange(s.id, s.Tag(), prev, state)
	for _, o := range s.observers {
		if o.OnStateChanged == nil {
			continue
		}
		s.notify(func() { o.OnStateChanged(ctx, change) })
	}
}

// Fault counts a failed item, logs it and notifies observers.
func (s *Status) Fault(ctx context.Context, err error, payload any) {
	s.logger.Warn("item failed", "error", err)

	fault := flow.NewFault(s.id, s.Tag(), err, payload)
	for _, o := range s.observers {
		if o.OnFault == nil {
			continue
		}
		s.notify(func() { o.OnFault(ctx, fault) })
	}
}

// notify shields the worker from a panicking observer.
func (s *Status) notify(fn func()) {
	if err := flow.Guard(func() error { fn(); return nil }); err != nil {
		s.logger.Error("observer panicked", "error", err)
	}
}

// Handle runs engine for item, isolating errors and panics. The returned
// error has already been reported.
func (s *Status) Handle(ctx context.Context, item any, engine func() error) error {
	start := time.Now()
	err := flow.Guard(engine)
	s.metrics.Handled(time.Since(start), err)

	if err != nil {
		s.failed.Add(1)
		s.Fault(ctx, err, item)
		return err
	}
	s.processed.Add(1)
	return nil
}

// Fail counts and reports a failure that did not come from Handle.
func (s *Status) Fail(ctx context.Context, err error, payload any) {
	s.failed.Add(1)
	s.metrics.Failed()
	s.Fault(ctx, err, payload)
}

func (s *Status) Registered() {
	s.registered.Add(1)
	s.metrics.Registered()
}

func (s *Status) Rejected() {
	s.rejected.Add(1)
	s.metrics.Rejected()
}

func (s *Status) Discarded() {
	s.discarded.Add(1)
	s.metrics.Discarded()
}

func (s *Status) Produced() {
	s.produced.Add(1)
	s.metrics.Produced()
}

func (s *Status) Dispatched(count int) {
	s.dispatched.Add(int64(count))
	s.metrics.Dispatched(count)
}

func (s *Status) DeliveryRetried() {
	s.deliveryRetries.Add(1)
	s.metrics.DeliveryRetried()
}

func (s *Status) DeliveryFailed() {
	s.deliveryFailures.Add(1)
	s.metrics.DeliveryFailed()
}

func (s *Status) Stats() Stats {
	return Stats{
		Registered:       s.registered.Load(),
		Rejected:         s.rejected.Load(),
		Processed:        s.processed.Load(),
		Failed:           s.failed.Load(),
		Discarded:        s.discarded.Load(),
		Produced:         s.produced.Load(),
		Dispatched:       s.dispatched.Load(),
		DeliveryRetries:  s.deliveryRetries.Load(),
		DeliveryFailures: s.deliveryFailures.Load(),
	}
}

// Notifications returns an Observer that forwards events to buffered
// channels. Events are dropped when a channel is full.
func Notifications(buffer int) (Observer, <-chan flow.StateChange, <-chan flow.Fault) {
	changes := make(chan flow.StateChange, buffer)
	faults := make(chan flow.Fault, buffer)

	observer := Observer{
		OnStateChanged: func(_ context.Context, change flow.StateChange) {
			select {
			case changes <- change:
			default:
			}
		},
		OnFault: func(_ context.Context, fault flow.Fault) {
			select {
			case faults <- fault:
			default:
			}
		},
	}
	return observer, changes, faults
}
