package core

import (
	"log/slog"
	"time"

	"github.com/ib-77/flowgraph/internal/logging"
	"github.com/ib-77/flowgraph/pkg/flow/metric"
)

const (
	DefaultCapacity       = 100
	DefaultOutputCapacity = 100
	DefaultIdleDelay      = time.Millisecond
	DefaultCloseTimeout   = 5 * time.Second
)

// Options configure a node. The zero RegistrationTimeout waits forever.
type Options struct {
	Name                string
	Tag                 any
	Capacity            int
	RegistrationTimeout time.Duration
	OutputCapacity      int
	IdleDelay           time.Duration
	CloseTimeout        time.Duration
	Retry               RetryPolicy
	Logger              *slog.Logger
	Metrics             *metric.Metrics
	Observers           []Observer
}

type Option func(*Options)

func DefaultOptions() Options {
	return Options{
		Capacity:       DefaultCapacity,
		OutputCapacity: DefaultOutputCapacity,
		IdleDelay:      DefaultIdleDelay,
		CloseTimeout:   DefaultCloseTimeout,
		Retry:          DefaultRetryPolicy(),
	}
}

// Apply folds opts over the defaults and repairs invalid values.
func Apply(opts ...Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.Capacity <= 0 {
		o.Capacity = DefaultCapacity
	}
	if o.OutputCapacity <= 0 {
		o.OutputCapacity = DefaultOutputCapacity
	}
	if o.RegistrationTimeout < 0 {
		o.RegistrationTimeout = 0
	}
	if o.IdleDelay < 0 {
		o.IdleDelay = 0
	}
	if o.CloseTimeout <= 0 {
		o.CloseTimeout = DefaultCloseTimeout
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	return o
}

// WithName sets the name used in logs and metric labels
func WithName(name string) Option {
	return func(o *Options) {
		o.Name = name
	}
}

func WithTag(tag any) Option {
	return func(o *Options) {
		o.Tag = tag
	}
}

// WithCapacity sets the number of items the input mailbox admits
func WithCapacity(capacity int) Option {
	return func(o *Options) {
		o.Capacity = capacity
	}
}

// WithRegistrationTimeout bounds how long RegisterInput waits for a free slot
func WithRegistrationTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.RegistrationTimeout = timeout
	}
}

// WithOutputCapacity sets the size of a source's output queue
func WithOutputCapacity(capacity int) Option {
	return func(o *Options) {
		o.OutputCapacity = capacity
	}
}

// WithIdleDelay sets the pause after a generator reported OutcomeIdle
func WithIdleDelay(delay time.Duration) Option {
	return func(o *Options) {
		o.IdleDelay = delay
	}
}

// WithCloseTimeout bounds each wait for the workers during Close
func WithCloseTimeout(timeout time.Duration) Option {
	return func(o *Options) {
		o.CloseTimeout = timeout
	}
}

func WithRetry(policy RetryPolicy) Option {
	return func(o *Options) {
		o.Retry = policy
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

func WithMetrics(m *metric.Metrics) Option {
	return func(o *Options) {
		o.Metrics = m
	}
}

// WithObserver registers callbacks for state changes and faults
func WithObserver(observer Observer) Option {
	return func(o *Options) {
		o.Observers = append(o.Observers, observer)
	}
}

// With appends more options to an existing set
func With(opts []Option, more ...Option) []Option {
	out := make([]Option, 0, len(opts)+len(more))
	out = append(out, opts...)
	return append(out, more...)
}
