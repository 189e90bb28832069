// Package metric provides Prometheus instrumentation for graph nodes.
//
// Every node keeps atomic statistics on its own; Metrics is the optional
// export of the same counters so they can be scraped. One Metrics value is
// shared by all nodes of a graph and curried per node with For.
package metric

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors shared by all nodes of a graph.
type Metrics struct {
	registered       *prometheus.CounterVec
	rejected         *prometheus.CounterVec
	processed        *prometheus.CounterVec
	failed           *prometheus.CounterVec
	discarded        *prometheus.CounterVec
	produced         *prometheus.CounterVec
	dispatched       *prometheus.CounterVec
	deliveryRetries  *prometheus.CounterVec
	deliveryFailures *prometheus.CounterVec
	queueDepth       *prometheus.GaugeVec
	handlingTime     *prometheus.HistogramVec
}

var nodeLabels = []string{"kind", "node"}

// New creates the collectors under namespace and registers them with reg.
// A collector that is already registered with reg is reused.
func New(reg prometheus.Registerer, namespace string) (*Metrics, error) {
	m := &Metrics{
		registered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_registered_total",
			Help:      "Items admitted into a node mailbox",
		}, nodeLabels),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_rejected_total",
			Help:      "Registrations that timed out or hit a closed node",
		}, nodeLabels),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_processed_total",
			Help:      "Items handled without error",
		}, nodeLabels),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_failed_total",
			Help:      "Items whose handler returned an error or panicked",
		}, nodeLabels),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_discarded_total",
			Help:      "Results suppressed by the handler",
		}, nodeLabels),
		produced: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_produced_total",
			Help:      "Values created by a source generator",
		}, nodeLabels),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_dispatched_total",
			Help:      "Deliveries to attached outputs",
		}, nodeLabels),
		deliveryRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_retries_total",
			Help:      "Refused deliveries that were retried",
		}, nodeLabels),
		deliveryFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Outputs skipped after exhausting the retry limit",
		}, nodeLabels),
		queueDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Items waiting in a node mailbox",
		}, nodeLabels),
		handlingTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "handling_duration_seconds",
			Help:      "Time spent in a node handler",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
		}, append(append([]string{}, nodeLabels...), "status")),
	}

	if reg == nil {
		return m, nil
	}

	if err := m.register(reg); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) register(reg prometheus.Registerer) error {
	for _, c := range []struct {
		name string
		ptr  any
	}{
		{"items_registered_total", &m.registered},
		{"items_rejected_total", &m.rejected},
		{"items_processed_total", &m.processed},
		{"items_failed_total", &m.failed},
		{"items_discarded_total", &m.discarded},
		{"items_produced_total", &m.produced},
		{"items_dispatched_total", &m.dispatched},
		{"delivery_retries_total", &m.deliveryRetries},
		{"delivery_failures_total", &m.deliveryFailures},
		{"queue_depth", &m.queueDepth},
		{"handling_duration_seconds", &m.handlingTime},
	} {
		if err := registerOrReuse(reg, c.ptr); err != nil {
			return fmt.Errorf("metric.New: register %s: %w", c.name, err)
		}
	}
	return nil
}

// registerOrReuse registers the collector behind ptr. When an equal collector
// is already registered, ptr is pointed at the existing one.
func registerOrReuse(reg prometheus.Registerer, ptr any) error {
	switch p := ptr.(type) {
	case **prometheus.CounterVec:
		err := reg.Register(*p)
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				*p = existing
				return nil
			}
		}
		return err
	case **prometheus.GaugeVec:
		err := reg.Register(*p)
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				*p = existing
				return nil
			}
		}
		return err
	case **prometheus.HistogramVec:
		err := reg.Register(*p)
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				*p = existing
				return nil
			}
		}
		return err
	default:
		return fmt.Errorf("unsupported collector %T", ptr)
	}
}

// For returns the collectors of a single node. A nil receiver yields a nil
// *NodeMetrics, whose methods are no-ops.
func (m *Metrics) For(kind, node string) *NodeMetrics {
	if m == nil {
		return nil
	}
	return &NodeMetrics{
		registered:       m.registered.WithLabelValues(kind, node),
		rejected:         m.rejected.WithLabelValues(kind, node),
		processed:        m.processed.WithLabelValues(kind, node),
		failed:           m.failed.WithLabelValues(kind, node),
		discarded:        m.discarded.WithLabelValues(kind, node),
		produced:         m.produced.WithLabelValues(kind, node),
		dispatched:       m.dispatched.WithLabelValues(kind, node),
		deliveryRetries:  m.deliveryRetries.WithLabelValues(kind, node),
		deliveryFailures: m.deliveryFailures.WithLabelValues(kind, node),
		queueDepth:       m.queueDepth.WithLabelValues(kind, node),
		success:          m.handlingTime.WithLabelValues(kind, node, "success"),
		failure:          m.handlingTime.WithLabelValues(kind, node, "error"),
	}
}
