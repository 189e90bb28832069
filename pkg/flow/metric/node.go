package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NodeMetrics are the collectors curried with the labels of one node.
type NodeMetrics struct {
	registered       prometheus.Counter
	rejected         prometheus.Counter
	processed        prometheus.Counter
	failed           prometheus.Counter
	discarded        prometheus.Counter
	produced         prometheus.Counter
	dispatched       prometheus.Counter
	deliveryRetries  prometheus.Counter
	deliveryFailures prometheus.Counter
	queueDepth       prometheus.Gauge
	success          prometheus.Observer
	failure          prometheus.Observer
}

func (n *NodeMetrics) Registered() {
	if n != nil {
		n.registered.Inc()
	}
}

func (n *NodeMetrics) Rejected() {
	if n != nil {
		n.rejected.Inc()
	}
}

// Failed counts a failure outside a handler invocation, such as a generator error.
func (n *NodeMetrics) Failed() {
	if n != nil {
		n.failed.Inc()
	}
}

func (n *NodeMetrics) Discarded() {
	if n != nil {
		n.discarded.Inc()
	}
}

func (n *NodeMetrics) Produced() {
	if n != nil {
		n.produced.Inc()
	}
}

func (n *NodeMetrics) Dispatched(count int) {
	if n != nil && count > 0 {
		n.dispatched.Add(float64(count))
	}
}

func (n *NodeMetrics) DeliveryRetried() {
	if n != nil {
		n.deliveryRetries.Inc()
	}
}

func (n *NodeMetrics) DeliveryFailed() {
	if n != nil {
		n.deliveryFailures.Inc()
	}
}

func (n *NodeMetrics) QueueDepth(depth int) {
	if n != nil {
		n.queueDepth.Set(float64(depth))
	}
}

// Handled records one handler invocation.
func (n *NodeMetrics) Handled(d time.Duration, err error) {
	if n == nil {
		return
	}
	if err != nil {
		n.failed.Inc()
		n.failure.Observe(d.Seconds())
		return
	}
	n.processed.Inc()
	n.success.Observe(d.Seconds())
}
