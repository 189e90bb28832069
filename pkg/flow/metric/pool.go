package metric

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PoolMetrics instruments one scheduler pool. Collectors are labelled by
// pool name so several pools can share a registry.
type PoolMetrics struct {
	queueDepth     prometheus.Gauge
	utilization    prometheus.Gauge
	submitted      prometheus.Counter
	processed      prometheus.Counter
	failed         prometheus.Counter
	dropped        prometheus.Counter
	processingTime *prometheus.HistogramVec
	pool           string
}

// NewPool creates the collectors of the pool called name and registers them
// with reg. A nil reg leaves them unregistered.
func NewPool(reg prometheus.Registerer, namespace, name string) (*PoolMetrics, error) {
	labels := []string{"pool"}
	queueDepth := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_queue_depth",
		Help:      "Tasks waiting in a scheduler pool",
	}, labels)
	utilization := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pool_utilization",
		Help:      "Scheduler pool queue utilization (0-1)",
	}, labels)
	submitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pool_submitted_total",
		Help:      "Tasks accepted by a scheduler pool",
	}, labels)
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pool_processed_total",
		Help:      "Tasks run by a scheduler pool",
	}, labels)
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pool_failed_total",
		Help:      "Tasks that returned an error or panicked",
	}, labels)
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pool_dropped_total",
		Help:      "Tasks refused because the queue was full",
	}, labels)
	processingTime := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "pool_processing_duration_seconds",
		Help:      "Time spent running scheduled tasks",
		Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
	}, []string{"pool", "status"})

	if reg != nil {
		for _, c := range []struct {
			name string
			ptr  any
		}{
			{"pool_queue_depth", &queueDepth},
			{"pool_utilization", &utilization},
			{"pool_submitted_total", &submitted},
			{"pool_processed_total", &processed},
			{"pool_failed_total", &failed},
			{"pool_dropped_total", &dropped},
			{"pool_processing_duration_seconds", &processingTime},
		} {
			if err := registerOrReuse(reg, c.ptr); err != nil {
				return nil, fmt.Errorf("metric.NewPool: register %s: %w", c.name, err)
			}
		}
	}

	return &PoolMetrics{
		queueDepth:     queueDepth.WithLabelValues(name),
		utilization:    utilization.WithLabelValues(name),
		submitted:      submitted.WithLabelValues(name),
		processed:      processed.WithLabelValues(name),
		failed:         failed.WithLabelValues(name),
		dropped:        dropped.WithLabelValues(name),
		processingTime: processingTime,
		pool:           name,
	}, nil
}

func (p *PoolMetrics) Submitted(depth, size int) {
	if p == nil {
		return
	}
	p.submitted.Inc()
	p.Depth(depth, size)
}

func (p *PoolMetrics) Dropped() {
	if p != nil {
		p.dropped.Inc()
	}
}

func (p *PoolMetrics) Depth(depth, size int) {
	if p == nil {
		return
	}
	p.queueDepth.Set(float64(depth))
	if size > 0 {
		p.utilization.Set(float64(depth) / float64(size))
	}
}

func (p *PoolMetrics) Ran(d time.Duration, err error) {
	if p == nil {
		return
	}
	p.processed.Inc()
	status := "success"
	if err != nil {
		p.failed.Inc()
		status = "error"
	}
	p.processingTime.WithLabelValues(p.pool, status).Observe(d.Seconds())
}
