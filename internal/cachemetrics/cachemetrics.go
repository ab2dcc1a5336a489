// Package cachemetrics wires the cache's observable counters (hits,
// misses, evictions, weighted size, operation latency) to Prometheus.
// It is entirely optional ambient infrastructure: a Cache built
// without WithMetrics runs with a nil *Metrics and every method here
// degrades to a no-op on a nil receiver.
package cachemetrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus instruments for one cache instance.
type Metrics struct {
	registry *prometheus.Registry

	hits       prometheus.Counter
	misses     prometheus.Counter
	insertions prometheus.Counter
	evictions  *prometheus.CounterVec // labeled by cause
	size       prometheus.Gauge
	weight     prometheus.Gauge
	latency    *prometheus.HistogramVec // labeled by op
}

var defaultLatencyBuckets = []float64{
	0.000001, 0.000005, 0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01,
}

// New builds a Metrics instance registered under namespace/subsystem
// on its own private registry, mirroring the teacher/pack's
// GabrielNunesIT-go-libs/metrics.Registry factory shape.
func New(namespace, subsystem string) *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		registry: reg,
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "hits_total", Help: "Cache get operations that found a live entry.",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "misses_total", Help: "Cache get operations that found no live entry.",
		}),
		insertions: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "insertions_total", Help: "Cache insert operations.",
		}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "evictions_total", Help: "Entries removed, labeled by cause.",
		}, []string{"cause"}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "entries", Help: "Current live entry count.",
		}),
		weight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "weighted_size", Help: "Current sum of live entry weights.",
		}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: subsystem, Name: "operation_latency_seconds", Help: "Foreground operation latency, labeled by op.",
			Buckets: defaultLatencyBuckets,
		}, []string{"op"}),
	}

	reg.MustRegister(m.hits, m.misses, m.insertions, m.evictions, m.size, m.weight, m.latency)
	return m
}

// Handler serves the registry in Prometheus exposition format, nil if
// m is nil.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return nil
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordHit() {
	if m == nil {
		return
	}
	m.hits.Inc()
}

func (m *Metrics) RecordMiss() {
	if m == nil {
		return
	}
	m.misses.Inc()
}

func (m *Metrics) RecordInsertion() {
	if m == nil {
		return
	}
	m.insertions.Inc()
}

func (m *Metrics) RecordEviction(cause string) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(cause).Inc()
}

func (m *Metrics) SetSize(count, weight int64) {
	if m == nil {
		return
	}
	m.size.Set(float64(count))
	m.weight.Set(float64(weight))
}

// ObserveLatency records how long op took. Intended use:
//
//	defer m.ObserveLatency("get", time.Now())
func (m *Metrics) ObserveLatency(op string, start time.Time) {
	if m == nil {
		return
	}
	m.latency.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
