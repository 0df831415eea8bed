// Package metrics defines the Prometheus collectors exported by the calendar server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "calendar"

// Metrics groups the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Requests      *prometheus.CounterVec
	Latency       *prometheus.HistogramVec
	SeriesOps     *prometheus.CounterVec
	SeriesMembers prometheus.Histogram
	AlarmsFired   prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "code"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		SeriesOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "series_operations_total",
			Help:      "Recurring series operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		SeriesMembers: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "series_members",
			Help:      "Number of events materialized per series.",
			Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
		}),
		AlarmsFired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "alarms_fired_total",
			Help:      "Event alarms delivered.",
		}),
	}
	reg.MustRegister(
		m.Requests, m.Latency, m.SeriesOps, m.SeriesMembers, m.AlarmsFired,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// SeriesOp counts one series operation.
func (m *Metrics) SeriesOp(op string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.SeriesOps.WithLabelValues(op, outcome).Inc()
}

// SeriesCreated records the size of a newly materialized series.
func (m *Metrics) SeriesCreated(members int) {
	if m == nil {
		return
	}
	m.SeriesMembers.Observe(float64(members))
}

// AlarmFired counts one delivered alarm.
func (m *Metrics) AlarmFired() {
	if m == nil {
		return
	}
	m.AlarmsFired.Inc()
}
