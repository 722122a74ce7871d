// Package metrics defines the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "frontdesk"

type Metrics struct {
	Requests     *prometheus.CounterVec
	Duration     *prometheus.HistogramVec
	CheckIns     *prometheus.CounterVec
	Renewals     *prometheus.CounterVec
	ScansIgnored prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method"},
		),
		CheckIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkins_total",
				Help:      "Check-in attempts by admission outcome",
			},
			[]string{"outcome"},
		),
		Renewals: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "renewals_total",
				Help:      "Completed renewals by plan",
			},
			[]string{"plan"},
		),
		ScansIgnored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scans_ignored_total",
			Help:      "Duplicate scans suppressed by the debounce window",
		}),
	}
	reg.MustRegister(m.Requests, m.Duration, m.CheckIns, m.Renewals, m.ScansIgnored)
	return m
}

// NewRegistry returns a registry preloaded with Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler serves the exposition format for g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// CheckIn, Renewal and ScanIgnored are no-ops on a nil *Metrics.

func (m *Metrics) CheckIn(outcome string) {
	if m == nil {
		return
	}
	m.CheckIns.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Renewal(plan string) {
	if m == nil {
		return
	}
	m.Renewals.WithLabelValues(plan).Inc()
}

func (m *Metrics) ScanIgnored() {
	if m == nil {
		return
	}
	m.ScansIgnored.Inc()
}
