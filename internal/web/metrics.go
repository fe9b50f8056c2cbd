package web

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the server's collectors on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	requests    *prometheus.CounterVec
	jobDuration *prometheus.HistogramVec
	outputBytes *prometheus.HistogramVec
}

// NewMetrics creates and registers the prodl collectors plus the Go and
// process collectors.
func NewMetrics() *Metrics {
	m := &Metrics{Registry: prometheus.NewRegistry()}

	m.requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "prodl_requests_total",
			Help: "HTTP actions handled, by action and outcome.",
		},
		[]string{"action", "status"},
	)
	m.jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prodl_job_duration_seconds",
			Help:    "Wall time of completed download jobs.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"mode"},
	)
	// 1MB .. 4GB
	m.outputBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "prodl_output_bytes",
			Help:    "Size of delivered output files.",
			Buckets: prometheus.ExponentialBuckets(1<<20, 4, 7),
		},
		[]string{"mode"},
	)

	m.Registry.MustRegister(
		m.requests, m.jobDuration, m.outputBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) request(action, status string) {
	m.requests.WithLabelValues(action, status).Inc()
}

func (m *Metrics) job(mode string, seconds float64, bytes int64) {
	m.jobDuration.WithLabelValues(mode).Observe(seconds)
	m.outputBytes.WithLabelValues(mode).Observe(float64(bytes))
}
