// Package metrics exposes Prometheus collectors for the invoice server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors recorded by the HTTP middleware and the
// invoice pipeline.
type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	InvoicesGenerated prometheus.Counter
	RenderFailures    *prometheus.CounterVec
	RenderDuration    prometheus.Histogram
}

// New registers and returns the collectors on the default registry.
// namespace distinguishes multiple services scraped by one Prometheus.
func New(namespace string) *Metrics {
	return &Metrics{
		RequestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by method and route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		InvoicesGenerated: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_generated_total",
			Help:      "Successfully generated invoice PDFs.",
		}),
		RenderFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_failures_total",
			Help:      "Failed invoice renders by reason.",
		}, []string{"reason"}),
		RenderDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "End-to-end invoice render latency.",
			// Rendering launches a browser; latencies run well past DefBuckets.
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}
}
