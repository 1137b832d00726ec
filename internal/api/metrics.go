package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus metrics for the inference API. Each
// server owns its registry so tests can construct servers freely
// without duplicate-registration panics.
type Metrics struct {
	RequestCounter    *prometheus.CounterVec
	PredictLatency    prometheus.Histogram
	PredictionsTotal  prometheus.Counter
	LogAppendFailures prometheus.Counter
	registry          *prometheus.Registry
}

// NewMetrics creates and registers all metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		RequestCounter: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seatwise_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"path", "method", "status"},
		),
		PredictLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "seatwise_predict_duration_seconds",
				Help:    "Waste prediction latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
		),
		PredictionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seatwise_predictions_total",
				Help: "Total number of successfully scored records",
			},
		),
		LogAppendFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "seatwise_log_append_failures_total",
				Help: "Prediction log appends that failed",
			},
		),
		registry: registry,
	}

	registry.MustRegister(m.RequestCounter)
	registry.MustRegister(m.PredictLatency)
	registry.MustRegister(m.PredictionsTotal)
	registry.MustRegister(m.LogAppendFailures)

	return m
}

// Handler serves the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
