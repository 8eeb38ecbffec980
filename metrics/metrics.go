// Package metrics registers the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the collectors the server records into.
type Metrics struct {
	Registry          *prometheus.Registry
	StatusTransitions *prometheus.CounterVec
	RejectedMoves     *prometheus.CounterVec
	ReportsCreated    *prometheus.CounterVec
	HTTPRequests      *prometheus.CounterVec
	HTTPDuration      *prometheus.HistogramVec
	EventSubscribers  prometheus.Gauge
}

// New creates the collectors on a private registry, so tests can build as
// many servers as they like.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicsetu",
			Name:      "status_transitions_total",
			Help:      "Report status changes applied, by source and target status.",
		}, []string{"from", "to"}),
		RejectedMoves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicsetu",
			Name:      "status_transitions_rejected_total",
			Help:      "Status changes refused by the transition policy or a concurrent update.",
		}, []string{"reason"}),
		ReportsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicsetu",
			Name:      "reports_created_total",
			Help:      "Reports filed, by category.",
		}, []string{"category"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "civicsetu",
			Name:      "http_requests_total",
			Help:      "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "civicsetu",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		EventSubscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "civicsetu",
			Name:      "status_event_subscribers",
			Help:      "Open status event streams.",
		}),
	}

	m.Registry.MustRegister(
		m.StatusTransitions,
		m.RejectedMoves,
		m.ReportsCreated,
		m.HTTPRequests,
		m.HTTPDuration,
		m.EventSubscribers,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}
