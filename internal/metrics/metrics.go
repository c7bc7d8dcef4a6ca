// Package metrics defines Prometheus metrics for GhorBari.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ghorbari_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	RequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghorbari_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	ErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghorbari_errors_total",
			Help: "Total errors by type",
		},
		[]string{"type"},
	)

	NegotiationTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ghorbari_negotiation_transitions_total",
			Help: "Negotiation transitions by action and outcome",
		},
		[]string{"action", "outcome"},
	)

	AuditQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ghorbari_audit_queue_depth",
			Help: "Current audit queue depth",
		},
	)

	WSConnections = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ghorbari_websocket_connections",
			Help: "Active WebSocket connections",
		},
	)

	PropertiesByStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ghorbari_properties",
			Help: "Property count by status",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		RequestDuration, RequestsTotal, ErrorsTotal,
		NegotiationTransitions, AuditQueueDepth, WSConnections,
		PropertiesByStatus,
	)
}
