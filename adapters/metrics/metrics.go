// Package metrics provides Prometheus metrics collection for socketgate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds all Prometheus metrics for socketgate.
type Collector struct {
	// Connection metrics
	ConnectionsActive prometheus.Gauge
	ConnectionsTotal  prometheus.Counter

	// Message metrics
	MessagesTotal   *prometheus.CounterVec
	MessageDuration *prometheus.HistogramVec
	MessagesIgnored prometheus.Counter
	SendErrors      prometheus.Counter

	// Auth metrics
	AuthFailures *prometheus.CounterVec

	// Config metrics
	ConfigReloads      prometheus.Counter
	ConfigReloadErrors prometheus.Counter
}

// New creates a new metrics collector with all metrics registered.
func New() *Collector {
	return &Collector{
		ConnectionsActive: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "socketgate",
				Name:      "connections_active",
				Help:      "Number of currently open websocket connections",
			},
		),
		ConnectionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "socketgate",
				Name:      "connections_total",
				Help:      "Total number of accepted websocket connections",
			},
		),

		MessagesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "socketgate",
				Name:      "messages_total",
				Help:      "Total number of handled action messages",
			},
			[]string{"action", "status"},
		),
		MessageDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "socketgate",
				Name:      "message_duration_seconds",
				Help:      "Action message handling duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"action"},
		),
		MessagesIgnored: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "socketgate",
				Name:      "messages_ignored_total",
				Help:      "Total number of messages skipped for a foreign type discriminant",
			},
		),
		SendErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "socketgate",
				Name:      "send_errors_total",
				Help:      "Total number of failed reply sends",
			},
		),

		AuthFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "socketgate",
				Name:      "auth_failures_total",
				Help:      "Total number of websocket authentication failures",
			},
			[]string{"reason"},
		),

		ConfigReloads: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "socketgate",
				Name:      "config_reloads_total",
				Help:      "Total number of successful config reloads",
			},
		),
		ConfigReloadErrors: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: "socketgate",
				Name:      "config_reload_errors_total",
				Help:      "Total number of failed config reloads",
			},
		),
	}
}
