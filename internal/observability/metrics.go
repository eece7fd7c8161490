// Package observability provides Prometheus metrics and optional OpenTelemetry
// tracing for the script subsystem. Everything is injected — no global state.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus collectors, registered on a private registry.
type Metrics struct {
	Registry *prometheus.Registry

	// Script execution metrics.
	ExecutionsTotal   *prometheus.CounterVec
	ExecutionDuration *prometheus.HistogramVec
	ActiveExecutions  prometheus.Gauge

	// Security metrics.
	PermissionDenials *prometheus.CounterVec

	// Load metrics.
	LoadsTotal *prometheus.CounterVec
}

// NewMetrics creates a Metrics with all collectors registered on a fresh
// prometheus.Registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		Registry: reg,

		ExecutionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sandscript",
			Subsystem: "script",
			Name:      "executions_total",
			Help:      "Total script tool executions.",
		}, []string{"script", "status"}),

		ExecutionDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sandscript",
			Subsystem: "script",
			Name:      "execution_duration_seconds",
			Help:      "Script execution duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"script"}),

		ActiveExecutions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "sandscript",
			Subsystem: "script",
			Name:      "active_executions",
			Help:      "Script executions currently in flight.",
		}),

		PermissionDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sandscript",
			Subsystem: "sandbox",
			Name:      "permission_denials_total",
			Help:      "Access attempts rejected by a capability grant.",
		}, []string{"script", "capability"}),

		LoadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sandscript",
			Subsystem: "loader",
			Name:      "loads_total",
			Help:      "Script load attempts by outcome.",
		}, []string{"status"}),
	}

	reg.MustRegister(
		m.ExecutionsTotal,
		m.ExecutionDuration,
		m.ActiveExecutions,
		m.PermissionDenials,
		m.LoadsTotal,
	)

	return m
}
