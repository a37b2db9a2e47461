// Package metrics provides Prometheus metrics for txtweaver.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes all txtweaver metric names.
const Namespace = "txtweaver"

var (
	// BuildInfo exposes the build version as labels on a constant gauge.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information for txtweaver.",
	}, []string{"version", "go_version"})

	// OperationsTotal counts record operations by outcome.
	// operation: add, delete. result: success, error.
	OperationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "operations_total",
		Help:      "Total number of dynamic update operations.",
	}, []string{"operation", "result"})

	// OperationDuration observes end-to-end operation latency, including
	// CNAME chasing and zone resolution.
	OperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "operation_duration_seconds",
		Help:      "Duration of dynamic update operations in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"operation"})

	// ZoneProbesTotal counts SOA probe attempts by outcome.
	// result: authoritative, not_authoritative, error.
	ZoneProbesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "zone_probes_total",
		Help:      "Total number of SOA probes sent during zone resolution.",
	}, []string{"result"})

	// HTTPRequestsTotal counts serve-mode HTTP requests.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests handled by the challenge server.",
	}, []string{"endpoint", "code"})
)

// SetBuildInfo records version information as a constant metric.
func SetBuildInfo(version, goVersion string) {
	BuildInfo.WithLabelValues(version, goVersion).Set(1)
}

// RecordOperation records the outcome and duration of an update operation.
func RecordOperation(operation string, seconds float64, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	OperationsTotal.WithLabelValues(operation, result).Inc()
	OperationDuration.WithLabelValues(operation).Observe(seconds)
}
