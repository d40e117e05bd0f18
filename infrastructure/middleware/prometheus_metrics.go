// Package middleware provides cross-cutting concerns for the analysis
// pipeline.
package middleware

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/openboycott/scorecard/internal/ports"
)

// Compile-time verification that PrometheusMetrics implements MetricsCollector.
var _ ports.MetricsCollector = (*PrometheusMetrics)(nil)

// PrometheusMetrics implements the MetricsCollector interface using
// Prometheus. It tracks provider request performance, per-source data
// quality, and per-company analysis outcomes.
type PrometheusMetrics struct {
	requestLatency       *prometheus.HistogramVec
	llmRequests          *prometheus.CounterVec
	rejectedObservations *prometheus.CounterVec
	sourceFailures       *prometheus.CounterVec
	operationCounter     *prometheus.CounterVec
	systemGauges         *prometheus.GaugeVec
}

// NewPrometheusMetrics creates a PrometheusMetrics instance and registers
// all metric families with the given registerer. Passing nil registers in
// the global default registry.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &PrometheusMetrics{
		requestLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "scorecard_operation_duration_seconds",
				Help:    "Execution time of pipeline operations such as provider requests and company analyses.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation", "status"},
		),
		llmRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorecard_llm_requests_total",
				Help: "Total LLM completion requests by model and outcome.",
			},
			[]string{"model", "status"},
		),
		rejectedObservations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorecard_observations_rejected_total",
				Help: "Malformed observations discarded during source response parsing.",
			},
			[]string{"source"},
		),
		sourceFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorecard_source_failures_total",
				Help: "Source pipeline failures by source and stage.",
			},
			[]string{"source", "stage"},
		),
		operationCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scorecard_operations_total",
				Help: "Counts of pipeline operations not covered by a dedicated family.",
			},
			[]string{"metric", "status"},
		),
		systemGauges: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scorecard_system_state",
				Help: "Current pipeline state values, such as the confidence mass of the latest analysis.",
			},
			[]string{"metric", "company"},
		),
	}
}

// RecordLatency implements the MetricsCollector interface by recording
// operation latency in a Prometheus histogram.
func (pm *PrometheusMetrics) RecordLatency(
	operation string,
	duration time.Duration,
	labels map[string]string,
) {
	pm.requestLatency.WithLabelValues(operation, statusOf(labels)).Observe(duration.Seconds())
}

// RecordCounter implements the MetricsCollector interface by routing known
// metric names to their dedicated families and everything else to the
// general operation counter.
func (pm *PrometheusMetrics) RecordCounter(
	metric string, value float64, labels map[string]string,
) {
	switch metric {
	case "llm_requests_total":
		pm.llmRequests.WithLabelValues(labels["model"], statusOf(labels)).Add(value)
	case "observations_rejected_total":
		pm.rejectedObservations.WithLabelValues(labels["source"]).Add(value)
	case "source_failures_total":
		pm.sourceFailures.WithLabelValues(labels["source"], "fetch").Add(value)
	case "source_stage_failures_total":
		pm.sourceFailures.WithLabelValues(labels["source"], labels["stage"]).Add(value)
	default:
		pm.operationCounter.WithLabelValues(metric, statusOf(labels)).Add(value)
	}
}

// RecordGauge implements the MetricsCollector interface by setting
// Prometheus gauge values.
func (pm *PrometheusMetrics) RecordGauge(
	metric string, value float64, labels map[string]string,
) {
	pm.systemGauges.WithLabelValues(metric, labels["company"]).Set(value)
}

func statusOf(labels map[string]string) string {
	if status, ok := labels["status"]; ok {
		return status
	}
	return "success"
}
