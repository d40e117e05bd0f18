package middleware

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusMetricsCounters(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(reg)

	pm.RecordCounter("llm_requests_total", 1, map[string]string{
		"model":  "gemini-2.0-flash",
		"status": "success",
	})
	pm.RecordCounter("llm_requests_total", 1, map[string]string{
		"model":  "gemini-2.0-flash",
		"status": "rate_limit",
	})
	pm.RecordCounter("observations_rejected_total", 1, map[string]string{
		"source": "grounded_research",
	})
	pm.RecordCounter("source_failures_total", 1, map[string]string{
		"source": "esg_disclosure",
	})
	pm.RecordCounter("source_stage_failures_total", 2, map[string]string{
		"source": "article_analysis",
		"stage":  "search",
	})
	pm.RecordCounter("companies_analyzed_total", 3, nil)

	assert.InDelta(t, 1.0, testutil.ToFloat64(
		pm.llmRequests.WithLabelValues("gemini-2.0-flash", "success")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(
		pm.llmRequests.WithLabelValues("gemini-2.0-flash", "rate_limit")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(
		pm.rejectedObservations.WithLabelValues("grounded_research")), 1e-9)
	assert.InDelta(t, 1.0, testutil.ToFloat64(
		pm.sourceFailures.WithLabelValues("esg_disclosure", "fetch")), 1e-9)
	assert.InDelta(t, 2.0, testutil.ToFloat64(
		pm.sourceFailures.WithLabelValues("article_analysis", "search")), 1e-9)
	assert.InDelta(t, 3.0, testutil.ToFloat64(
		pm.operationCounter.WithLabelValues("companies_analyzed_total", "success")), 1e-9)
}

func TestPrometheusMetricsGaugeAndLatency(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	pm := NewPrometheusMetrics(reg)

	pm.RecordGauge("aggregate_confidence", 180.5, map[string]string{"company": "acmecorp"})
	assert.InDelta(t, 180.5, testutil.ToFloat64(
		pm.systemGauges.WithLabelValues("aggregate_confidence", "acmecorp")), 1e-9)

	pm.RecordLatency("llm_request", 250*time.Millisecond, map[string]string{"status": "success"})

	count := testutil.CollectAndCount(pm.requestLatency)
	require.Equal(t, 1, count, "one histogram series expected")
}
