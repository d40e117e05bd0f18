package llm

import (
	"context"
	"errors"
	"time"

	"github.com/openboycott/scorecard/internal/ports"
)

// metricsLLM records request latency, outcomes, and error categories for
// operational monitoring.
type metricsLLM struct {
	next      CoreLLM
	collector ports.MetricsCollector
}

// MetricsMiddleware creates middleware that reports request metrics
// through the given collector. A nil collector disables collection.
func MetricsMiddleware(collector ports.MetricsCollector) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &metricsLLM{next: next, collector: collector}
	}
}

// DoRequest executes the request while recording latency and outcome.
func (m *metricsLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	start := time.Now()
	response, err := m.next.DoRequest(ctx, prompt, opts)

	if m.collector != nil {
		labels := map[string]string{
			"model":  m.next.GetModel(),
			"status": statusLabel(ctx, err),
		}
		m.collector.RecordLatency("llm_request", time.Since(start), labels)
		m.collector.RecordCounter("llm_requests_total", 1, labels)
	}

	return response, err
}

func statusLabel(ctx context.Context, err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "timeout"
	default:
		var pe *ProviderError
		if errors.As(err, &pe) {
			if s := pe.typeString(); s != "" {
				return s
			}
		}
		return "error"
	}
}

// GetModel returns the model name from the wrapped implementation.
func (m *metricsLLM) GetModel() string { return m.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (m *metricsLLM) SetModel(model string) { m.next.SetModel(model) }
