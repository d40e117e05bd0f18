// Package sources provides the concrete ports.Source implementations that
// gather observations from external signals: web search plus LLM article
// analysis, financial ESG disclosures, and grounded LLM research. Every
// source degrades to an empty report on failure; nothing in this package
// can abort an analysis run.
package sources

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/openboycott/scorecard/internal/domain"
	"github.com/openboycott/scorecard/internal/ports"
)

// Common errors returned by sources.
var (
	// ErrNoPayload indicates an LLM response with no recognizable JSON object.
	ErrNoPayload = errors.New("no JSON payload found in response")

	// ErrEmptyProviderResponse indicates a provider response with no usable data.
	ErrEmptyProviderResponse = errors.New("provider returned no data")
)

// tracerName is the instrumentation scope for source spans.
const tracerName = "scorecard/sources"

// extractJSONObject locates and decodes the first JSON object in an LLM
// response. Models wrap payloads in prose or markdown fences often enough
// that decoding the raw response directly is not reliable. Numbers are
// decoded as json.Number so observation parsing controls the conversion.
func extractJSONObject(text string) (map[string]any, error) {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return nil, fmt.Errorf("%w: %q", ErrNoPayload, truncate(text, 120))
	}

	decoder := json.NewDecoder(strings.NewReader(text[start : end+1]))
	decoder.UseNumber()

	var payload map[string]any
	if err := decoder.Decode(&payload); err != nil {
		return nil, fmt.Errorf("malformed JSON payload: %w", err)
	}
	return payload, nil
}

// decodeObservations normalizes a raw category-to-pair payload, logging
// and counting each rejected entry. Rejections are observable but never
// fatal.
func decodeObservations(
	raw map[string]any,
	sourceName string,
	logger *zap.Logger,
	metrics ports.MetricsCollector,
) domain.ObservationSet {
	set, rejected := domain.ParseObservationSet(raw)
	for _, r := range rejected {
		logger.Warn("discarding malformed observation",
			zap.String("source", sourceName),
			zap.String("category", r.Category),
			zap.Any("value", r.Value),
			zap.Error(r.Err),
		)
		if metrics != nil {
			metrics.RecordCounter("observations_rejected_total", 1, map[string]string{
				"source": sourceName,
			})
		}
	}
	return set
}

// truncate shortens s for log and error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
