package ports

import (
	"context"
	"time"

	"github.com/openboycott/scorecard/internal/domain"
)

// LLMClient defines the interface for interacting with large language
// model providers. Implementations handle provider-specific details like
// authentication, request formatting, and response parsing.
type LLMClient interface {
	// Complete sends a completion request and returns the generated text.
	// The options map carries provider-specific settings; common keys are
	// "temperature" (float64), "max_tokens" (int), and "model" (string).
	Complete(ctx context.Context, prompt string, options map[string]any) (string, error)

	// GetModel returns the model identifier used by this client, for
	// logging and metrics labels.
	GetModel() string
}

// SearchResult is one hit from a web search.
type SearchResult struct {
	Title   string
	Link    string
	Snippet string
}

// SearchClient performs web searches for the article source.
type SearchClient interface {
	// Search runs one query and returns the result items, possibly empty.
	Search(ctx context.Context, query string) ([]SearchResult, error)
}

// RecordStore persists company records keyed by normalized company
// identifier. Implementations merge new records into whatever is already
// stored, overwriting only the keys being written.
type RecordStore interface {
	// Load returns all stored records. A store that does not exist yet
	// loads as an empty map, not an error.
	Load(ctx context.Context) (map[string]domain.CompanyRecord, error)

	// Merge writes the given records into the store, replacing prior
	// records for the same keys and leaving every other key untouched.
	Merge(ctx context.Context, records map[string]domain.CompanyRecord) error
}

// MetricsCollector defines the interface for collecting operational
// metrics. Implementations integrate with observability platforms such as
// Prometheus; a nil collector is valid everywhere and disables collection.
type MetricsCollector interface {
	// RecordLatency records the execution time of an operation.
	RecordLatency(operation string, duration time.Duration, labels map[string]string)

	// RecordCounter increments a counter metric, e.g. rejected
	// observations or source failures.
	RecordCounter(metric string, value float64, labels map[string]string)

	// RecordGauge sets the current value of a gauge metric, e.g. the
	// aggregate confidence of the last analysis.
	RecordGauge(metric string, value float64, labels map[string]string)
}
