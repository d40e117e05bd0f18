package sources

import (
	"context"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/openboycott/scorecard/internal/domain"
	"github.com/openboycott/scorecard/internal/ports"
)

var _ ports.Source = (*GroundedResearchSource)(nil)

// GroundedResearchSource asks a research-capable model to score every
// category directly from its own knowledge, self-reporting confidence by
// how much sourcing it can marshal per category. It is the cheapest
// source and the only one that covers categories with no ESG disclosure
// and no recent press.
type GroundedResearchSource struct {
	llmClient  ports.LLMClient
	categories domain.CategorySet
	retry      RetryPolicy
	logger     *zap.Logger
	metrics    ports.MetricsCollector
}

// ResearchConfig configures a GroundedResearchSource.
type ResearchConfig struct {
	// Categories is the fixed category set the model is asked to cover.
	// Required.
	Categories domain.CategorySet
	// Retry overrides the default retry policy for LLM calls.
	Retry *RetryPolicy
	// Metrics receives rejection counters. Optional.
	Metrics ports.MetricsCollector
}

// NewGroundedResearchSource creates the knowledge-based source.
func NewGroundedResearchSource(
	llmClient ports.LLMClient,
	config ResearchConfig,
	logger *zap.Logger,
) (*GroundedResearchSource, error) {
	if llmClient == nil {
		return nil, fmt.Errorf("LLM client is required")
	}
	if config.Categories.Len() == 0 {
		return nil, fmt.Errorf("category set cannot be empty")
	}

	retry := DefaultRetryPolicy()
	if config.Retry != nil {
		retry = *config.Retry
	}

	return &GroundedResearchSource{
		llmClient:  llmClient,
		categories: config.Categories,
		retry:      retry,
		logger:     logger,
		metrics:    config.Metrics,
	}, nil
}

// Name implements ports.Source.
func (s *GroundedResearchSource) Name() string { return "grounded_research" }

// Fetch implements ports.Source.
func (s *GroundedResearchSource) Fetch(ctx context.Context, company domain.Company) (ports.Report, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "GroundedResearchSource.Fetch")
	span.SetAttributes(attribute.String("company", company.Name))
	defer span.End()

	prompt := buildResearchPrompt(company.Name, s.categories)

	var response string
	err := s.retry.Do(ctx, func(ctx context.Context) error {
		var llmErr error
		response, llmErr = s.llmClient.Complete(ctx, prompt, map[string]any{
			"temperature": 0.0,
			"top_p":       0.1,
			"top_k":       1,
		})
		return llmErr
	})
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ports.Report{}, err
	}

	payload, err := extractJSONObject(response)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return ports.Report{}, fmt.Errorf("grounded research response: %w", err)
	}

	observations := decodeObservations(payload, s.Name(), s.logger, s.metrics)
	span.SetAttributes(attribute.Int("observations", len(observations)))
	return ports.Report{Observations: observations}, nil
}

// buildResearchPrompt renders the research instructions. Confidence is
// the model's own sourcing depth: ten or more independent sources earns
// 100, no sourcing at all means the category is omitted entirely rather
// than reported at zero.
func buildResearchPrompt(companyName string, categories domain.CategorySet) string {
	var b strings.Builder
	b.WriteString("Research the company named below and rate it in each category.\n\n")
	b.WriteString("COMPANY NAME: ")
	b.WriteString(companyName)
	b.WriteString("\n\nCATEGORIES:\n")
	for _, code := range categories.Codes() {
		description, _ := categories.Description(code)
		fmt.Fprintf(&b, "  %s: %s\n", code, description)
	}
	b.WriteString(`
For each category, produce a [confidence, score] pair. The confidence is
a number from 0-100 reflecting how well-sourced your assessment is: 100
means you can point to ten or more independent sources, lower numbers
mean thinner evidence. If you have no information at all for a category,
omit it from the answer; never report a guess with confidence 0. The
score rates the company in that category from 0-100, where 50 means
net-neutral impact, 100 means the company is a world leader, and 0 means
it is doing extensive, lasting damage.

Respond with exactly one JSON object and nothing else, for example:
{"ENV": [90, 40], "CHARITY": [30, 75]}
`)
	return b.String()
}
