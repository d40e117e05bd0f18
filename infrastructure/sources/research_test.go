package sources

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openboycott/scorecard/infrastructure/llm"
	"github.com/openboycott/scorecard/internal/domain"
)

func newResearchTestSource(t *testing.T, responses ...llm.MockResult) *GroundedResearchSource {
	t.Helper()

	client := llm.NewClientFromCore(llm.NewMockCoreLLM("mock-model", responses...))
	policy := fastPolicy(2)
	source, err := NewGroundedResearchSource(client, ResearchConfig{
		Categories: articleTestCategories(t),
		Retry:      &policy,
	}, zap.NewNop())
	require.NoError(t, err)
	return source
}

func TestGroundedResearchSourceParsesResponse(t *testing.T) {
	t.Parallel()

	source := newResearchTestSource(t, llm.MockResult{
		Response: "Here is my assessment:\n```json\n{\"ENV\": [90, 40], \"PAY\": [30, 65]}\n```",
	})

	report, err := source.Fetch(context.Background(), domain.Company{Name: "Acme"})
	require.NoError(t, err)

	require.Len(t, report.Observations, 2)
	assert.InDelta(t, 90.0, report.Observations["ENV"].Confidence, 1e-9)
	assert.InDelta(t, 40.0, report.Observations["ENV"].Score, 1e-9)
	assert.Empty(t, report.Links)
}

func TestGroundedResearchSourceDropsMalformedEntries(t *testing.T) {
	t.Parallel()

	source := newResearchTestSource(t, llm.MockResult{
		Response: `{"ENV": [90, 40], "PAY": "unknown", "QUEER": [50]}`,
	})

	report, err := source.Fetch(context.Background(), domain.Company{Name: "Acme"})
	require.NoError(t, err)

	require.Len(t, report.Observations, 1)
	assert.Contains(t, report.Observations, "ENV")
}

func TestGroundedResearchSourceNoPayloadIsError(t *testing.T) {
	t.Parallel()

	source := newResearchTestSource(t, llm.MockResult{Response: "I cannot rate this company."})

	_, err := source.Fetch(context.Background(), domain.Company{Name: "Acme"})
	require.ErrorIs(t, err, ErrNoPayload)
}

func TestGroundedResearchSourceRetriesTransientFailure(t *testing.T) {
	t.Parallel()

	transient := llm.NewProviderError("mock", llm.ErrorTypeServerError, 503, "overloaded", nil)
	source := newResearchTestSource(t,
		llm.MockResult{Err: transient},
		llm.MockResult{Response: `{"ENV": [90, 40]}`},
	)

	report, err := source.Fetch(context.Background(), domain.Company{Name: "Acme"})
	require.NoError(t, err)
	assert.Contains(t, report.Observations, "ENV")
}

func TestBuildResearchPrompt(t *testing.T) {
	t.Parallel()

	prompt := buildResearchPrompt("Acme", articleTestCategories(t))

	assert.Contains(t, prompt, "COMPANY NAME: Acme")
	assert.Contains(t, prompt, "ENV: environmental impact and pollution")
	assert.Contains(t, prompt, "PAY: fair pay and working conditions")
	assert.Contains(t, prompt, "omit it from the answer")
}
