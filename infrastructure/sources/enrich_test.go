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

func newTestEnricher(t *testing.T, responses ...llm.MockResult) *LLMEnricher {
	t.Helper()

	client := llm.NewClientFromCore(llm.NewMockCoreLLM("mock-model", responses...))
	policy := fastPolicy(2)
	enricher, err := NewLLMEnricher(client, &policy, zap.NewNop())
	require.NoError(t, err)
	return enricher
}

func TestEnricherCompetitors(t *testing.T) {
	t.Parallel()

	enricher := newTestEnricher(t, llm.MockResult{
		Response: "Sure, the main competitors are: `Globex, Initech, Umbrella Corp`",
	})

	names, err := enricher.Competitors(context.Background(), domain.Company{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Globex", "Initech", "Umbrella Corp"}, names)
}

func TestEnricherAlternateNames(t *testing.T) {
	t.Parallel()

	enricher := newTestEnricher(t, llm.MockResult{
		Response: "`Acme Corporation, ACME Holdings`",
	})

	names, err := enricher.AlternateNames(context.Background(), domain.Company{Name: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Acme Corporation", "ACME Holdings"}, names)
}

func TestEnricherParseList(t *testing.T) {
	t.Parallel()

	enricher := newTestEnricher(t)

	tests := []struct {
		name     string
		response string
		company  string
		want     []string
	}{
		{
			name:     "no backticks yields nothing",
			response: "Globex, Initech",
			company:  "Acme",
			want:     nil,
		},
		{
			name:     "none answer yields nothing",
			response: "`none`",
			company:  "Acme",
			want:     nil,
		},
		{
			name:     "company's own name is dropped",
			response: "`Acme, Globex`",
			company:  "Acme",
			want:     []string{"Globex"},
		},
		{
			name:     "case variants of the company name are dropped",
			response: "`ACME, Globex`",
			company:  "Acme",
			want:     []string{"Globex"},
		},
		{
			name:     "distinct suffix variants are kept",
			response: "`Globex, Globex Inc, Initech`",
			company:  "Acme",
			want:     []string{"Globex", "Globex Inc", "Initech"},
		},
		{
			name:     "typo-level duplicates are collapsed",
			response: "`Globex, Globexx, Initech`",
			company:  "Acme",
			want:     []string{"Globex", "Initech"},
		},
		{
			name:     "empty entries are dropped",
			response: "`Globex, , Initech,`",
			company:  "Acme",
			want:     []string{"Globex", "Initech"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, enricher.parseList(tt.response, tt.company))
		})
	}
}

func TestEnricherPropagatesProviderFailure(t *testing.T) {
	t.Parallel()

	fatal := llm.NewProviderError("mock", llm.ErrorTypeAuthentication, 401, "bad key", nil)
	enricher := newTestEnricher(t, llm.MockResult{Err: fatal})

	_, err := enricher.Competitors(context.Background(), domain.Company{Name: "Acme"})
	require.Error(t, err)
	assert.ErrorIs(t, err, fatal)
}
