package application

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validConfigYAML = `
categories:
  ENV: "Environmental impact"
  PAY: "Fair wages"
companies:
  - name: Acme Corp
    symbol: ACME
  - name: Globex
llm:
  provider: google
  model: gemini-2.0-flash
  api_key: test-llm-key
search:
  api_key: test-search-key
  engine_id: engine-123
esg:
  api_key: test-esg-key
retry:
  max_attempts: 3
  base_wait_ms: 500
parallelism: 2
store_path: data/companies.json
`

func newLoader(t *testing.T) *ConfigLoader {
	t.Helper()
	loader, err := NewConfigLoader()
	require.NoError(t, err)
	return loader
}

func TestConfigLoaderParsesValidConfig(t *testing.T) {
	loader := newLoader(t)

	config, err := loader.LoadFromReader(strings.NewReader(validConfigYAML))
	require.NoError(t, err)

	assert.Len(t, config.Companies, 2)
	assert.Equal(t, "Acme Corp", config.Companies[0].Name)
	assert.Equal(t, "ACME", config.Companies[0].Symbol)
	assert.Equal(t, "google", config.LLM.Provider)
	assert.Equal(t, "engine-123", config.Search.EngineID)
	assert.Equal(t, 2, config.Parallelism)
	assert.Equal(t, "data/companies.json", config.StorePath)

	categories, err := config.CategorySet()
	require.NoError(t, err)
	assert.Equal(t, []string{"ENV", "PAY"}, categories.Codes())
}

func TestConfigLoaderDefaults(t *testing.T) {
	loader := newLoader(t)

	config, err := loader.LoadFromReader(strings.NewReader(`
companies:
  - name: Acme
llm:
  provider: openai
  api_key: key
`))
	require.NoError(t, err)

	assert.Equal(t, DefaultParallelism, config.Parallelism)
	assert.Equal(t, DefaultStorePath, config.StorePath)

	categories, err := config.CategorySet()
	require.NoError(t, err)
	assert.Equal(t, 8, categories.Len())
	description, ok := categories.Description("ENV")
	require.True(t, ok)
	assert.Equal(t, "Environmental impact", description)
}

func TestConfigLoaderExpandsEnvironment(t *testing.T) {
	t.Setenv("SCORECARD_TEST_KEY", "expanded-key")

	loader := newLoader(t)
	config, err := loader.LoadFromReader(strings.NewReader(`
companies:
  - name: Acme
llm:
  provider: google
  api_key: ${SCORECARD_TEST_KEY}
`))
	require.NoError(t, err)
	assert.Equal(t, "expanded-key", config.LLM.APIKey)
}

func TestConfigLoaderAcceptsCredentialFreeConfig(t *testing.T) {
	loader := newLoader(t)

	// Offline runs substitute fixture sources, so a config may omit the
	// provider block entirely.
	config, err := loader.LoadFromReader(strings.NewReader(`
companies:
  - name: Acme
`))
	require.NoError(t, err)
	assert.Empty(t, config.LLM.Provider)
	assert.Empty(t, config.LLM.APIKey)

	// An empty api_key with a provider set also parses; live wiring is
	// responsible for rejecting it.
	config, err = loader.LoadFromReader(strings.NewReader(`
companies:
  - name: Acme
llm:
  provider: google
`))
	require.NoError(t, err)
	assert.Equal(t, "google", config.LLM.Provider)
	assert.Empty(t, config.LLM.APIKey)
}

func TestConfigLoaderRejections(t *testing.T) {
	loader := newLoader(t)

	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "no companies",
			yaml: "llm: {provider: google, api_key: key}\ncompanies: []",
		},
		{
			name: "company without name",
			yaml: "llm: {provider: google, api_key: key}\ncompanies: [{symbol: ACME}]",
		},
		{
			name: "unknown provider",
			yaml: "llm: {provider: cohere, api_key: key}\ncompanies: [{name: Acme}]",
		},
		{
			name: "lowercase category code",
			yaml: "llm: {provider: google, api_key: key}\ncompanies: [{name: Acme}]\ncategories: {env: Environmental}",
		},
		{
			name: "empty category description",
			yaml: "llm: {provider: google, api_key: key}\ncompanies: [{name: Acme}]\ncategories: {ENV: \"\"}",
		},
		{
			name: "parallelism out of range",
			yaml: "llm: {provider: google, api_key: key}\ncompanies: [{name: Acme}]\nparallelism: 100",
		},
		{
			name: "not yaml",
			yaml: "{{{{",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.LoadFromReader(strings.NewReader(tt.yaml))
			require.Error(t, err)
		})
	}
}

func TestConfigLoaderLoadFromFile(t *testing.T) {
	loader := newLoader(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validConfigYAML), 0o644))

	config, err := loader.LoadFromFile(path)
	require.NoError(t, err)
	assert.Len(t, config.Companies, 2)

	_, err = loader.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
