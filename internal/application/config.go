// Package application orchestrates the analysis pipeline: configuration
// loading, per-company source fan-out, aggregation, and persistence.
package application

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/openboycott/scorecard/internal/domain"
)

// DefaultCategories returns the standard category set used when a run
// does not configure its own.
func DefaultCategories() domain.CategorySet {
	set, err := domain.NewCategorySet(map[string]string{
		"DEI_L":   "DEI in leadership",
		"DEI_H":   "DEI in hiring",
		"QUEER":   "LGBTQ support",
		"BIPOC":   "BIPOC support",
		"PAY":     "Fair wages",
		"ENV":     "Environmental impact",
		"CHARITY": "Charitable donations",
		"POLI":    "Progressive political engagement",
	})
	if err != nil {
		panic(fmt.Sprintf("default category set is invalid: %v", err))
	}
	return set
}

// Config is the complete specification for an analysis run and serves as
// the primary configuration entry point for the system.
type Config struct {
	// Categories maps category codes to the natural-language descriptions
	// used in search queries and scoring prompts. When empty, the default
	// category set is used.
	Categories map[string]string `yaml:"categories" validate:"omitempty,dive,keys,categorycode,endkeys,required,min=1"`

	// Companies lists the companies to analyze in this run.
	Companies []domain.Company `yaml:"companies" validate:"required,min=1,dive"`

	// LLM configures the completion provider shared by the scoring
	// sources and the enricher. Provider and APIKey may stay empty for
	// offline runs; live wiring checks them at source construction.
	LLM LLMConfig `yaml:"llm"`

	// Search configures the web search backend for the article source.
	// An empty API key disables the article source.
	Search SearchConfig `yaml:"search"`

	// ESG configures the financial ESG disclosure source. An empty API
	// key disables the source.
	ESG ESGConfig `yaml:"esg"`

	// Retry overrides the provider retry budget shared by all sources.
	Retry RetryConfig `yaml:"retry"`

	// Parallelism bounds how many companies are analyzed concurrently.
	Parallelism int `yaml:"parallelism" validate:"omitempty,min=1,max=64"`

	// StorePath locates the JSON record store.
	StorePath string `yaml:"store_path"`
}

// LLMConfig selects and configures a completion provider.
type LLMConfig struct {
	// Provider is the registered provider type: google, openai, or
	// anthropic. Required for live runs, ignored offline.
	Provider string `yaml:"provider" validate:"omitempty,oneof=google openai anthropic"`
	// Model overrides the provider's default model.
	Model string `yaml:"model"`
	// APIKey authenticates requests. Environment references in the form
	// ${VAR} are expanded at load time. Required for live runs.
	APIKey string `yaml:"api_key"`
	// RequestsPerMinute paces completion requests; zero disables pacing.
	RequestsPerMinute int `yaml:"requests_per_minute" validate:"omitempty,min=1,max=10000"`
	// TimeoutSeconds bounds each completion request.
	TimeoutSeconds int `yaml:"timeout_seconds" validate:"omitempty,min=1,max=600"`
}

// SearchConfig configures the web search backend.
type SearchConfig struct {
	// APIKey authenticates search requests.
	APIKey string `yaml:"api_key"`
	// EngineID identifies the programmable search engine.
	EngineID string `yaml:"engine_id" validate:"required_with=APIKey"`
}

// ESGConfig configures the ESG disclosure source.
type ESGConfig struct {
	// APIKey authenticates disclosure requests.
	APIKey string `yaml:"api_key"`
	// BaseURL overrides the disclosure endpoint, mainly for tests.
	BaseURL string `yaml:"base_url" validate:"omitempty,url"`
}

// RetryConfig specifies the provider retry budget shared by the sources.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts including the first,
	// where 0 keeps the default.
	MaxAttempts int `yaml:"max_attempts" validate:"omitempty,min=1,max=10"`
	// BaseWaitMS is the delay in milliseconds before the first retry.
	BaseWaitMS int `yaml:"base_wait_ms" validate:"omitempty,min=1,max=60000"`
	// MaxWaitMS caps the backoff growth in milliseconds.
	MaxWaitMS int `yaml:"max_wait_ms" validate:"omitempty,min=1,max=300000"`
}

// Defaults applied to optional settings after parsing.
const (
	DefaultParallelism = 4
	DefaultStorePath   = "companies.json"
)

// CategorySet builds the immutable category set for this run, falling
// back to the defaults when no categories are configured.
func (c *Config) CategorySet() (domain.CategorySet, error) {
	if len(c.Categories) == 0 {
		return DefaultCategories(), nil
	}
	return domain.NewCategorySet(c.Categories)
}

// RetryDurations converts the configured retry budget to durations,
// returning zeros for unset fields so callers can keep their defaults.
func (c RetryConfig) RetryDurations() (base, max time.Duration) {
	return time.Duration(c.BaseWaitMS) * time.Millisecond,
		time.Duration(c.MaxWaitMS) * time.Millisecond
}

// ConfigLoader parses and validates run configurations.
type ConfigLoader struct {
	validator *validator.Validate
}

// NewConfigLoader registers the custom category-code validator and
// returns a loader.
func NewConfigLoader() (*ConfigLoader, error) {
	v := validator.New()
	if err := v.RegisterValidation("categorycode", validateCategoryCodeTag); err != nil {
		return nil, fmt.Errorf("failed to register categorycode validator: %w", err)
	}
	return &ConfigLoader{validator: v}, nil
}

// LoadFromFile reads, expands, parses, and validates the configuration at
// path. Environment references in the form ${VAR} are expanded before
// parsing so API keys can stay out of the file.
func (cl *ConfigLoader) LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	return cl.load(data)
}

// LoadFromReader parses and validates a configuration from r.
func (cl *ConfigLoader) LoadFromReader(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return cl.load(data)
}

func (cl *ConfigLoader) load(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expanded), &config); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if config.Parallelism == 0 {
		config.Parallelism = DefaultParallelism
	}
	if config.StorePath == "" {
		config.StorePath = DefaultStorePath
	}

	if err := cl.validator.Struct(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	// Struct tags cannot see into the category map as a whole, so the
	// code and description constraints are checked semantically.
	if _, err := config.CategorySet(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &config, nil
}

// validateCategoryCodeTag is a validator.Func for the categorycode struct
// tag, accepting short uppercase identifiers like ENV or DEI_L.
func validateCategoryCodeTag(fl validator.FieldLevel) bool {
	return domain.IsCategoryCode(fl.Field().String())
}
