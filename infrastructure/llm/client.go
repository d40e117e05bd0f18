// Package llm provides a unified interface for interacting with various
// LLM providers with built-in support for retries, rate limiting, and
// metrics collection.
//
// The package abstracts multiple providers (Google Gemini, OpenAI,
// Anthropic) behind a common interface while adding operational concerns
// through a middleware chain. The scorecard sources depend only on
// ports.LLMClient and never see provider-specific types.
//
// Basic usage:
//
//	client, err := llm.NewClient("google", llm.ClientConfig{
//	    APIKey: os.Getenv("GEMINI_API_KEY"),
//	    Model:  "gemini-2.0-flash",
//	    Middleware: []llm.Middleware{
//	        llm.MetricsMiddleware(collector),
//	        llm.RateLimitMiddleware(2, 4),
//	    },
//	})
//	response, err := client.Complete(ctx, "...", nil)
//
// RetryMiddleware is available for standalone clients; callers whose own
// retry loop wraps Complete, such as the source adapters, should not also
// stack it here or failures get retried at both layers.
package llm

import (
	"context"
	"fmt"
	"time"
)

// CoreLLM is the minimal interface a provider must implement. Middleware
// wraps any conforming implementation.
type CoreLLM interface {
	// DoRequest sends a prompt to the provider and returns the response
	// text. The opts map carries request settings such as "temperature",
	// "max_tokens", "top_p", "top_k", "system", and "model".
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error)

	// GetModel returns the currently configured model name.
	GetModel() string

	// SetModel updates the model used for subsequent requests.
	SetModel(model string)
}

// Middleware wraps a CoreLLM to add cross-cutting behavior such as
// retries, rate limiting, timeouts, or metrics.
type Middleware func(CoreLLM) CoreLLM

// ClientConfig holds the options for creating an LLM client.
type ClientConfig struct {
	// APIKey authenticates requests to the provider.
	APIKey string

	// Model selects the model; each provider has its own default.
	Model string

	// BaseURL overrides the provider's default endpoint when set.
	BaseURL string

	// Timeout bounds individual requests. Zero means no per-request
	// timeout beyond what the context carries.
	Timeout time.Duration

	// Middleware is applied in order, first entry outermost.
	Middleware []Middleware
}

// ProviderFactory constructs a provider-specific CoreLLM from a config.
type ProviderFactory func(ClientConfig) (CoreLLM, error)

var providerFactories = map[string]ProviderFactory{}

// RegisterProviderFactory makes a provider available to NewClient under
// the given name. Called from provider init functions.
func RegisterProviderFactory(name string, factory ProviderFactory) {
	providerFactories[name] = factory
}

// Client adapts a middleware-wrapped CoreLLM to the ports.LLMClient
// interface consumed by the scorecard sources.
type Client struct{ core CoreLLM }

// NewClient creates an LLM client for the named provider, assembling the
// middleware chain around the provider implementation.
func NewClient(providerType string, config ClientConfig) (*Client, error) {
	if config.APIKey == "" {
		return nil, ErrEmptyAPIKey
	}

	factory, ok := providerFactories[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", providerType)
	}

	core, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s provider: %w", providerType, err)
	}

	if config.Timeout > 0 {
		core = TimeoutMiddleware(config.Timeout)(core)
	}

	// Apply middleware in reverse order so the first entry is outermost.
	for i := len(config.Middleware) - 1; i >= 0; i-- {
		core = config.Middleware[i](core)
	}

	return &Client{core: core}, nil
}

// NewClientFromCore wraps an existing CoreLLM, mainly for tests that
// substitute a fake provider.
func NewClientFromCore(core CoreLLM, middleware ...Middleware) *Client {
	for i := len(middleware) - 1; i >= 0; i-- {
		core = middleware[i](core)
	}
	return &Client{core: core}
}

// Complete implements ports.LLMClient.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}
	return c.core.DoRequest(ctx, prompt, options)
}

// GetModel implements ports.LLMClient.
func (c *Client) GetModel() string { return c.core.GetModel() }
