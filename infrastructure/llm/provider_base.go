package llm

import "sync"

// DefaultMaxTokens bounds response length when a request does not specify
// its own limit.
const DefaultMaxTokens = 2048

// BaseProvider provides common, thread-safe model-name handling for all
// provider implementations.
type BaseProvider struct {
	mu    sync.RWMutex
	model string
}

// GetModel returns the configured model name. Safe for concurrent use.
func (b *BaseProvider) GetModel() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.model
}

// SetModel updates the model name. Safe for concurrent use.
func (b *BaseProvider) SetModel(model string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.model = model
}

// RequestOptions is the standardized set of request parameters shared by
// all providers.
type RequestOptions struct {
	// MaxTokens limits the number of tokens to generate.
	MaxTokens int
	// Model is the model identifier for this request.
	Model string
	// Temperature controls output randomness; nil uses the provider default.
	Temperature *float64
	// TopP enables nucleus sampling; nil uses the provider default.
	TopP *float64
	// TopK restricts sampling to the K most likely tokens; zero disables.
	TopK int
	// System is an optional system prompt.
	System string
}

// ParseRequestOptions extracts standardized request parameters from an
// options map, falling back to defaults for missing or mistyped entries.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{
		MaxTokens: DefaultMaxTokens,
		Model:     defaultModel,
	}

	if v, ok := opts["max_tokens"].(int); ok && v > 0 {
		options.MaxTokens = v
	}
	if v, ok := opts["model"].(string); ok && v != "" {
		options.Model = v
	}
	if v, ok := opts["system"].(string); ok {
		options.System = v
	}
	if v, ok := toFloat64(opts["temperature"]); ok && v >= 0 {
		options.Temperature = &v
	}
	if v, ok := toFloat64(opts["top_p"]); ok && v >= 0 {
		options.TopP = &v
	}
	if v, ok := opts["top_k"].(int); ok && v > 0 {
		options.TopK = v
	}

	return options
}

func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// clamp bounds f to [lo, hi].
func clamp(f, lo, hi float64) float64 {
	if f < lo {
		return lo
	}
	if f > hi {
		return hi
	}
	return f
}

// clampInt bounds n to [lo, hi].
func clampInt(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
