package llm

import (
	"context"
	"sync"
)

// MockCoreLLM is a scriptable CoreLLM for tests. Each call consumes the
// next queued result; when the queue is exhausted the last result repeats.
type MockCoreLLM struct {
	mu      sync.Mutex
	model   string
	results []MockResult
	calls   int
}

// MockResult is one scripted DoRequest outcome.
type MockResult struct {
	Response string
	Err      error
}

// NewMockCoreLLM creates a mock with the given scripted results.
func NewMockCoreLLM(model string, results ...MockResult) *MockCoreLLM {
	return &MockCoreLLM{model: model, results: results}
}

// DoRequest returns the next scripted result.
func (m *MockCoreLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	if idx >= len(m.results) {
		idx = len(m.results) - 1
	}
	m.calls++

	if idx < 0 {
		return "", ErrEmptyResponse
	}
	r := m.results[idx]
	return r.Response, r.Err
}

// Calls returns how many times DoRequest was invoked.
func (m *MockCoreLLM) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// GetModel returns the mock's model name.
func (m *MockCoreLLM) GetModel() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.model
}

// SetModel updates the mock's model name.
func (m *MockCoreLLM) SetModel(model string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.model = model
}
