package llm

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// retryLLM retries failed requests with exponential backoff. Transient
// failures (rate limits, server errors, network problems) are retried up
// to a fixed budget; classified fatal errors fail immediately.
type retryLLM struct {
	next       CoreLLM
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// RetryMiddleware creates middleware that retries failed requests with
// exponential backoff and jitter. Only errors classified as retryable are
// retried; authentication and bad-request errors propagate at once.
func RetryMiddleware(maxRetries int, baseDelay, maxDelay time.Duration) Middleware {
	return func(next CoreLLM) CoreLLM {
		return &retryLLM{
			next:       next,
			maxRetries: maxRetries,
			baseDelay:  baseDelay,
			maxDelay:   maxDelay,
		}
	}
}

// DoRequest executes the request with automatic retry.
func (r *retryLLM) DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		response, err := r.next.DoRequest(ctx, prompt, opts)
		if err == nil {
			return response, nil
		}

		lastErr = err

		if ctx.Err() != nil || !IsRetryableError(err) {
			break
		}
		if attempt == r.maxRetries {
			break
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(r.calculateDelay(attempt)):
		}
	}

	return "", fmt.Errorf("request failed after %d attempts: %w", r.maxRetries+1, lastErr)
}

func (r *retryLLM) calculateDelay(attempt int) time.Duration {
	attempt = clampInt(attempt, 0, 30)
	// #nosec G115 - attempt is bounded between 0 and 30
	multiplier := 1 << uint(attempt)
	delay := time.Duration(float64(r.baseDelay) * float64(multiplier))

	// Jitter of +-25%.
	// #nosec G404 - weak RNG is acceptable for jitter
	jitter := time.Duration(rand.Float64() * float64(delay) * 0.5)
	delay = delay + jitter - (delay / 4)

	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	return delay
}

// GetModel returns the model name from the wrapped implementation.
func (r *retryLLM) GetModel() string { return r.next.GetModel() }

// SetModel updates the model name in the wrapped implementation.
func (r *retryLLM) SetModel(m string) { r.next.SetModel(m) }
