package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/openboycott/scorecard/infrastructure/llm"
)

// RetryPolicy is the shared retry behavior applied by every source to its
// provider calls: a fixed attempt budget with exponential backoff, capped
// at MaxDelay. Transient failures (rate limits, server errors, network
// problems) are retried; classified fatal errors end the attempt loop
// immediately.
type RetryPolicy struct {
	// MaxAttempts is the total number of attempts including the first.
	MaxAttempts int

	// BaseDelay is the wait before the first retry; each subsequent wait
	// doubles.
	BaseDelay time.Duration

	// MaxDelay caps the backoff growth.
	MaxDelay time.Duration

	// Retryable classifies errors; nil uses llm.IsRetryableError, which
	// understands classified provider errors and treats unclassified
	// failures as transient.
	Retryable func(error) bool
}

// DefaultRetryPolicy mirrors the provider retry budget used throughout
// the pipeline: five attempts starting at three seconds.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 5,
		BaseDelay:   3 * time.Second,
		MaxDelay:    time.Minute,
	}
}

// Do runs op under the policy. It returns nil as soon as an attempt
// succeeds, the classified error when it is not retryable, or the last
// error once the budget is spent. Context cancellation stops the loop
// between attempts.
func (p RetryPolicy) Do(ctx context.Context, op func(context.Context) error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = llm.IsRetryableError
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !retryable(lastErr) {
			return lastErr
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay(attempt)):
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", attempts, lastErr)
}

func (p RetryPolicy) delay(attempt int) time.Duration {
	if attempt > 30 {
		attempt = 30
	}
	delay := p.BaseDelay << uint(attempt)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}
