package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorClassifier_ClassifyHTTPError(t *testing.T) {
	ec := &ErrorClassifier{Provider: "google"}

	tests := []struct {
		name         string
		statusCode   int
		expectedType ErrorType
	}{
		{name: "unauthorized", statusCode: 401, expectedType: ErrorTypeAuthentication},
		{name: "forbidden", statusCode: 403, expectedType: ErrorTypeAuthentication},
		{name: "rate limited", statusCode: 429, expectedType: ErrorTypeRateLimit},
		{name: "bad request", statusCode: 400, expectedType: ErrorTypeBadRequest},
		{name: "not found", statusCode: 404, expectedType: ErrorTypeNotFound},
		{name: "server error", statusCode: 503, expectedType: ErrorTypeServerError},
		{name: "odd client error", statusCode: 418, expectedType: ErrorTypeBadRequest},
		{name: "odd server error", statusCode: 599, expectedType: ErrorTypeServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pe := ec.ClassifyHTTPError(tt.statusCode, "msg", errors.New("wrapped"))
			assert.Equal(t, tt.expectedType, pe.Type)
			assert.Equal(t, tt.statusCode, pe.StatusCode)
			assert.Equal(t, "google", pe.Provider)
		})
	}
}

func TestErrorClassifier_ClassifyContextError(t *testing.T) {
	ec := &ErrorClassifier{Provider: "openai"}

	assert.Equal(t, ErrorTypeTimeout, ec.ClassifyContextError(context.DeadlineExceeded).Type)
	assert.Equal(t, ErrorTypeNetwork, ec.ClassifyContextError(context.Canceled).Type)
	assert.Equal(t, ErrorTypeUnknown, ec.ClassifyContextError(errors.New("other")).Type)
}

func TestProviderError_ErrorAndUnwrap(t *testing.T) {
	inner := errors.New("quota exhausted")
	pe := NewProviderError("google", ErrorTypeRateLimit, 429, "rate limit exceeded", inner)

	msg := pe.Error()
	assert.Contains(t, msg, "google error")
	assert.Contains(t, msg, "HTTP 429")
	assert.Contains(t, msg, "[rate_limit]")
	assert.Contains(t, msg, "rate limit exceeded")

	assert.ErrorIs(t, pe, inner)
}
