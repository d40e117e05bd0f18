package llm

import (
	"context"
	"errors"
	"fmt"
)

// Common errors returned by the LLM client and providers.
var (
	// ErrEmptyAPIKey indicates that an API key was required but not provided.
	ErrEmptyAPIKey = errors.New("API key cannot be empty")
	// ErrEmptyResponse indicates that the provider returned an empty response body.
	ErrEmptyResponse = errors.New("empty response from API")
	// ErrNoResponseChoice indicates that the provider's response contained no choices.
	ErrNoResponseChoice = errors.New("no response choices returned")
)

// ErrorType categorizes provider errors for standardized handling,
// primarily to decide retryability.
type ErrorType int

const (
	// ErrorTypeUnknown indicates an error of an undetermined category.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeAuthentication indicates an invalid or rejected credential.
	ErrorTypeAuthentication
	// ErrorTypeRateLimit indicates that a rate limit or quota was exceeded.
	ErrorTypeRateLimit
	// ErrorTypeBadRequest indicates a malformed request or invalid parameters.
	ErrorTypeBadRequest
	// ErrorTypeNotFound indicates a missing resource, such as an unknown model.
	ErrorTypeNotFound
	// ErrorTypeServerError indicates a problem on the provider's end.
	ErrorTypeServerError
	// ErrorTypeContentPolicy indicates the request was blocked by a content policy.
	ErrorTypeContentPolicy
	// ErrorTypeNetwork indicates a client-side network problem.
	ErrorTypeNetwork
	// ErrorTypeTimeout indicates that the request timed out.
	ErrorTypeTimeout
)

// ProviderError normalizes provider-specific failures into a common
// format with a classified type and the originating status code.
type ProviderError struct {
	// Type classifies the error into a standard category.
	Type ErrorType
	// Provider names the LLM provider that produced the error.
	Provider string
	// StatusCode holds the HTTP status from the provider, if applicable.
	StatusCode int
	// Message is the user-facing message from the provider.
	Message string
	// WrappedError is the original underlying error.
	WrappedError error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	base := fmt.Sprintf("%s error", e.Provider)
	if e.StatusCode > 0 {
		base += fmt.Sprintf(" (HTTP %d)", e.StatusCode)
	}
	if s := e.typeString(); s != "" {
		base += fmt.Sprintf(" [%s]", s)
	}
	if e.Message != "" {
		base += ": " + e.Message
	}
	if e.WrappedError != nil {
		base += fmt.Sprintf(": %v", e.WrappedError)
	}
	return base
}

// Unwrap returns the wrapped error for errors.Is and errors.As.
func (e *ProviderError) Unwrap() error { return e.WrappedError }

// IsRetryable reports whether a request failing with this error is worth
// retrying. Rate limits, server errors, network failures, and timeouts
// are transient; everything else fails immediately.
func (e *ProviderError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeServerError, ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

func (e *ProviderError) typeString() string {
	switch e.Type {
	case ErrorTypeAuthentication:
		return "authentication"
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeBadRequest:
		return "bad_request"
	case ErrorTypeNotFound:
		return "not_found"
	case ErrorTypeServerError:
		return "server_error"
	case ErrorTypeContentPolicy:
		return "content_policy"
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	default:
		return ""
	}
}

// NewProviderError builds a standardized error from a provider response.
func NewProviderError(provider string, errType ErrorType, statusCode int, message string, wrapped error) *ProviderError {
	return &ProviderError{
		Type:         errType,
		Provider:     provider,
		StatusCode:   statusCode,
		Message:      message,
		WrappedError: wrapped,
	}
}

// IsRetryableError reports whether err, anywhere in its chain, is a
// retryable ProviderError. Non-provider errors are treated as retryable
// network-level failures; context cancellation never is.
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return true
}

// ErrorClassifier standardizes provider-specific errors into
// ProviderError instances based on HTTP status codes or context state.
type ErrorClassifier struct {
	// Provider is the provider name stamped onto classified errors.
	Provider string
}

// ClassifyHTTPError classifies an error by its HTTP status code.
func (ec *ErrorClassifier) ClassifyHTTPError(statusCode int, message string, err error) *ProviderError {
	var errType ErrorType
	userMessage := message

	switch statusCode {
	case 401, 403:
		errType = ErrorTypeAuthentication
		userMessage = fmt.Sprintf("%s authentication failed", ec.Provider)
	case 429:
		errType = ErrorTypeRateLimit
		userMessage = fmt.Sprintf("%s rate limit exceeded", ec.Provider)
	case 400:
		errType = ErrorTypeBadRequest
	case 404:
		errType = ErrorTypeNotFound
	case 500, 502, 503, 504:
		errType = ErrorTypeServerError
	default:
		switch {
		case statusCode >= 400 && statusCode < 500:
			errType = ErrorTypeBadRequest
		case statusCode >= 500:
			errType = ErrorTypeServerError
		default:
			errType = ErrorTypeUnknown
		}
	}

	return NewProviderError(ec.Provider, errType, statusCode, userMessage, err)
}

// ClassifyContextError classifies context cancellation and deadline errors.
func (ec *ErrorClassifier) ClassifyContextError(err error) *ProviderError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return NewProviderError(ec.Provider, ErrorTypeTimeout, 0, "context deadline exceeded", err)
	case errors.Is(err, context.Canceled):
		return NewProviderError(ec.Provider, ErrorTypeNetwork, 0, "request canceled", err)
	default:
		return NewProviderError(ec.Provider, ErrorTypeUnknown, 0, "", err)
	}
}

// isContextError reports whether err is a cancellation or deadline error.
func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}
