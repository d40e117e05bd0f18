package domain

import (
	"errors"
	"fmt"
)

// Common domain errors returned when raw observations fail normalization.
var (
	// ErrNotAPair indicates a raw observation that is not a two-element
	// [confidence, score] sequence.
	ErrNotAPair = errors.New("observation is not a [confidence, score] pair")

	// ErrNonNumeric indicates an observation element that cannot be
	// converted to a floating-point number.
	ErrNonNumeric = errors.New("observation element is not numeric")

	// ErrNonFinite indicates a NaN or infinite observation element.
	ErrNonFinite = errors.New("observation element is not finite")

	// ErrNegativeConfidence indicates an observation whose confidence is
	// below zero. A source cannot hold negative certainty.
	ErrNegativeConfidence = errors.New("observation confidence is negative")

	// ErrEmptyCompanyKey indicates a company name that normalizes to the
	// empty string and therefore cannot key a record.
	ErrEmptyCompanyKey = errors.New("company name normalizes to an empty key")
)

// RejectionError records one discarded raw observation together with the
// category it was asserted for and the value that failed normalization.
// Rejections are diagnostic only; they are logged and counted but never
// abort an analysis run.
type RejectionError struct {
	// Category is the category code the observation was asserted for.
	Category string

	// Value is the raw value that failed normalization.
	Value any

	// Err is the underlying normalization error.
	Err error
}

// Error implements the error interface for RejectionError.
func (e *RejectionError) Error() string {
	return fmt.Sprintf("rejected observation: category=%s value=%v: %v", e.Category, e.Value, e.Err)
}

// Unwrap returns the underlying error, supporting errors.Is and errors.As.
func (e *RejectionError) Unwrap() error { return e.Err }

// NewRejectionError creates a RejectionError for the given category and
// raw value.
func NewRejectionError(category string, value any, err error) *RejectionError {
	return &RejectionError{Category: category, Value: value, Err: err}
}
