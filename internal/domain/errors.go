package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation signals malformed client input (bad k, bad image ref, bad item).
	ErrValidation = errors.New("validation failed")
	// ErrRetrievalUnavailable signals that the vector index could not serve a query.
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrBackendDegraded signals that an embedding backend failed for a whole batch.
	// It never leaves the embedding adapter as a returned error.
	ErrBackendDegraded = errors.New("embedding backend degraded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrPartialBatchFailure marks an indexing batch that could not be written.
	ErrPartialBatchFailure = errors.New("partial batch failure")
	// ErrNotFound signals a missing inventory item.
	ErrNotFound = errors.New("not found")
)

// ValidationError names the offending field. It unwraps to ErrValidation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: %s: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a field-level validation error.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// RetrievalUnavailable wraps an index failure so that it matches ErrRetrievalUnavailable
// while keeping the cause reachable via errors.Is/As.
func RetrievalUnavailable(cause error) error {
	return fmt.Errorf("%w: %w", ErrRetrievalUnavailable, cause)
}

// ProviderError is an embedding provider reply with an HTTP status.
// It unwraps to ErrEmbeddingProviderError.
type ProviderError struct {
	Status int
	Msg    string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s", e.Msg, ErrEmbeddingProviderError.Error())
}

func (e *ProviderError) Unwrap() error { return ErrEmbeddingProviderError }

// RejectsInput reports whether the provider refused the request content
// itself: a 4xx other than auth, timeout and rate limiting. Such a batch can
// be retried item by item; anything else fails every item alike.
func RejectsInput(err error) bool {
	var pe *ProviderError
	if !errors.As(err, &pe) {
		return false
	}
	switch pe.Status {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusRequestTimeout, http.StatusTooManyRequests:
		return false
	}
	return pe.Status >= 400 && pe.Status < 500
}
