package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest signals malformed caller input.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrIndexNotFound signals that the configured vector index does not exist.
	ErrIndexNotFound = errors.New("index not found")
	// ErrIndexCreate signals that the vector index could not be created.
	ErrIndexCreate = errors.New("index create failed")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrBatchUpsert signals that a batch of records could not be written.
	ErrBatchUpsert = errors.New("batch upsert failed")

	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrClassifierError signals an intent classifier failure.
	ErrClassifierError = errors.New("classifier error")
	// ErrNoCredential signals that an upstream has no credential configured.
	ErrNoCredential = errors.New("no credential configured")
)

// BatchError reports a failed batch write as a single error.
type BatchError struct {
	Index string
	Count int
	Err   error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %d records into %q: %v", ErrBatchUpsert.Error(), e.Count, e.Index, e.Err)
}

// Is reports ErrBatchUpsert so callers can match without unwrapping to the cause.
func (e *BatchError) Is(target error) bool { return target == ErrBatchUpsert }

func (e *BatchError) Unwrap() error { return e.Err }

// DimensionError wraps ErrVectorDimMismatch with both sizes.
type DimensionError struct {
	Want int
	Got  int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("%s: want %d, got %d", ErrVectorDimMismatch.Error(), e.Want, e.Got)
}

func (e *DimensionError) Unwrap() error { return ErrVectorDimMismatch }

// IsConfigError reports index errors that come from configuration rather than
// a transient fault: retrying them cannot succeed.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrIndexCreate) || errors.Is(err, ErrVectorDimMismatch)
}
