package domain

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidArgument signals a request rejected before any I/O (bad k, malformed filter).
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDocumentNotFound signals a missing page.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrVectorDimMismatch signals an embedding dimension that differs from the
	// dimension the store was built with.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrRateLimited signals a rate limit hit at an external provider.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrProviderFailure signals a single generation provider failure,
	// recoverable by router fallback.
	ErrProviderFailure = errors.New("generation provider failure")
	// ErrAllProvidersExhausted signals that every configured generation provider failed.
	ErrAllProvidersExhausted = errors.New("all generation providers exhausted")
	// ErrTruncatedStream signals a provider failure after streaming had begun.
	// Never retried: a retry could duplicate partial output already delivered.
	ErrTruncatedStream = errors.New("generation stream truncated")
)

// ProviderFailure records one provider's failure during router fallback.
type ProviderFailure struct {
	Provider string
	Err      error
}

// ExhaustedError wraps ErrAllProvidersExhausted with the ordered list of
// per-provider causes, in the order the router tried them.
type ExhaustedError struct {
	Failures []ProviderFailure
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	b.WriteString(ErrAllProvidersExhausted.Error())
	for _, f := range e.Failures {
		b.WriteString("; ")
		b.WriteString(f.Provider)
		b.WriteString(": ")
		b.WriteString(f.Err.Error())
	}
	return b.String()
}

func (e *ExhaustedError) Unwrap() error { return ErrAllProvidersExhausted }

// NewExhausted creates an all-providers-exhausted error.
func NewExhausted(failures []ProviderFailure) error {
	return &ExhaustedError{Failures: failures}
}
