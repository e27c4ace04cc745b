package domain

import "errors"

var (
	// ErrInvalidQuery signals an empty or whitespace-only query. The only
	// dependency-free error that reaches the caller.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrProviderUnavailable signals a transient embedding/LLM provider
	// failure. Recovered locally via the lexical fallback, never surfaced.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrMalformedRerank signals that the reranker returned unusable data.
	// Recovered locally by discarding the rerank output.
	ErrMalformedRerank = errors.New("malformed rerank response")
	// ErrEmptyCatalog signals that the catalog file contained no records.
	// Fatal at startup.
	ErrEmptyCatalog = errors.New("catalog is empty")
)
