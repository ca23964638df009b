package model

import "errors"

// Error kinds returned across the ingestion and query pipeline.
// Callers match them with errors.Is.
var (
	// ErrValidation marks a record or query that fails validation.
	// At ingestion the record is skipped; the batch continues.
	ErrValidation = errors.New("validation failed")

	// ErrModelMismatch marks an index built with a different embedding
	// model or dimension than the configured embedder. Queries are
	// blocked until the index is rebuilt.
	ErrModelMismatch = errors.New("embedding model mismatch")

	// ErrEmptyIndex marks a search against an index with no entries.
	ErrEmptyIndex = errors.New("image index is empty")

	// ErrServiceUnavailable marks a transient failure of a remote
	// service. Safe to retry with backoff.
	ErrServiceUnavailable = errors.New("service unavailable")

	// ErrInvalidResponse marks a malformed or empty response from a
	// remote service. Retrying does not help.
	ErrInvalidResponse = errors.New("invalid response")
)
