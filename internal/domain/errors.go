package domain

import "errors"

// Pipeline error kinds. Per-document kinds never abort a batch.
var (
	// ErrMissingMetadata indicates an entry lacks a title or a usable file reference.
	ErrMissingMetadata = errors.New("missing metadata")

	// ErrExtractionFailed indicates the source text could not be extracted.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmptyText indicates extraction succeeded but produced no usable text.
	ErrEmptyText = errors.New("empty text")

	// ErrCacheInconsistency indicates the index references an artifact that is not on storage.
	ErrCacheInconsistency = errors.New("cache inconsistency")

	// ErrUnknownBackend indicates an unrecognized embedding backend identifier.
	ErrUnknownBackend = errors.New("unknown embedding backend")

	// ErrOverwriteGuard indicates embeddings were not persisted because overwrite was not confirmed.
	ErrOverwriteGuard = errors.New("overwrite not confirmed")

	// ErrBatchNotFound indicates no embedding batch has been persisted yet.
	ErrBatchNotFound = errors.New("embedding batch not found")
)
