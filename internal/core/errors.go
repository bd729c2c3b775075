package core

import "errors"

// Sentinel errors shared across the pipeline. Callers match with errors.Is.
var (
	// ErrProviderUnavailable means no usable LLM backend is configured.
	ErrProviderUnavailable = errors.New("llm provider unavailable")

	// ErrNotFound means a referenced entity does not exist in the store.
	ErrNotFound = errors.New("not found")

	// ErrPromptMissing means a required prompt template is absent.
	ErrPromptMissing = errors.New("prompt template missing")
)
