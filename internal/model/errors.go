package model

import "errors"

// Sentinel errors callers branch on. Everything else in the pipeline degrades
// gracefully (unverified result, empty context) instead of failing the run.
var (
	// ErrInputTooLarge rejects a document before the pipeline starts.
	ErrInputTooLarge = errors.New("input exceeds maximum document size")

	// ErrInputUnreadable rejects input that is not valid UTF-8 text.
	ErrInputUnreadable = errors.New("input is not readable text")

	// ErrJobTimeout marks a job that exceeded its wall-clock budget.
	ErrJobTimeout = errors.New("job exceeded wall-clock budget")

	// ErrJobNotFound is returned when polling an unknown job id.
	ErrJobNotFound = errors.New("job not found")

	// ErrProviderUnavailable marks a network/timeout/5xx failure from a
	// verification provider; the chain advances to the next step.
	ErrProviderUnavailable = errors.New("verification provider unavailable")
)
