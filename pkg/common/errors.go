package common

import "errors"

var (
	// ErrInvalidURL is terminal: nothing is extracted or classified.
	ErrInvalidURL = errors.New("invalid url")

	// ErrLookupUnavailable marks a failed registration lookup. Recovered
	// inside the extractor.
	ErrLookupUnavailable = errors.New("registration lookup unavailable")

	// ErrFetchUnavailable marks a failed or timed out page fetch. Recovered
	// inside the extractor.
	ErrFetchUnavailable = errors.New("page fetch unavailable")

	// ErrClassification is the only failure that reaches the caller after a
	// vector has been assembled.
	ErrClassification = errors.New("classification failed")
)
