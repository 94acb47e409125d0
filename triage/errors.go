package triage

import "errors"

var (
	// ErrConfiguration marks startup problems: missing or malformed
	// reference table, unreadable config, unusable embedder settings.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidInput is returned when the resolver is asked to rank an empty
	// query or has nothing to rank against.
	ErrInvalidInput = errors.New("invalid resolver input")

	// ErrResolve wraps every failure of the final department lookup. The
	// conversation survives it; the user may answer again.
	ErrResolve = errors.New("resolve department")
)
