package telemetry

import "errors"

// Domain errors for the telemetry cache.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrOutOfRange is returned by Get for an index at or beyond Count().
	ErrOutOfRange = errors.New("telemetry: cache index out of range")

	// ErrInvalidSnapshot is returned by Restore when persisted state does
	// not match the expected shape. Callers treat this as a cold start.
	ErrInvalidSnapshot = errors.New("telemetry: invalid snapshot")
)
