package habitat

import "errors"

// Domain errors for habitat resolution.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnavailable is returned when the remote catalogue cannot be
	// reached or returns a non-success status.
	ErrUnavailable = errors.New("habitat: catalogue unavailable")

	// ErrNotCached is returned when no cached profile exists for the plant.
	ErrNotCached = errors.New("habitat: profile not cached")

	// ErrStale is returned when the cached profile has outlived the
	// staleness limit. The stale profile is still returned alongside it.
	ErrStale = errors.New("habitat: cached profile is stale")
)
