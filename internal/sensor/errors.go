package sensor

import "errors"

// Domain errors for the sensor package.
//
// These errors can be checked using errors.Is() for error handling:
//
//	if errors.Is(err, sensor.ErrNoReading) {
//	    // no frame received yet
//	}
var (
	// ErrInvalidReading is returned when a reading fails range validation.
	ErrInvalidReading = errors.New("sensor: invalid reading")

	// ErrNoReading is returned by Bus.Sample before any frame has arrived.
	ErrNoReading = errors.New("sensor: no reading available")

	// ErrStaleReading is returned by Bus.Sample when the latest frame is
	// older than the configured staleness limit.
	ErrStaleReading = errors.New("sensor: reading is stale")
)
