package sensor

import (
	"fmt"
	"time"
)

// Reading is a single sample across all five sensor channels.
// Immutable once produced; every pipeline stage receives it by value.
//
// JSON field names match the cloud telemetry document schema, so a Reading
// can be embedded directly in upload payloads.
type Reading struct {
	SoilMoisture float64   `json:"soilMoisture"`
	Light        float64   `json:"lightLevel"`
	Temperature  float64   `json:"temperature"`
	Humidity     float64   `json:"humidity"`
	AirMovement  float64   `json:"airMovement"`
	Timestamp    time.Time `json:"timestamp"`
}

// Sensor range limits for validation.
//
// Percent channels are hard-bounded; temperature covers the sensor's
// operating envelope rather than plausible room conditions.
const (
	minTemperature = -40.0
	maxTemperature = 85.0
	maxPercent     = 100.0
)

// Validate checks that all fields are within the sensor's physical ranges.
//
// Readings produced locally are always valid; this exists to guard
// readings that arrive over the network (see Bus).
//
// Returns:
//   - error: wrapping ErrInvalidReading with the offending field, or nil
func (r Reading) Validate() error {
	if r.Timestamp.IsZero() {
		return fmt.Errorf("%w: timestamp is zero", ErrInvalidReading)
	}
	if r.SoilMoisture < 0 || r.SoilMoisture > maxPercent {
		return fmt.Errorf("%w: soil moisture %.1f outside [0, 100]", ErrInvalidReading, r.SoilMoisture)
	}
	if r.Light < 0 || r.Light > maxPercent {
		return fmt.Errorf("%w: light level %.1f outside [0, 100]", ErrInvalidReading, r.Light)
	}
	if r.Temperature < minTemperature || r.Temperature > maxTemperature {
		return fmt.Errorf("%w: temperature %.1f outside [%.0f, %.0f]", ErrInvalidReading, r.Temperature, minTemperature, maxTemperature)
	}
	if r.Humidity < 0 || r.Humidity > maxPercent {
		return fmt.Errorf("%w: humidity %.1f outside [0, 100]", ErrInvalidReading, r.Humidity)
	}
	if r.AirMovement < 0 || r.AirMovement > maxPercent {
		return fmt.Errorf("%w: air movement %.1f outside [0, 100]", ErrInvalidReading, r.AirMovement)
	}
	return nil
}
