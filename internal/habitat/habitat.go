package habitat

import (
	"strings"

	"github.com/verdantsense/verdant-core/internal/sensor"
)

// Range is a plant's ideal environmental envelope: min/max bounds for the
// four channels that have a meaningful habitat range. Air movement has no
// range; its offset feature is fixed at zero.
//
// JSON field names match the habitat catalogue documents.
type Range struct {
	TemperatureMin float64 `json:"temperatureMinC"`
	TemperatureMax float64 `json:"temperatureMaxC"`
	HumidityMin    float64 `json:"humidityMin"`
	HumidityMax    float64 `json:"humidityMax"`
	MoistureMin    float64 `json:"soilMoistureMin"`
	MoistureMax    float64 `json:"soilMoistureMax"`
	LightMin       float64 `json:"lightLevelMin"`
	LightMax       float64 `json:"lightLevelMax"`
}

// Profile is a full habitat catalogue entry: the range plus descriptive
// metadata about the species.
type Profile struct {
	PlantID       string `json:"plantId"`
	NativeRegion  string `json:"nativeRegion"`
	GrowingSeason string `json:"growingSeason"`
	Range
}

// DefaultRange returns the device-wide fallback envelope used when no
// habitat profile can be fetched or read from cache. The values suit a
// generic temperate houseplant.
func DefaultRange() Range {
	return Range{
		TemperatureMin: 18.0,
		TemperatureMax: 26.0,
		HumidityMin:    40.0,
		HumidityMax:    70.0,
		MoistureMin:    30.0,
		MoistureMax:    70.0,
		LightMin:       30.0,
		LightMax:       80.0,
	}
}

// Mismatch flags each channel whose reading sits strictly outside the
// habitat range. Flags are computed purely from the range check and carry
// no classifier input; a plant can be classified healthy while flagged,
// and vice versa.
type Mismatch struct {
	Temperature  bool `json:"temperature"`
	Humidity     bool `json:"humidity"`
	SoilMoisture bool `json:"soilMoisture"`
	Light        bool `json:"lightLevel"`
}

// Any reports whether at least one channel is outside its range.
func (m Mismatch) Any() bool {
	return m.Temperature || m.Humidity || m.SoilMoisture || m.Light
}

// String returns the compact summary used in telemetry documents: the
// out-of-range channels as "temp,humid,moist,light" subsets, or "none".
func (m Mismatch) String() string {
	var parts []string
	if m.Temperature {
		parts = append(parts, "temp")
	}
	if m.Humidity {
		parts = append(parts, "humid")
	}
	if m.SoilMoisture {
		parts = append(parts, "moist")
	}
	if m.Light {
		parts = append(parts, "light")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Check compares a reading against the range.
//
// A channel is mismatched iff its value lies strictly outside [min, max];
// values exactly on a bound are in range.
func (r Range) Check(reading sensor.Reading) Mismatch {
	return Mismatch{
		Temperature:  reading.Temperature < r.TemperatureMin || reading.Temperature > r.TemperatureMax,
		Humidity:     reading.Humidity < r.HumidityMin || reading.Humidity > r.HumidityMax,
		SoilMoisture: reading.SoilMoisture < r.MoistureMin || reading.SoilMoisture > r.MoistureMax,
		Light:        reading.Light < r.LightMin || reading.Light > r.LightMax,
	}
}

// Offset helpers return the signed distance of a value from the midpoint
// of its habitat range. Used as normalised-distance features, not as
// mismatch signals.

// TemperatureOffset returns value minus the temperature range midpoint.
func (r Range) TemperatureOffset(v float64) float64 {
	return v - (r.TemperatureMin+r.TemperatureMax)/2
}

// HumidityOffset returns value minus the humidity range midpoint.
func (r Range) HumidityOffset(v float64) float64 {
	return v - (r.HumidityMin+r.HumidityMax)/2
}

// MoistureOffset returns value minus the soil moisture range midpoint.
func (r Range) MoistureOffset(v float64) float64 {
	return v - (r.MoistureMin+r.MoistureMax)/2
}

// LightOffset returns value minus the light range midpoint.
func (r Range) LightOffset(v float64) float64 {
	return v - (r.LightMin+r.LightMax)/2
}
