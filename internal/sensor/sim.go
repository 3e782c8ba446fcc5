package sensor

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// Simulator synthesises plausible plant readings for development and soak
// testing, where no measurement head is publishing frames.
//
// Light and temperature follow a diurnal curve, humidity tracks inversely
// against temperature, and soil moisture decays slowly until it crosses a
// rewatering point, at which it jumps back up. All channels carry seeded
// noise so runs are reproducible.
type Simulator struct {
	rng      *rand.Rand
	moisture float64
	now      func() time.Time
}

// Simulator tuning constants.
const (
	simStartMoisture  = 68.0
	simRewaterAt      = 22.0
	simDecayPerSample = 0.05
)

// NewSimulator creates a Simulator with the given noise seed.
func NewSimulator(seed int64) *Simulator {
	return &Simulator{
		rng:      rand.New(rand.NewSource(seed)), //nolint:gosec // Synthetic data, not security-sensitive
		moisture: simStartMoisture,
		now:      time.Now,
	}
}

// Sample produces the next synthetic reading. It never fails; the error
// return exists to satisfy the engine's sampler contract.
func (s *Simulator) Sample(_ context.Context) (Reading, error) {
	now := s.now()

	// Fraction of the day in [0,1), driving the diurnal curves.
	secs := now.Hour()*3600 + now.Minute()*60 + now.Second()
	dayFrac := float64(secs) / 86400.0

	// Daylight: zero overnight, peaking mid-afternoon.
	daylight := math.Sin((dayFrac - 0.25) * 2 * math.Pi)
	if daylight < 0 {
		daylight = 0
	}
	light := daylight*82 + s.noise()*3

	temperature := 19.5 + daylight*4.5 + s.noise()*0.4
	humidity := 58 - (temperature-20)*1.8 + s.noise()*2

	// Moisture decays until the plant gets watered.
	s.moisture -= simDecayPerSample + s.noise()*0.02
	if s.moisture < simRewaterAt {
		s.moisture = simStartMoisture + s.noise()*4
	}

	air := 4 + math.Abs(s.noise())*6

	r := Reading{
		SoilMoisture: clampPercent(s.moisture),
		Light:        clampPercent(light),
		Temperature:  temperature,
		Humidity:     clampPercent(humidity),
		AirMovement:  clampPercent(air),
		Timestamp:    now,
	}
	return r, nil
}

// noise returns a value in [-1, 1).
func (s *Simulator) noise() float64 {
	return s.rng.Float64()*2 - 1
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > maxPercent {
		return maxPercent
	}
	return v
}
