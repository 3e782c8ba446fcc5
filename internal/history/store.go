package history

import (
	"fmt"
	"time"

	"github.com/verdantsense/verdant-core/internal/ring"
	"github.com/verdantsense/verdant-core/internal/sensor"
)

// Channel identifies one sensor dimension in the history store.
// The numeric order is load-bearing: feature vectors and snapshots index
// channels in this order.
type Channel int

// Channels in feature-vector order.
const (
	SoilMoisture Channel = iota
	Light
	Temperature
	Humidity
	AirMovement

	// NumChannels is the number of sensor channels tracked.
	NumChannels = 5
)

// String returns the channel's metric name.
func (c Channel) String() string {
	switch c {
	case SoilMoisture:
		return "soil_moisture"
	case Light:
		return "light_level"
	case Temperature:
		return "temperature"
	case Humidity:
		return "humidity"
	case AirMovement:
		return "air_movement"
	default:
		return fmt.Sprintf("channel(%d)", int(c))
	}
}

// Slots is the per-channel rolling buffer capacity: one slot per hour over
// a 24 hour window.
const Slots = 24

// hourlySpacing is the minimum gap between rolling-buffer appends.
const hourlySpacing = time.Hour

// Store holds the per-channel rolling hourly aggregates plus the current
// value of every channel.
//
// A single timestamp gates all five rolling buffers: a reading either
// advances every channel's buffer or none of them, so the buffers always
// hold the same number of slots and describe the same hours. Current
// values are updated on every reading regardless.
//
// Store is confined to the engine's periodic task and does no locking.
type Store struct {
	rings      [NumChannels]*ring.Buffer[float64]
	current    [NumChannels]float64
	lastHourly time.Time
}

// NewStore creates an empty history store.
func NewStore() *Store {
	s := &Store{}
	for i := range s.rings {
		s.rings[i] = ring.New[float64](Slots)
	}
	return s
}

// Record folds a reading into the store.
//
// Current values are updated unconditionally. The rolling buffers advance
// only when at least an hour has passed since the previous append (the
// first reading always appends); readings within the same hour window are
// coalesced into the current values only.
func (s *Store) Record(r sensor.Reading) {
	s.current[SoilMoisture] = r.SoilMoisture
	s.current[Light] = r.Light
	s.current[Temperature] = r.Temperature
	s.current[Humidity] = r.Humidity
	s.current[AirMovement] = r.AirMovement

	if !s.lastHourly.IsZero() && r.Timestamp.Sub(s.lastHourly) < hourlySpacing {
		return
	}

	for ch := Channel(0); ch < NumChannels; ch++ {
		s.rings[ch].Push(s.current[ch])
	}
	s.lastHourly = r.Timestamp
}

// Current returns the most recently recorded value for a channel.
func (s *Store) Current(ch Channel) float64 {
	return s.current[ch]
}

// RollingAverage returns the mean of the channel's populated hourly slots.
//
// Before any slot is populated it falls back to the channel's current
// value, so early feature vectors degrade to "no trend" rather than zero.
func (s *Store) RollingAverage(ch Channel) float64 {
	values := s.rings[ch].Values()
	if len(values) == 0 {
		return s.current[ch]
	}

	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Snapshot is the persisted form of a Store.
type Snapshot struct {
	// Channels holds each channel's hourly values oldest-first.
	Channels [][]float64 `json:"channels"`

	// Current holds the latest value per channel.
	Current []float64 `json:"current"`

	// LastHourlyUpdate is the timestamp of the last rolling-buffer append.
	LastHourlyUpdate time.Time `json:"lastHourlyUpdate"`
}

// Snapshot captures the store state for persistence.
func (s *Store) Snapshot() Snapshot {
	snap := Snapshot{
		Channels:         make([][]float64, NumChannels),
		Current:          make([]float64, NumChannels),
		LastHourlyUpdate: s.lastHourly,
	}
	for ch := Channel(0); ch < NumChannels; ch++ {
		snap.Channels[ch] = s.rings[ch].Values()
		snap.Current[ch] = s.current[ch]
	}
	return snap
}

// Restore replaces the store state from a snapshot.
//
// Returns:
//   - error: wrapping ErrInvalidSnapshot when the snapshot shape is wrong;
//     the store is left unchanged in that case
func (s *Store) Restore(snap Snapshot) error {
	if len(snap.Channels) != NumChannels {
		return fmt.Errorf("%w: %d channels, want %d", ErrInvalidSnapshot, len(snap.Channels), NumChannels)
	}
	if len(snap.Current) != NumChannels {
		return fmt.Errorf("%w: %d current values, want %d", ErrInvalidSnapshot, len(snap.Current), NumChannels)
	}
	for ch, values := range snap.Channels {
		if len(values) > Slots {
			return fmt.Errorf("%w: channel %d has %d values, capacity %d", ErrInvalidSnapshot, ch, len(values), Slots)
		}
	}

	for ch := Channel(0); ch < NumChannels; ch++ {
		s.rings[ch].Clear()
		for _, v := range snap.Channels[ch] {
			s.rings[ch].Push(v)
		}
		s.current[ch] = snap.Current[ch]
	}
	s.lastHourly = snap.LastHourlyUpdate
	return nil
}
