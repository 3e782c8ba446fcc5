package telemetry

import (
	"context"
	"fmt"

	"github.com/verdantsense/verdant-core/internal/analysis"
	"github.com/verdantsense/verdant-core/internal/ring"
	"github.com/verdantsense/verdant-core/internal/sensor"
)

// Capacity is the cache size: about 48 hours at one entry per hour.
const Capacity = 48

// Entry is one cached telemetry snapshot: the raw reading plus the
// summarised analysis outcome. Field names match the cloud document
// schema; the uploader adds device identity at publish time.
type Entry struct {
	Reading sensor.Reading `json:"reading"`

	// HealthStatus is the classifier's verdict ("Healthy", "Stressed",
	// "Critical"), or "Unknown" when inference failed for this reading.
	HealthStatus string `json:"healthStatus"`

	// EnvironmentalMismatch is the compact out-of-range summary, e.g.
	// "temp,light" or "none".
	EnvironmentalMismatch string `json:"environmentalMismatch"`

	// Recommendation is the care text generated for this reading.
	Recommendation string `json:"recommendation"`

	// PlantStatus is the coarse status string shown to the user.
	PlantStatus string `json:"plantStatus"`

	// Valid marks a fully-populated entry. Entries restored from corrupt
	// state load with Valid false and are skipped by Drain.
	Valid bool `json:"valid"`
}

// NewEntry builds a cache entry from a reading and its analysis result.
func NewEntry(reading sensor.Reading, res analysis.Result) Entry {
	return Entry{
		Reading:               reading,
		HealthStatus:          res.Class.String(),
		EnvironmentalMismatch: res.Mismatch.String(),
		Recommendation:        res.Recommendation,
		PlantStatus:           res.Status(),
		Valid:                 true,
	}
}

// NewUnanalysedEntry builds a cache entry for a reading whose analysis
// failed: the raw sample is still worth shipping.
func NewUnanalysedEntry(reading sensor.Reading) Entry {
	return Entry{
		Reading:               reading,
		HealthStatus:          "Unknown",
		EnvironmentalMismatch: "none",
		PlantStatus:           "Unknown",
		Valid:                 true,
	}
}

// Sink is the external upload capability Drain pushes entries into.
type Sink interface {
	// Upload ships one cached entry. An error aborts the drain.
	Upload(ctx context.Context, entry Entry) error
}

// Cache is the bounded offline telemetry ring.
//
// Cache is confined to the engine's periodic task and does no locking.
// Persistence is the caller's job: the engine snapshots after every
// mutation so a reboot mid-outage loses nothing.
type Cache struct {
	entries *ring.Buffer[Entry]
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{
		entries: ring.New[Entry](Capacity),
	}
}

// Enqueue adds an entry, overwriting the logically oldest once full.
// It never fails.
func (c *Cache) Enqueue(e Entry) {
	c.entries.Push(e)
}

// Count returns the number of cached entries.
func (c *Cache) Count() int {
	return c.entries.Len()
}

// Get returns the entry at logical index i, oldest-first.
//
// Returns:
//   - Entry: the cached entry
//   - error: wrapping ErrOutOfRange when i is outside [0, Count())
func (c *Cache) Get(i int) (Entry, error) {
	e, ok := c.entries.At(i)
	if !ok {
		return Entry{}, fmt.Errorf("%w: index %d, count %d", ErrOutOfRange, i, c.entries.Len())
	}
	return e, nil
}

// Clear empties the cache. Called only after a fully successful drain
// plus live upload.
func (c *Cache) Clear() {
	c.entries.Clear()
}

// Drain uploads every cached entry oldest-first.
//
// The first failure aborts the drain and leaves the cache fully intact,
// including entries already uploaded this attempt: the next drain
// re-sends them, trading duplicate uploads for at-most-one-loss. Drain
// never mutates the cache; the caller clears it once the live reading
// has also gone out.
//
// Returns:
//   - error: the sink's error wrapped with the failing entry's position,
//     or nil when every entry was uploaded (or the cache was empty)
func (c *Cache) Drain(ctx context.Context, sink Sink) error {
	count := c.entries.Len()
	for i := 0; i < count; i++ {
		entry, _ := c.entries.At(i)
		if !entry.Valid {
			continue
		}
		if err := sink.Upload(ctx, entry); err != nil {
			return fmt.Errorf("uploading cached entry %d of %d: %w", i+1, count, err)
		}
	}
	return nil
}

// Snapshot is the persisted form of a Cache.
type Snapshot struct {
	// Entries holds the cached entries oldest-first.
	Entries []Entry `json:"entries"`
}

// Snapshot captures the cache for persistence.
func (c *Cache) Snapshot() Snapshot {
	return Snapshot{Entries: c.entries.Values()}
}

// Restore replaces the cache contents from a snapshot.
//
// Returns:
//   - error: wrapping ErrInvalidSnapshot when the snapshot holds more
//     entries than the cache capacity; the cache is left unchanged
func (c *Cache) Restore(snap Snapshot) error {
	if len(snap.Entries) > Capacity {
		return fmt.Errorf("%w: %d entries, capacity %d", ErrInvalidSnapshot, len(snap.Entries), Capacity)
	}

	c.entries.Clear()
	for _, e := range snap.Entries {
		c.entries.Push(e)
	}
	return nil
}
