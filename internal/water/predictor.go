package water

import (
	"fmt"
	"math"
	"time"

	"github.com/verdantsense/verdant-core/internal/ring"
)

// Slots is the moisture history capacity: 7 days of hourly samples.
const Slots = 7 * 24

// Predictor tuning constants.
const (
	// minSamples is the raw history needed before any forecast: two days.
	minSamples = 48

	// maxPairGap is the largest gap between consecutive samples still
	// treated as continuous decline. Wider gaps (outages, reboots) are
	// skipped rather than averaged.
	maxPairGap = 2 * time.Hour

	// wateringRise is the abrupt moisture increase read as a watering
	// event. The backward walk stops there: older samples describe the
	// previous watering cycle.
	wateringRise = 5.0

	// minDailyRate is the daily decline below which no forecast is made.
	minDailyRate = 0.01

	// minHourlyRate guards the consistency division against a near-zero
	// decline rate.
	minHourlyRate = 0.001

	// fullDataCount is the usable-diff count treated as complete data
	// (three days' worth) when scaling confidence.
	fullDataCount = 72

	// trendSplitMin is the usable-diff count needed before the
	// consumption trend (accelerating vs decelerating) is judged.
	trendSplitMin = 48
)

// Sample is one moisture observation.
type Sample struct {
	Moisture  float64   `json:"moisture"`
	Timestamp time.Time `json:"timestamp"`
}

// Prediction is the watering forecast.
type Prediction struct {
	// DailyConsumptionRate is the moisture decline in percentage points
	// per day.
	DailyConsumptionRate float64 `json:"dailyConsumptionRate"`

	// DecliningConsumption is true when the recent half of the usable
	// window declines more slowly than the older half, i.e. consumption
	// is slowing down.
	DecliningConsumption bool `json:"decliningConsumption"`

	// NextWatering is when moisture is forecast to cross the watering
	// threshold. Nil when no forecast could be made.
	NextWatering *time.Time `json:"nextWateringTimestamp"`

	// Confidence is the forecast confidence in [0, 100].
	Confidence float64 `json:"confidence"`
}

// History is the rolling week of moisture samples feeding Predict.
//
// Unlike the hourly channel histories, every sampling tick appends here;
// the finer grain is what makes watering events detectable.
//
// History is confined to the engine's periodic task and does no locking.
type History struct {
	samples *ring.Buffer[Sample]
}

// NewHistory creates an empty moisture history.
func NewHistory() *History {
	return &History{
		samples: ring.New[Sample](Slots),
	}
}

// Add appends a moisture sample. Oldest samples are overwritten once the
// week is full.
func (h *History) Add(moisture float64, timestamp time.Time) {
	h.samples.Push(Sample{Moisture: moisture, Timestamp: timestamp})
}

// Len returns the number of samples held.
func (h *History) Len() int {
	return h.samples.Len()
}

// Predict forecasts the next watering time from the recorded history.
//
// The walk runs newest to oldest. Each consecutive pair contributes its
// moisture decline (older minus newer) when the pair is usable: positive
// decline, and a positive gap shorter than maxPairGap. A rise beyond
// wateringRise stops the walk at the most recent watering event.
//
// Parameters:
//   - now: the current time, anchoring the forecast timestamp
//   - currentMoisture: the latest soil moisture percentage
//   - threshold: the moisture level at which watering is due
//
// Returns:
//   - Prediction: the forecast; zero-confidence with no timestamp when
//     the decline rate is negligible
//   - error: ErrInsufficientData while fewer than two days of samples
//     exist (the zero-value Prediction returned with it is usable)
func (h *History) Predict(now time.Time, currentMoisture, threshold float64) (Prediction, error) {
	if h.samples.Len() < minSamples {
		return Prediction{}, fmt.Errorf("%w: %d of %d samples", ErrInsufficientData, h.samples.Len(), minSamples)
	}

	diffs := h.usableDeclines()
	if len(diffs) == 0 {
		return Prediction{}, nil
	}

	hourlyRate := mean(diffs)
	pred := Prediction{
		DailyConsumptionRate: hourlyRate * 24,
		DecliningConsumption: decliningTrend(diffs),
	}

	if pred.DailyConsumptionRate <= minDailyRate {
		return pred, nil
	}

	if currentMoisture <= threshold {
		// Already at or below the threshold: watering is due now.
		at := now
		pred.NextWatering = &at
		pred.Confidence = 100
		return pred, nil
	}

	hoursUntil := (currentMoisture - threshold) / hourlyRate
	at := now.Add(time.Duration(hoursUntil * float64(time.Hour)))
	pred.NextWatering = &at
	pred.Confidence = confidence(diffs, hourlyRate)
	return pred, nil
}

// usableDeclines walks the history newest to oldest, collecting the
// usable per-pair moisture declines in walk order (most recent first).
// The walk stops at the first watering event.
func (h *History) usableDeclines() []float64 {
	var diffs []float64

	for i := h.samples.Len() - 1; i > 0; i-- {
		newer, _ := h.samples.At(i)
		older, _ := h.samples.At(i - 1)

		moistureDiff := older.Moisture - newer.Moisture
		if moistureDiff < -wateringRise {
			// Abrupt rise: the plant was watered here. Older samples
			// belong to the previous cycle.
			break
		}

		timeDiff := newer.Timestamp.Sub(older.Timestamp)
		if timeDiff <= 0 || timeDiff >= maxPairGap {
			continue
		}
		if moistureDiff <= 0 {
			continue
		}

		diffs = append(diffs, moistureDiff)
	}

	return diffs
}

// decliningTrend reports whether consumption is slowing: the mean decline
// over the recent half of the usable diffs is lower than over the older
// half. Diffs arrive most-recent-first, so the first half is the recent
// one. Below trendSplitMin diffs the trend is not judged.
func decliningTrend(diffs []float64) bool {
	if len(diffs) < trendSplitMin {
		return false
	}

	half := len(diffs) / 2
	recentRate := mean(diffs[:half])
	olderRate := mean(diffs[half:])
	return recentRate < olderRate
}

// confidence scales data quantity against decline consistency, in [0,100].
func confidence(diffs []float64, hourlyRate float64) float64 {
	quantity := float64(len(diffs)) / fullDataCount
	if quantity > 1 {
		quantity = 1
	}

	consistency := 0.0
	if hourlyRate > minHourlyRate {
		consistency = 1 / (1 + 10*stddev(diffs, hourlyRate)/hourlyRate)
		if consistency > 1 {
			consistency = 1
		}
	}

	return quantity * consistency * 100
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stddev is the population standard deviation around the given mean.
func stddev(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		d := v - mean
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

// Snapshot is the persisted form of a History.
type Snapshot struct {
	// Samples holds the recorded samples oldest-first.
	Samples []Sample `json:"samples"`
}

// Snapshot captures the history for persistence.
func (h *History) Snapshot() Snapshot {
	return Snapshot{Samples: h.samples.Values()}
}

// Restore replaces the history from a snapshot.
//
// Returns:
//   - error: wrapping ErrInvalidSnapshot when the snapshot holds more
//     samples than the buffer capacity; the history is left unchanged
func (h *History) Restore(snap Snapshot) error {
	if len(snap.Samples) > Slots {
		return fmt.Errorf("%w: %d samples, capacity %d", ErrInvalidSnapshot, len(snap.Samples), Slots)
	}

	h.samples.Clear()
	for _, s := range snap.Samples {
		h.samples.Push(s)
	}
	return nil
}
