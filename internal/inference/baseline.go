package inference

import (
	"context"
	"fmt"
	"math"

	"github.com/verdantsense/verdant-core/internal/analysis"
)

// Baseline is a deterministic heuristic scorer.
//
// It reads the four habitat offset features (vector indices 5-8),
// normalises each by a typical half-range, and maps the mean distance to
// a probability vector via softmax: a plant near every midpoint scores
// Healthy, one well outside the envelope drifts through Stressed into
// Critical. It ignores the current-value and rolling-average features
// entirely; the offsets already encode the envelope.
type Baseline struct{}

// Half-ranges of the default habitat envelope, used to put the four
// offset features on a comparable scale.
const (
	tempHalfRange     = 4.0
	humidityHalfRange = 15.0
	moistureHalfRange = 20.0
	lightHalfRange    = 25.0
)

// Softmax logit shaping: stress below one half-range favours Healthy,
// past three favours Critical. The critical logit climbs twice as fast
// so it overtakes Stressed for extreme readings.
const (
	healthyBias   = 2.0
	criticalDebit = 1.5
	logitGain     = 3.0
	criticalGain  = 2 * logitGain
)

// Offset feature positions in the analysis vector layout.
const (
	idxMoistureOffset = 5
	idxLightOffset    = 6
	idxTempOffset     = 7
	idxHumidityOffset = 8
)

// Infer scores the feature vector.
//
// Returns:
//   - []float64: probabilities over {Healthy, Stressed, Critical},
//     summing to 1
//   - error: wrapping ErrBadVector when the vector length is wrong
func (Baseline) Infer(_ context.Context, features []float64) ([]float64, error) {
	if len(features) != analysis.FeatureCount {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrBadVector, len(features), analysis.FeatureCount)
	}

	stress := (math.Abs(features[idxMoistureOffset])/moistureHalfRange +
		math.Abs(features[idxLightOffset])/lightHalfRange +
		math.Abs(features[idxTempOffset])/tempHalfRange +
		math.Abs(features[idxHumidityOffset])/humidityHalfRange) / 4

	return softmax(
		logitGain*(healthyBias-stress),
		logitGain*stress,
		criticalGain*(stress-criticalDebit),
	), nil
}

// softmax maps logits to a probability distribution.
func softmax(logits ...float64) []float64 {
	max := logits[0]
	for _, l := range logits[1:] {
		if l > max {
			max = l
		}
	}

	probs := make([]float64, len(logits))
	sum := 0.0
	for i, l := range logits {
		probs[i] = math.Exp(l - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}
