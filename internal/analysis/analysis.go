package analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/verdantsense/verdant-core/internal/habitat"
	"github.com/verdantsense/verdant-core/internal/history"
	"github.com/verdantsense/verdant-core/internal/sensor"
)

// Feature vector and probability vector dimensions. Fixed by the model
// contract: a scorer must accept exactly FeatureCount inputs and return
// exactly ClassCount probabilities.
const (
	FeatureCount = 15
	ClassCount   = 3
)

// HealthClass is the classifier's verdict on the plant's condition.
type HealthClass int

// Health classes in probability-vector order. The order is part of the
// model contract and must not change.
const (
	Healthy HealthClass = iota
	Stressed
	Critical
)

// String returns the class name as shipped in telemetry documents.
func (c HealthClass) String() string {
	switch c {
	case Healthy:
		return "Healthy"
	case Stressed:
		return "Stressed"
	case Critical:
		return "Critical"
	default:
		return fmt.Sprintf("HealthClass(%d)", int(c))
	}
}

// MarshalJSON encodes the class as its name, matching the telemetry
// document schema.
func (c HealthClass) MarshalJSON() ([]byte, error) {
	return []byte(`"` + c.String() + `"`), nil
}

// UnmarshalJSON decodes a class name. Unknown names fail rather than
// defaulting, so corrupt persisted state is detected at load time.
func (c *HealthClass) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"Healthy"`:
		*c = Healthy
	case `"Stressed"`:
		*c = Stressed
	case `"Critical"`:
		*c = Critical
	default:
		return fmt.Errorf("unknown health class %s", data)
	}
	return nil
}

// Scorer is the external inference capability: feature vector in,
// probability vector out. Implementations live in the inference package.
type Scorer interface {
	// Infer returns a ClassCount-element probability vector over
	// {Healthy, Stressed, Critical} for the given features.
	Infer(ctx context.Context, features []float64) ([]float64, error)
}

// TrendSource supplies the rolling-average features.
// Satisfied by *history.Store.
type TrendSource interface {
	RollingAverage(ch history.Channel) float64
}

// Result is the synthesised outcome of one analysis pass.
type Result struct {
	// Class is the argmax of the classifier's probability vector.
	Class HealthClass `json:"healthStatus"`

	// Confidence is the winning probability, in [0, 1].
	Confidence float64 `json:"confidence"`

	// Mismatch flags each channel outside its habitat range. Computed
	// independently of Class.
	Mismatch habitat.Mismatch `json:"mismatchFlags"`

	// Recommendation is the care text derived from the mismatch flags.
	Recommendation string `json:"recommendation"`
}

// Care recommendation phrases, one per mismatch flag, emitted in
// temperature, humidity, moisture, light order.
const (
	phraseHealthy  = "Plant is healthy."
	phraseTemp     = "Adjust temperature."
	phraseHumidity = "Adjust humidity level."
	phraseMoisture = "Adjust watering schedule."
	phraseLight    = "Adjust light exposure."
)

// maxRecommendationLen caps the recommendation text, mirroring the
// display buffer it ends up in. Longer text is silently truncated.
const maxRecommendationLen = 120

// Pipeline runs the full analysis pass for a reading.
type Pipeline struct {
	scorer Scorer
}

// NewPipeline creates a Pipeline around the given inference capability.
func NewPipeline(scorer Scorer) *Pipeline {
	return &Pipeline{scorer: scorer}
}

// FeatureVector assembles the model's 15 inputs for a reading.
//
// Layout, indexed by channel order (moisture, light, temperature,
// humidity, air movement):
//   - 0-4:   current channel values
//   - 5-9:   signed offsets from the habitat range midpoints (air has no
//     range; its offset is always 0)
//   - 10-14: 24-hour rolling averages
func FeatureVector(r sensor.Reading, rng habitat.Range, trends TrendSource) []float64 {
	features := make([]float64, 0, FeatureCount)

	features = append(features,
		r.SoilMoisture, r.Light, r.Temperature, r.Humidity, r.AirMovement,
	)
	features = append(features,
		rng.MoistureOffset(r.SoilMoisture),
		rng.LightOffset(r.Light),
		rng.TemperatureOffset(r.Temperature),
		rng.HumidityOffset(r.Humidity),
		0.0,
	)
	for ch := history.Channel(0); ch < history.NumChannels; ch++ {
		features = append(features, trends.RollingAverage(ch))
	}

	return features
}

// Analyze classifies a reading and synthesises the full result.
//
// Parameters:
//   - reading: the current sample
//   - rng: the resolved habitat range for the plant
//   - trends: rolling averages from the history store
//
// Returns:
//   - Result: class, confidence, mismatch flags and recommendation
//   - error: wrapping ErrInference when the scorer fails or returns a
//     malformed probability vector; no partial result is produced
func (p *Pipeline) Analyze(ctx context.Context, reading sensor.Reading, rng habitat.Range, trends TrendSource) (Result, error) {
	features := FeatureVector(reading, rng, trends)

	probs, err := p.scorer.Infer(ctx, features)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrInference, err)
	}
	if len(probs) != ClassCount {
		return Result{}, fmt.Errorf("%w: got %d probabilities, want %d", ErrInference, len(probs), ClassCount)
	}

	class, confidence := argmax(probs)
	mismatch := rng.Check(reading)

	return Result{
		Class:          class,
		Confidence:     confidence,
		Mismatch:       mismatch,
		Recommendation: recommendation(class, mismatch),
	}, nil
}

// argmax picks the winning class. Ties break towards the lower index, so
// equal probabilities resolve in Healthy, Stressed, Critical order.
func argmax(probs []float64) (HealthClass, float64) {
	best := 0
	for i := 1; i < len(probs); i++ {
		if probs[i] > probs[best] {
			best = i
		}
	}
	return HealthClass(best), probs[best]
}

// recommendation builds the care text.
//
// A Healthy classification short-circuits to the healthy phrase; any
// other class gets one phrase per raised mismatch flag, regardless of the
// class itself. An unhealthy class with no flags yields empty text.
func recommendation(class HealthClass, m habitat.Mismatch) string {
	if class == Healthy {
		return phraseHealthy
	}

	var b strings.Builder
	if m.Temperature {
		appendPhrase(&b, phraseTemp)
	}
	if m.Humidity {
		appendPhrase(&b, phraseHumidity)
	}
	if m.SoilMoisture {
		appendPhrase(&b, phraseMoisture)
	}
	if m.Light {
		appendPhrase(&b, phraseLight)
	}

	return capRecommendation(b.String())
}

// capRecommendation truncates text to maxRecommendationLen bytes. All
// four phrases together fit the cap; this guards future phrase edits.
func capRecommendation(text string) string {
	if len(text) > maxRecommendationLen {
		return text[:maxRecommendationLen]
	}
	return text
}

func appendPhrase(b *strings.Builder, phrase string) {
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	b.WriteString(phrase)
}

// Status returns the coarse plant status string for telemetry:
// Critical and Stressed come straight from the classifier, an in-class
// plant with raised mismatch flags reads "Adjustment Needed", and
// everything else is "Healthy".
func (r Result) Status() string {
	switch r.Class {
	case Critical:
		return "Critical"
	case Stressed:
		return "Stressed"
	default:
		if r.Mismatch.Any() {
			return "Adjustment Needed"
		}
		return "Healthy"
	}
}
