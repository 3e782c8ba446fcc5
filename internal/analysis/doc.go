// Package analysis turns a sensor reading into a plant health assessment.
//
// The pipeline assembles a fixed 15-element feature vector (current
// channel values, habitat midpoint offsets, 24-hour rolling averages),
// hands it to an inference capability, and synthesises the result: a
// health class with confidence, range mismatch flags, a care
// recommendation, and the summary strings shipped in telemetry.
//
// Mismatch flags are computed from the habitat range check alone and are
// deliberately independent of the classifier output: a plant can be
// classified Healthy while sitting outside its habitat range, and vice
// versa. The recommendation text follows the mismatch flags, with the
// single special case of a Healthy classification.
package analysis
