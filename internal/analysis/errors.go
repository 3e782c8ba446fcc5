package analysis

import "errors"

// ErrInference is returned when the inference capability fails or returns
// a probability vector of unexpected length. The reading is dropped from
// analysis for that tick; histories and the telemetry cache still see it.
var ErrInference = errors.New("analysis: inference failed")
