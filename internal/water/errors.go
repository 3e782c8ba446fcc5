package water

import "errors"

// Domain errors for the water predictor.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrInsufficientData is returned by Predict while fewer than two
	// days of samples exist. Recoverable: the zero-confidence result
	// returned alongside it is valid, just forecast-free.
	ErrInsufficientData = errors.New("water: insufficient history for prediction")

	// ErrInvalidSnapshot is returned by Restore when persisted state does
	// not match the expected shape. Callers treat this as a cold start.
	ErrInvalidSnapshot = errors.New("water: invalid snapshot")
)
