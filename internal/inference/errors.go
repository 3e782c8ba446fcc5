package inference

import "errors"

// Domain errors for inference scorers.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrUnavailable is returned when the model service cannot be
	// reached or returns a non-success status.
	ErrUnavailable = errors.New("inference: model service unavailable")

	// ErrBadVector is returned when the feature vector has the wrong
	// length for the model contract.
	ErrBadVector = errors.New("inference: malformed feature vector")
)
