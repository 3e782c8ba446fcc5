package history

import "errors"

// ErrInvalidSnapshot is returned by Restore when persisted state does not
// match the expected shape (wrong channel count or oversized buffers).
// Callers treat this as a cold start rather than a fatal condition.
var ErrInvalidSnapshot = errors.New("history: invalid snapshot")
