package storage

import "errors"

// ErrNotFound is returned by Load and Delete when no value exists under
// the key. At boot this is the normal cold-start signal, not a fault.
var ErrNotFound = errors.New("storage: key not found")
