// Package habitat holds a plant's ideal environmental envelope and the
// comparisons made against it.
//
// A Range carries min/max bounds for temperature, humidity, soil moisture
// and light. Check flags readings strictly outside those bounds; the
// Offset helpers measure signed distance from each range midpoint and feed
// the classifier's feature vector. Air movement has no habitat range.
//
// Provider resolves the range for a configured plant through a fallback
// chain: remote catalogue fetch, then the key-value cached copy (stale
// after 24 hours), then the built-in defaults. Resolution never fails;
// analysis always has a usable envelope.
package habitat
