// Package ring provides the fixed-capacity circular buffer shared by the
// hourly channel histories, the water-consumption history, and the offline
// telemetry cache.
//
// All three previously carried their own cursor/filled bookkeeping; the
// index arithmetic lives here once. Buffers expose logical (oldest-first)
// indexing so callers never deal with physical slot positions.
package ring
