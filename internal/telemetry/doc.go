// Package telemetry buffers analysis snapshots while the device is
// offline and drains them, in order, when connectivity returns.
//
// The cache is a 48-entry ring: roughly two days at one entry per hour.
// Enqueue never fails; once full, the oldest entry is overwritten, so a
// long outage loses only the oldest data. Drain uploads oldest-first and
// stops at the first failure with the cache fully intact, so a flaky
// link can never half-clear the buffer. The caller clears the cache only
// after every cached entry and the live reading have gone out.
package telemetry
