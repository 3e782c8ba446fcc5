// Package history implements the rolling hourly time-series store feeding
// the health classifier's trend features.
//
// Each of the five sensor channels keeps a 24-slot circular buffer of
// hourly values. Writes within the same hour are coalesced: the current
// value always updates, the buffers only advance once per rolling hour,
// and all five buffers advance atomically under one shared timestamp.
//
// # Usage
//
//	store := history.NewStore()
//	store.Record(reading)
//	avg := store.RollingAverage(history.SoilMoisture)
//
// Snapshot and Restore round-trip the store through the key-value
// persistence layer so trends survive reboots.
package history
