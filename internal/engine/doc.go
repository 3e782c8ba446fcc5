// Package engine drives the analytics pipeline.
//
// A single periodic task owns every mutable buffer: each tick samples a
// reading, folds it into the channel and moisture histories, classifies
// it against the resolved habitat range, forecasts the next watering,
// and either ships the results or parks them in the offline cache. All
// collaborators arrive as interfaces; anything interrupt-like (the MQTT
// reconnect callback) only nudges the task through a channel, never
// touches the buffers.
//
// No tick failure is fatal. Sampling errors skip the tick, inference
// errors downgrade the cached entry, persistence errors log and
// continue in memory, upload errors leave the cache intact for the next
// attempt.
package engine
