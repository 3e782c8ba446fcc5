// Package sensor defines the Reading sample type and the sources that
// produce readings for the analytics engine.
//
// Two sources exist:
//
//   - Bus: consumes raw JSON frames published by the measurement head over
//     MQTT, retaining the latest valid frame. This is the production path.
//   - Simulator: generates seeded synthetic readings with diurnal light
//     and temperature curves. Used for development and soak runs.
//
// Both satisfy the engine's sampler contract. Readings are immutable
// values; validation bounds cover the sensor head's physical envelope.
package sensor
