// Package water tracks soil moisture over a rolling week and forecasts
// the next watering time.
//
// History keeps a 168-slot circular buffer of (moisture, timestamp)
// samples, one per sampling tick. Predict walks the buffer backwards from
// the newest sample, averaging the usable per-pair moisture declines into
// an hourly decline rate. An abrupt moisture rise of more than five
// points is read as a watering event and truncates the walk, so only the
// current watering cycle informs the forecast.
//
// Confidence combines how much usable data the walk found with how
// consistent the decline diffs are, scaled to 0-100.
package water
