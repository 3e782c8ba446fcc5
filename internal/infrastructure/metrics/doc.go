// Package metrics exposes the daemon's Prometheus instrumentation.
//
// Collectors are package-level and registered on the default registry at
// init, so any package can increment them without wiring. Server serves
// the /metrics endpoint for scraping; it is the only HTTP surface the
// daemon has.
package metrics
