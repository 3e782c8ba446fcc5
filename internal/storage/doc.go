// Package storage is the key-value persistence layer for the device's
// analytical state.
//
// Everything the engine must survive a reboot with — channel histories,
// the moisture week, the offline telemetry cache, the cached habitat
// profile — is JSON-encoded and stored under a string key in a single
// SQLite table, keyed by the device serial number. Save and Load are
// best-effort from the engine's point of view: a persistence failure is
// logged and processing continues on in-memory state.
package storage
