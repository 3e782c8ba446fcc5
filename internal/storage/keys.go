package storage

import "fmt"

// Key builders for the device's persisted state. All state is namespaced
// by the device serial number so a database can be moved between units
// without collisions.

// HistoryKey returns the key for the channel history snapshot.
func HistoryKey(serial string) string {
	return fmt.Sprintf("sensor_history/%s", serial)
}

// WaterKey returns the key for the moisture history snapshot.
func WaterKey(serial string) string {
	return fmt.Sprintf("water/%s", serial)
}

// CacheKey returns the key for the offline telemetry cache snapshot.
func CacheKey(serial string) string {
	return fmt.Sprintf("cache/%s", serial)
}
