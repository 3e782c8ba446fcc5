// Package influxdb provides optional local time-series mirroring for the
// Verdant daemon.
//
// It wraps the official influxdb-client-go v2 library with patterns for
// connection management, metric writing, and health monitoring.
//
// # Purpose
//
// The cloud receives summarised telemetry; the local bucket keeps the
// full-resolution trace for dashboards and debugging:
//   - Raw sensor readings (all five channels)
//   - Watering forecasts
//   - Offline cache depth
//
// # Usage
//
//	cfg := config.InfluxDBConfig{
//	    URL:    "http://localhost:8086",
//	    Token:  "your-token",
//	    Org:    "verdant",
//	    Bucket: "plants",
//	}
//
//	client, err := influxdb.Connect(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	mirror := influxdb.NewMirror(client, cfg2.Device.Serial)
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
// The underlying write API uses non-blocking batched writes.
//
// # Error Handling
//
// Write operations are non-blocking and batch errors are logged via a
// callback. Connection and health check errors are returned directly.
//
// # Performance
//
// Writes are batched according to config.yaml settings (batch_size,
// flush_interval). This reduces overhead for per-tick telemetry.
package influxdb
