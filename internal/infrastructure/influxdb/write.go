package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/verdantsense/verdant-core/internal/sensor"
	"github.com/verdantsense/verdant-core/internal/water"
)

// WriteReading mirrors one sensor reading into the local bucket.
//
// All five channels land as fields of a single point so dashboards can
// correlate them without joins. The write is non-blocking; data is
// batched and sent asynchronously.
//
// Parameters:
//   - serial: Device serial number (tag)
//   - r: The sensor reading; its own timestamp stamps the point
func (c *Client) WriteReading(serial string, r sensor.Reading) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"plant_readings",
		map[string]string{
			"serial": serial,
		},
		map[string]interface{}{
			"soil_moisture": r.SoilMoisture,
			"light_level":   r.Light,
			"temperature":   r.Temperature,
			"humidity":      r.Humidity,
			"air_movement":  r.AirMovement,
		},
		r.Timestamp,
	)

	c.writeAPI.WritePoint(point)
}

// WritePrediction mirrors a watering forecast.
//
// Parameters:
//   - serial: Device serial number (tag)
//   - pred: The forecast; a nil NextWatering writes no timestamp field
func (c *Client) WritePrediction(serial string, pred water.Prediction) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]interface{}{
		"daily_consumption_rate": pred.DailyConsumptionRate,
		"declining_consumption":  pred.DecliningConsumption,
		"confidence":             pred.Confidence,
	}
	if pred.NextWatering != nil {
		fields["next_watering"] = pred.NextWatering.Unix()
	}

	point := write.NewPoint(
		"watering_forecast",
		map[string]string{
			"serial": serial,
		},
		fields,
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WriteCacheDepth mirrors the offline cache depth, giving the dashboard
// a connectivity-outage trace.
func (c *Client) WriteCacheDepth(serial string, depth int) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(
		"telemetry_cache",
		map[string]string{
			"serial": serial,
		},
		map[string]interface{}{
			"depth": depth,
		},
		time.Now(),
	)

	c.writeAPI.WritePoint(point)
}

// WritePoint writes a custom point with full control over tags and fields.
//
// Use this for custom measurements that don't fit the helper methods.
//
// Parameters:
//   - measurement: The measurement name (table)
//   - tags: Key-value pairs for indexing (low cardinality)
//   - fields: Key-value pairs for the actual data
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	if !c.IsConnected() {
		return
	}

	point := write.NewPoint(measurement, tags, fields, time.Now())
	c.writeAPI.WritePoint(point)
}

// Mirror binds a client to one device's serial, satisfying the engine's
// mirror interface.
type Mirror struct {
	client *Client
	serial string
}

// NewMirror creates a Mirror for the given device.
func NewMirror(client *Client, serial string) *Mirror {
	return &Mirror{client: client, serial: serial}
}

// MirrorReading forwards a reading to the local bucket.
func (m *Mirror) MirrorReading(r sensor.Reading) {
	m.client.WriteReading(m.serial, r)
}

// MirrorPrediction forwards a watering forecast to the local bucket.
func (m *Mirror) MirrorPrediction(pred water.Prediction) {
	m.client.WritePrediction(m.serial, pred)
}

// MirrorCacheDepth forwards the cache depth to the local bucket.
func (m *Mirror) MirrorCacheDepth(depth int) {
	m.client.WriteCacheDepth(m.serial, depth)
}
