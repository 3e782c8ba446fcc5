package engine

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/verdantsense/verdant-core/internal/infrastructure/mqtt"
	"github.com/verdantsense/verdant-core/internal/telemetry"
	"github.com/verdantsense/verdant-core/internal/water"
)

// Publisher is the broker capability the uploader needs.
// Satisfied by mqtt.Client.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	IsConnected() bool
}

// MQTTUploader ships telemetry and forecasts over the device's MQTT
// subtree. Implements Uploader.
type MQTTUploader struct {
	pub          Publisher
	serial       string
	plantName    string
	plantVariety string
	qos          byte
}

// NewMQTTUploader creates an uploader publishing on the given device's
// topics. The plant identity is stamped into every telemetry document so
// the backend needs no device registry lookup.
func NewMQTTUploader(pub Publisher, serial, plantName, plantVariety string, qos byte) *MQTTUploader {
	return &MQTTUploader{
		pub:          pub,
		serial:       serial,
		plantName:    plantName,
		plantVariety: plantVariety,
		qos:          qos,
	}
}

// telemetryDoc is the wire shape of one telemetry upload. Cached and
// live entries share it; the original capture timestamp rides along so
// drained backlog keeps its ordering server-side.
type telemetryDoc struct {
	SoilMoisture          float64 `json:"soilMoisture"`
	LightLevel            float64 `json:"lightLevel"`
	Temperature           float64 `json:"temperature"`
	Humidity              float64 `json:"humidity"`
	AirMovement           float64 `json:"airMovement"`
	Timestamp             int64   `json:"timestamp"`
	PlantName             string  `json:"plantName"`
	PlantVariety          string  `json:"plantVariety"`
	HealthStatus          string  `json:"healthStatus"`
	EnvironmentalMismatch string  `json:"environmentalMismatch"`
	Recommendation        string  `json:"recommendation"`
	PlantStatus           string  `json:"plantStatus"`
}

// predictionDoc is the wire shape of a watering forecast upload.
// A zero NextWateringTimestamp means no forecast date.
type predictionDoc struct {
	DailyConsumptionRate  float64 `json:"dailyConsumptionRate"`
	DecliningConsumption  bool    `json:"decliningConsumption"`
	NextWateringTimestamp int64   `json:"nextWateringTimestamp"`
	Confidence            float64 `json:"confidence"`
}

// IsOnline reports broker connectivity.
func (u *MQTTUploader) IsOnline() bool {
	return u.pub.IsConnected()
}

// Upload publishes one telemetry entry.
//
// Returns:
//   - error: If encoding or the publish fails; the caller keeps the
//     entry cached on failure
func (u *MQTTUploader) Upload(ctx context.Context, entry telemetry.Entry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("telemetry upload: %w", err)
	}

	doc := telemetryDoc{
		SoilMoisture:          entry.Reading.SoilMoisture,
		LightLevel:            entry.Reading.Light,
		Temperature:           entry.Reading.Temperature,
		Humidity:              entry.Reading.Humidity,
		AirMovement:           entry.Reading.AirMovement,
		Timestamp:             entry.Reading.Timestamp.Unix(),
		PlantName:             u.plantName,
		PlantVariety:          u.plantVariety,
		HealthStatus:          entry.HealthStatus,
		EnvironmentalMismatch: entry.EnvironmentalMismatch,
		Recommendation:        entry.Recommendation,
		PlantStatus:           entry.PlantStatus,
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding telemetry document: %w", err)
	}

	topic := mqtt.Topics{}.Telemetry(u.serial)
	if err := u.pub.Publish(topic, payload, u.qos, false); err != nil {
		return fmt.Errorf("publishing telemetry: %w", err)
	}
	return nil
}

// UploadPrediction publishes a watering forecast. Retained, so the
// backend and any dashboard see the latest forecast on subscribe.
func (u *MQTTUploader) UploadPrediction(ctx context.Context, pred water.Prediction) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("prediction upload: %w", err)
	}

	doc := predictionDoc{
		DailyConsumptionRate: pred.DailyConsumptionRate,
		DecliningConsumption: pred.DecliningConsumption,
		Confidence:           pred.Confidence,
	}
	if pred.NextWatering != nil {
		doc.NextWateringTimestamp = pred.NextWatering.Unix()
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding prediction document: %w", err)
	}

	topic := mqtt.Topics{}.Prediction(u.serial)
	if err := u.pub.Publish(topic, payload, u.qos, true); err != nil {
		return fmt.Errorf("publishing prediction: %w", err)
	}
	return nil
}

var _ Uploader = (*MQTTUploader)(nil)
