package mqtt

import "fmt"

// Topic prefixes for the Verdant MQTT namespace.
//
// All device topics use the flat scheme: verdant/{serial}/{channel}
// The serial is the device serial number; every device owns its own
// subtree so a single broker carries a whole fleet.
const (
	// TopicPrefixDevice is the base for all per-device topics.
	TopicPrefixDevice = "verdant"

	// TopicPrefixSystem is the base for system-wide topics.
	TopicPrefixSystem = "verdant/system"
)

// Topics provides builders for Verdant MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	t := topics.Telemetry("VS-0042")
//	// Returns: "verdant/VS-0042/telemetry"
type Topics struct{}

// Readings returns the topic the measurement head publishes raw sensor
// frames on. The analytics daemon subscribes here.
//
// Example: verdant/VS-0042/readings
func (Topics) Readings(serial string) string {
	return fmt.Sprintf("%s/%s/readings", TopicPrefixDevice, serial)
}

// Telemetry returns the topic for analysed telemetry documents, both
// live uploads and drained cache entries.
//
// Example: verdant/VS-0042/telemetry
func (Topics) Telemetry(serial string) string {
	return fmt.Sprintf("%s/%s/telemetry", TopicPrefixDevice, serial)
}

// Prediction returns the topic for watering forecast documents.
//
// Example: verdant/VS-0042/prediction
func (Topics) Prediction(serial string) string {
	return fmt.Sprintf("%s/%s/prediction", TopicPrefixDevice, serial)
}

// Status returns the device status topic carrying online/offline
// presence, including the Last Will message.
//
// Example: verdant/VS-0042/status
func (Topics) Status(serial string) string {
	return fmt.Sprintf("%s/%s/status", TopicPrefixDevice, serial)
}

// SystemTime returns the fleet-wide time sync topic.
//
// Example: verdant/system/time
func (Topics) SystemTime() string {
	return fmt.Sprintf("%s/time", TopicPrefixSystem)
}

// AllReadings returns a pattern matching raw frames from every device.
//
// Pattern: verdant/+/readings
func (Topics) AllReadings() string {
	return fmt.Sprintf("%s/+/readings", TopicPrefixDevice)
}

// AllTelemetry returns a pattern matching telemetry from every device.
//
// Pattern: verdant/+/telemetry
func (Topics) AllTelemetry() string {
	return fmt.Sprintf("%s/+/telemetry", TopicPrefixDevice)
}

// AllStatus returns a pattern matching presence for every device.
//
// Pattern: verdant/+/status
func (Topics) AllStatus() string {
	return fmt.Sprintf("%s/+/status", TopicPrefixDevice)
}

// AllTopics returns a pattern matching the whole Verdant namespace.
// Use with caution - this receives ALL traffic.
//
// Pattern: verdant/#
func (Topics) AllTopics() string {
	return "verdant/#"
}
