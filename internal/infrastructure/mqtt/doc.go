// Package mqtt provides MQTT client connectivity for the Verdant daemon.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions with wildcard support
//   - Last Will and Testament (LWT) for offline detection
//   - Connection health monitoring
//
// # Architecture
//
// MQTT is both the uplink and the sensor feed. The measurement head
// publishes raw frames on verdant/{serial}/readings; the analytics
// daemon subscribes there, and publishes analysed telemetry, watering
// forecasts and presence on the same per-device subtree.
//
//	Measurement head → MQTT Broker → Verdant daemon → MQTT Broker → Backend
//
// # Security Considerations
//
//   - TLS is required for production deployments (cfg.Broker.TLS=true)
//   - Credentials are validated against broker ACL
//   - Anonymous access is only for local development
//   - Message payloads are not encrypted beyond TLS transport
//
// # Performance Characteristics
//
//   - Connection: <1 second to local broker
//   - Publish latency: <10ms for QoS 1 to local broker
//   - Reconnect: Exponential backoff 1s-60s with jitter
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT, cfg.Device.Serial)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Receive raw frames from the measurement head
//	err = client.Subscribe(mqtt.Topics{}.Readings(serial), 1,
//	    func(topic string, payload []byte) error {
//	        return bus.Ingest(payload)
//	    })
//
//	// Publish a telemetry document
//	client.Publish(mqtt.Topics{}.Telemetry(serial), doc, 1, false)
package mqtt
