// Package mqtt provides the broker session used by the sensornode telemetry cycle.
//
// This package manages:
//   - One short-lived broker session per telemetry cycle
//   - Message publishing with bounded wait
//   - Topic builders for telemetry and Home Assistant discovery
//
// # Session Model
//
// Unlike a long-running service, the node owns a session for exactly one
// cycle: connect, publish, disconnect. Paho's auto-reconnect is therefore
// disabled; the supervisory loop is the retry mechanism and a failed
// connect is reported immediately as [ErrConnectionFailed].
//
//	sensornode ─(cycle)→ Connect → Publish(discovery, reading) → Close
//
// # Security Considerations
//
//   - TLS is used when the location sets broker.tls
//   - Credentials come from the resolved RuntimeConfig and are never logged
//
// # Usage
//
//	client, err := mqtt.Connect(ctx, mqtt.OptionsFromRuntime(rc))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.Publish(ctx, rc.Topic, payload, rc.QoS, false)
package mqtt
