// Package discovery announces the node's two sensor entities to Home
// Assistant through MQTT discovery.
//
// Each entity gets one retained config message:
//
//	homeassistant/sensor/<client_id>/humidity/config
//	homeassistant/sensor/<client_id>/temperature/config
//
// Humidity goes first, then a fixed pause, then temperature. Both entities
// read the same telemetry topic and pick their field with a value template,
// and both reference one device block so Home Assistant groups them.
package discovery
